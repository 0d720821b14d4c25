// Package wsapi implements the three admin WebSocket channels (spec.md §6):
// /ws/logs, /ws/queue, /ws/traffic. Each is a one-way server-to-client
// stream fed by the Broadcast Hub's matching channel. Grounded on the
// teacher's server/client.go readPump/writePump pair and its Gorilla
// keepalive constants (writeWait/pongWait/pingPeriod/maxMessageSize).
package wsapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 10 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves the /ws namespace.
type Handler struct {
	hub           *broadcast.Hub
	queueSnapshot func() any
	mux           *http.ServeMux
}

// New constructs a wsapi Handler and registers every route. queueSnapshot
// supplies the initial frame /ws/queue sends immediately after accept,
// before any state-change event arrives (spec.md §6).
func New(hub *broadcast.Hub, queueSnapshot func() any) *Handler {
	h := &Handler{hub: hub, queueSnapshot: queueSnapshot, mux: http.NewServeMux()}
	h.mux.HandleFunc("/ws/logs", h.serveLogs)
	h.mux.HandleFunc("/ws/queue", h.serveQueue)
	h.mux.HandleFunc("/ws/traffic", h.serveTraffic)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ActiveConnections reports the combined subscriber count across all three
// channels, fed to traffic.Metrics's active-connections figure (spec.md
// §4.2).
func (h *Handler) ActiveConnections() int {
	return h.hub.LogSubscriberCount() + h.hub.QueueSubscriberCount() + h.hub.TrafficSubscriberCount()
}

// upgrade performs the handshake and rejects with close code 1013 "Too many
// connections" when the caller's subscribe returned broadcast.ErrTooManySubscribers
// (spec.md §6, §7 "Connection-cap-reached"). Returns nil on any failure; the
// caller has already been responded to.
func upgrade(w http.ResponseWriter, r *http.Request, overCap bool) *websocket.Conn {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugw("websocket upgrade failed", logger.FieldError, err.Error())
		return nil
	}
	if overCap {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Too many connections"),
			time.Now().Add(writeWait),
		)
		conn.Close()
		return nil
	}
	return conn
}

// readPump drains and discards client frames, solely to service pong
// handling and detect peer disconnects. None of the three channels accept
// client-initiated messages (spec.md §6 "one-way").
func readPump(conn *websocket.Conn, onClose func()) {
	defer onClose()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
