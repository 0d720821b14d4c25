package wsapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// serveTraffic implements /ws/traffic: a one-way stream of per-request
// event objects as they occur (spec.md §6).
func (h *Handler) serveTraffic(w http.ResponseWriter, r *http.Request) {
	sub, err := h.hub.SubscribeTraffic()
	conn := upgrade(w, r, err != nil)
	if conn == nil {
		if sub != nil {
			sub.Close()
		}
		return
	}
	defer conn.Close()
	defer sub.Close()

	go readPump(conn, sub.Close)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
