package wsapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// serveLogs implements /ws/logs: a one-way stream of log lines, written as
// text frames in the order the Process Supervisor publishes them to the
// hub's logs channel.
func (h *Handler) serveLogs(w http.ResponseWriter, r *http.Request) {
	sub, err := h.hub.SubscribeLogs()
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
		case line, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
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
