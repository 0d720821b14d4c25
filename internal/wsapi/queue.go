package wsapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// serveQueue implements /ws/queue: the first frame is the controller's
// current snapshot, subsequent frames are snapshots pushed on every state
// change (spec.md §6).
func (h *Handler) serveQueue(w http.ResponseWriter, r *http.Request) {
	sub, err := h.hub.SubscribeQueue()
	conn := upgrade(w, r, err != nil)
	if conn == nil {
		if sub != nil {
			sub.Close()
		}
		return
	}
	defer conn.Close()
	defer sub.Close()

	if h.queueSnapshot != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(h.queueSnapshot()); err != nil {
			return
		}
	}

	go readPump(conn, sub.Close)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
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
