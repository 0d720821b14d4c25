package httpapi

import (
	"net/http"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/tunnel"
)

type tunnelKind int

const (
	tunnelKindNgrok tunnelKind = iota
	tunnelKindCloudflare
)

type tunnelActionBody struct {
	Action string `json:"action"`
}

// handleTunnelAction implements POST /api/ngrok and POST /api/cloudflare
// (spec.md §6): start requires a configured target port; stop is always
// safe to call. The effective internal port is resolved per spec.md §4.5 —
// the admin port when queuing is enabled, the target port directly
// otherwise — so tunnel traffic is gated by the proxy whenever the waiting
// room is active.
func (h *Handler) handleTunnelAction(kind tunnelKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !RequireMethods(w, r, http.MethodPost) {
			return
		}

		var body tunnelActionBody
		if err := ReadJSON(w, r, &body); err != nil {
			return
		}

		agent := h.agentFor(kind)

		switch body.Action {
		case "start":
			snap, err := h.deps.Config.Load(r.Context())
			if err != nil || snap.Port == 0 {
				WriteJSON(w, http.StatusOK, map[string]any{"success": false, "message": "no target port configured"})
				return
			}
			port := tunnel.EffectivePort(h.deps.AdminPort, snap.Port, snap.QueueEnabled)
			result := agent.Start(port)
			WriteJSON(w, http.StatusOK, map[string]any{"success": result.Success, "url": result.URL, "message": result.Message})
		case "stop":
			if err := agent.Stop(); err != nil {
				WriteJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
				return
			}
			WriteJSON(w, http.StatusOK, map[string]any{"success": true})
		default:
			WriteError(w, http.StatusBadRequest, "action must be one of start, stop")
		}
	}
}

func (h *Handler) agentFor(kind tunnelKind) *tunnel.Agent {
	if kind == tunnelKindNgrok {
		return h.deps.Tunnels.Ngrok
	}
	return h.deps.Tunnels.Cloudflare
}
