package httpapi

import (
	"net/http"
)

type serverActionBody struct {
	Action string `json:"action"`
}

// handleServerAction implements POST /api/server (spec.md §6): start, stop,
// or restart the backend/frontend process pair described by the current
// configuration record. A configured frontend directory equal to the
// backend directory is silently dropped rather than rejected, matching the
// admin API's documented behavior (distinct from the Process Supervisor's
// own hard refusal when called directly, spec.md §4.4). A restart re-ensures
// both tunnels, re-starting any that are enabled but no longer alive
// (spec.md §4.5 survivability).
func (h *Handler) handleServerAction(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodPost) {
		return
	}

	var body serverActionBody
	if err := ReadJSON(w, r, &body); err != nil {
		return
	}

	snap, err := h.deps.Config.Load(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, "no configuration record")
		return
	}

	feDir, feCommand := snap.FrontendDirectory, snap.FrontendCommand
	if feDir == snap.Directory {
		feDir, feCommand = "", ""
	}

	switch body.Action {
	case "start":
		result, err := h.deps.Supervisor.Start(snap.Directory, snap.Command, feDir, feCommand)
		if err != nil {
			WriteJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backend_pid": result.BackendPID, "frontend_pid": result.FrontendPID})
	case "stop":
		if err := h.deps.Supervisor.Stop(); err != nil {
			WriteJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"success": true})
	case "restart":
		result, err := h.deps.Supervisor.Restart(snap.Directory, snap.Command, feDir, feCommand)
		if err != nil {
			WriteJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
			return
		}
		h.deps.Tunnels.EnsureAll(h.deps.AdminPort, snap.Port, snap.NgrokEnabled, snap.CloudflareEnabled, snap.QueueEnabled)
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backend_pid": result.BackendPID, "frontend_pid": result.FrontendPID})
	default:
		WriteError(w, http.StatusBadRequest, "action must be one of start, stop, restart")
	}
}

// handleServerStatus implements GET /api/server/status.
func (h *Handler) handleServerStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	st := h.deps.Supervisor.Status()
	WriteJSON(w, http.StatusOK, map[string]any{
		"app": map[string]any{"running": st.App.Running, "pid": st.App.PID, "uptime_seconds": st.App.UptimeSeconds},
		"web": map[string]any{"running": st.Web.Running, "pid": st.Web.PID, "uptime_seconds": st.Web.UptimeSeconds},
	})
}

// handleServerLogs implements GET /api/server/logs.
func (h *Handler) handleServerLogs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	n := intQueryParam(r, "count", 100)
	WriteJSON(w, http.StatusOK, map[string]any{"logs": h.deps.Supervisor.RecentLogs(n)})
}
