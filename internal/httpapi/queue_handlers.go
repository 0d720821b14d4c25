package httpapi

import (
	"net/http"
	"strings"
)

type queueSessionBody struct {
	SessionID string `json:"session_id"`
}

// handleQueueJoin implements POST /api/queue/join. The admin surface is
// itself a localhost-only concern, so every join here is treated as a
// localhost join regardless of the caller's remote address: it bypasses the
// waiting room when localhost priority is enabled. With localhost priority
// disabled, it is admitted or queued like any other join.
func (h *Handler) handleQueueJoin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodPost) {
		return
	}
	var body queueSessionBody
	if err := ReadJSON(w, r, &body); err != nil {
		return
	}
	decision := h.deps.Admission.Join(body.SessionID, true)
	WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": decision.Session,
		"status":     decision.Status,
		"position":   decision.Position,
	})
}

// handleQueueLeave implements POST /api/queue/leave. An unknown session is
// a benign `{success:false}` rather than an error status (spec.md §7
// "Admission-not-found").
func (h *Handler) handleQueueLeave(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodPost) {
		return
	}
	var body queueSessionBody
	if err := ReadJSON(w, r, &body); err != nil {
		return
	}
	if _, ok := h.deps.Admission.Status(body.SessionID); !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	h.deps.Admission.Leave(body.SessionID)
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleQueueHeartbeat implements POST /api/queue/heartbeat. An unknown
// session is a benign `{success:false}` rather than an error status
// (spec.md §7 "Admission-not-found").
func (h *Handler) handleQueueHeartbeat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodPost) {
		return
	}
	var body queueSessionBody
	if err := ReadJSON(w, r, &body); err != nil {
		return
	}
	result, ok := h.deps.Admission.Heartbeat(body.SessionID)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"session_id":          result.Session,
		"status":              result.Status,
		"position":            result.Position,
		"estimated_wait_secs": result.EstimatedWaitSecs,
	})
}

// handleQueueStatus implements GET /api/queue/status and
// GET /api/queue/status/{session}. With no session segment it returns the
// controller's full snapshot; with one, the single session's status.
func (h *Handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}

	session := strings.TrimPrefix(r.URL.Path, "/api/queue/status")
	session = strings.Trim(session, "/")
	if session == "" {
		snap := h.deps.Admission.Snapshot()
		WriteJSON(w, http.StatusOK, map[string]any{
			"active_sessions":  snap.ActiveSessions,
			"waiting_sessions": snap.WaitingSessions,
			"cap":              snap.Cap,
		})
		return
	}

	result, ok := h.deps.Admission.Status(session)
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown session")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"session_id":          result.Session,
		"status":              result.Status,
		"position":            result.Position,
		"estimated_wait_secs": result.EstimatedWaitSecs,
	})
}
