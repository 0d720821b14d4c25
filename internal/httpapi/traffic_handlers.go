package httpapi

import "net/http"

// handleTrafficMetrics implements GET /api/traffic/metrics.
func (h *Handler) handleTrafficMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	m := h.deps.Traffic.Metrics(h.activeConnections())
	WriteJSON(w, http.StatusOK, map[string]any{
		"requests_per_second": m.RequestsPerSecond,
		"average_latency_ms":  m.AverageLatencyMS,
		"error_rate_percent":  m.ErrorRatePercent,
		"total_requests":      m.TotalRequests,
		"total_errors":        m.TotalErrors,
		"uptime_seconds":      m.UptimeSeconds,
		"active_connections":  m.ActiveConnections,
	})
}

// handleTrafficRequests implements GET /api/traffic/requests?count=N.
func (h *Handler) handleTrafficRequests(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	n := intQueryParam(r, "count", 50)
	records := h.deps.Traffic.Recent(n)

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"timestamp":  rec.Timestamp.Unix(),
			"method":     rec.Method,
			"path":       rec.FullPath,
			"status":     rec.Status,
			"latency_ms": rec.LatencyMS,
			"client":     rec.Client,
			"user_agent": rec.UserAgent,
			"bytes_in":   rec.BytesIn,
			"bytes_out":  rec.BytesOut,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// handleTrafficEndpoints implements GET /api/traffic/endpoints.
func (h *Handler) handleTrafficEndpoints(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	rows := h.deps.Traffic.Endpoints()
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"endpoint":           row.Endpoint,
			"count":              row.Count,
			"errors":             row.Errors,
			"average_latency_ms": row.AverageLatencyMS,
			"error_rate_percent": row.ErrorRatePercent,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"endpoints": out})
}

// handleTrafficConnections implements GET /api/traffic/connections.
func (h *Handler) handleTrafficConnections(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"active_connections": h.activeConnections()})
}

// handleTrafficClear implements DELETE /api/traffic/clear.
func (h *Handler) handleTrafficClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodDelete) {
		return
	}
	h.deps.Traffic.Clear()
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
