// Package httpapi implements the Admin API (spec.md §6): JSON handlers for
// configuration, process-supervisor control, tunnel control, admission
// queue operations, and traffic metrics, all served under /api by the
// Reverse Proxy's local-dispatch branch. Grounded on the teacher's
// server/handlers.go handler-method-on-struct layout and server/response.go
// JSON helpers (now internal/httpapi/response.go).
package httpapi

import (
	"net/http"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/admission"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/config"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/supervisor"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/traffic"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/tunnel"
)

// Deps bundles the collaborators the Admin API dispatches to. The component
// fields are pointers to components the core owns exclusively (spec.md §3
// "Ownership rules"), alongside the admin port and a connection-count
// callback — the Admin API itself owns no domain state.
type Deps struct {
	Config     *config.Store
	Supervisor *supervisor.Supervisor
	Tunnels    *tunnel.Supervisor
	Admission  *admission.Controller
	Traffic    *traffic.Recorder
	AdminPort  int

	// ActiveConnections reports the current count of live WebSocket
	// subscribers across all three channels, fed to traffic.Metrics's
	// caller-supplied active-connections figure (spec.md §4.2).
	ActiveConnections func() int
}

// Handler serves the /api namespace.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
}

// New constructs the Admin API handler and registers every route.
func New(deps Deps) *Handler {
	h := &Handler{deps: deps, mux: http.NewServeMux()}
	h.routes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("/api/config", h.handleConfig)
	h.mux.HandleFunc("/api/server", h.handleServerAction)
	h.mux.HandleFunc("/api/server/status", h.handleServerStatus)
	h.mux.HandleFunc("/api/server/logs", h.handleServerLogs)
	h.mux.HandleFunc("/api/links", h.handleLinks)
	h.mux.HandleFunc("/api/ngrok", h.handleTunnelAction(tunnelKindNgrok))
	h.mux.HandleFunc("/api/cloudflare", h.handleTunnelAction(tunnelKindCloudflare))
	h.mux.HandleFunc("/api/queue/join", h.handleQueueJoin)
	h.mux.HandleFunc("/api/queue/leave", h.handleQueueLeave)
	h.mux.HandleFunc("/api/queue/heartbeat", h.handleQueueHeartbeat)
	h.mux.HandleFunc("/api/queue/status", h.handleQueueStatus)
	h.mux.HandleFunc("/api/queue/status/", h.handleQueueStatus)
	h.mux.HandleFunc("/api/traffic/metrics", h.handleTrafficMetrics)
	h.mux.HandleFunc("/api/traffic/requests", h.handleTrafficRequests)
	h.mux.HandleFunc("/api/traffic/endpoints", h.handleTrafficEndpoints)
	h.mux.HandleFunc("/api/traffic/connections", h.handleTrafficConnections)
	h.mux.HandleFunc("/api/traffic/clear", h.handleTrafficClear)
}

func (h *Handler) activeConnections() int {
	if h.deps.ActiveConnections == nil {
		return 0
	}
	return h.deps.ActiveConnections()
}
