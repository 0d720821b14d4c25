package httpapi

import (
	"net/http"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/config"
)

// handleConfig dispatches GET /api/config and PUT /api/config (spec.md §6).
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getConfig(w, r)
	case http.MethodPut:
		h.putConfig(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Config.Load(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, "no configuration record")
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// configPatchBody mirrors spec.md §6's PUT /api/config body: "partial
// update with enumerated recognized options... fields absent are left
// unchanged."
type configPatchBody struct {
	Name              *string `json:"name"`
	Directory         *string `json:"directory"`
	Command           *string `json:"command"`
	FrontendDirectory *string `json:"frontend_directory"`
	FrontendCommand   *string `json:"frontend_command"`
	Port              *int    `json:"port"`
	LANIP             *string `json:"lan_ip"`
	LANEnabled        *bool   `json:"lan_enabled"`
	NgrokEnabled      *bool   `json:"ngrok_enabled"`
	CloudflareEnabled *bool   `json:"cloudflare_enabled"`
	QueueEnabled      *bool   `json:"queue_enabled"`
}

func (h *Handler) putConfig(w http.ResponseWriter, r *http.Request) {
	var body configPatchBody
	if err := ReadJSON(w, r, &body); err != nil {
		return
	}

	patch := config.PartialUpdate{
		Name:              body.Name,
		Directory:         body.Directory,
		Command:           body.Command,
		FrontendDirectory: body.FrontendDirectory,
		FrontendCommand:   body.FrontendCommand,
		Port:              body.Port,
		LANIP:             body.LANIP,
		LANEnabled:        body.LANEnabled,
		NgrokEnabled:      body.NgrokEnabled,
		CloudflareEnabled: body.CloudflareEnabled,
		QueueEnabled:      body.QueueEnabled,
	}

	snap, err := h.deps.Config.Update(r.Context(), patch)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}
