package httpapi

import (
	"fmt"
	"net/http"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/netutil"
)

// handleLinks implements GET /api/links (spec.md §6): the localhost URL,
// LAN URLs for every bound non-loopback IPv4 address, and the current
// tunnel public URLs (empty string when not running).
func (h *Handler) handleLinks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethods(w, r, http.MethodGet) {
		return
	}

	localhost := fmt.Sprintf("http://127.0.0.1:%d", h.deps.AdminPort)

	lanIPs := netutil.LocalIPv4Addresses()
	lanLinks := make([]string, 0, len(lanIPs))
	for _, ip := range lanIPs {
		lanLinks = append(lanLinks, fmt.Sprintf("http://%s:%d", ip, h.deps.AdminPort))
	}

	var ngrokURL, cloudflareURL string
	if h.deps.Tunnels != nil {
		ngrokURL = h.deps.Tunnels.Ngrok.Status().URL
		cloudflareURL = h.deps.Tunnels.Cloudflare.Status().URL
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"links": map[string]any{
			"localhost":  localhost,
			"lan":        lanLinks,
			"ngrok":      ngrokURL,
			"cloudflare": cloudflareURL,
		},
		"lan_ips": lanIPs,
	})
}
