// Package proxy implements the Reverse Proxy (spec.md §4.6): request
// classification, admission gating, and header-filtered forwarding to the
// user's target application.
package proxy

import (
	"net"
	"strings"
)

// assetExactPaths are exact-match passthrough paths forwarded verbatim, without
// prefix stripping (spec.md §4.6).
var assetExactPaths = map[string]bool{
	"/favicon.ico":    true,
	"/manifest.json":  true,
	"/robots.txt":     true,
	"/sitemap.xml":    true,
}

// assetPrefixes are passthrough path prefixes.
var assetPrefixes = []string{"/assets/", "/static/"}

// PreviewPrefix is the only prefix stripped before forwarding.
const PreviewPrefix = "/preview"

// IsAdminAPIPath reports whether path belongs to the admin API namespace.
func IsAdminAPIPath(path string) bool { return strings.HasPrefix(path, "/api") }

// IsAdminWSPath reports whether path belongs to the admin WebSocket namespace.
func IsAdminWSPath(path string) bool { return strings.HasPrefix(path, "/ws") }

// isAssetPath reports whether path is one of the common asset passthrough
// paths.
func isAssetPath(path string) bool {
	if assetExactPaths[path] {
		return true
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsProxyPath reports whether path is in the proxy surface: /preview[/*]
// plus the asset paths (spec.md §4.6).
func IsProxyPath(path string) bool {
	return path == PreviewPrefix || strings.HasPrefix(path, PreviewPrefix+"/") || isAssetPath(path)
}

// ComputeTargetPath strips the /preview prefix (if present); asset paths and
// the proxied root pass through verbatim.
func ComputeTargetPath(path string) string {
	if path == PreviewPrefix {
		return "/"
	}
	if strings.HasPrefix(path, PreviewPrefix+"/") {
		stripped := strings.TrimPrefix(path, PreviewPrefix)
		if stripped == "" {
			return "/"
		}
		return stripped
	}
	return path
}

// IsLoopbackHost reports whether host (as seen in the Host header, with an
// optional port) refers to the local machine.
func IsLoopbackHost(host string) bool {
	h := host
	if hostOnly, _, err := net.SplitHostPort(host); err == nil {
		h = hostOnly
	}
	h = strings.Trim(h, "[]")
	return h == "127.0.0.1" || h == "localhost" || h == "::1"
}
