package proxy

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionCookieName is the admission-ticket cookie (spec.md §6).
const SessionCookieName = "bb_session_id"

// SessionCookieMaxAgeSeconds is the cookie's Max-Age (spec.md §6).
const SessionCookieMaxAgeSeconds = 3600

// ReadOrMintSession reads bb_session_id from the request, or mints a fresh
// UUID and sets the cookie on the response immediately — a freshly-minted
// session must reach the client even on a proxied response (spec.md §4.6
// step 3).
func ReadOrMintSession(w http.ResponseWriter, r *http.Request) (session string, minted bool) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, false
	}

	session = uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   SessionCookieMaxAgeSeconds,
	})
	return session, true
}

// ResolveClient extracts the real client address: the first element of
// X-Forwarded-For if present, else the socket peer (spec.md §4.6 step 2).
func ResolveClient(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IsLocalhostClient reports whether a resolved client address is loopback.
func IsLocalhostClient(client string) bool {
	return client == "127.0.0.1" || client == "::1" || client == "localhost"
}
