package proxy

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

// waitingRoomTemplate is the page served while a session sits in the
// waiting-list. The session id is injected into a <script> tag before
// </head> (spec.md §4.6 step 4) so the client can poll
// /api/queue/status/{session} and /ws/queue for promotion.
const waitingRoomTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Waiting room</title>
<meta http-equiv="refresh" content="15">
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; background: #1b1f23; color: #e6e6e6;
         display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
  .card { text-align: center; max-width: 420px; }
  .position { font-size: 3rem; font-weight: 600; margin: 0.5rem 0; }
  .hint { color: #9aa0a6; font-size: 0.9rem; }
</style>
<script>
  window.__BACKENDBUDDY_SESSION__ = {{.SessionJS}};
</script>
</head>
<body>
  <div class="card">
    <h1>You're in line</h1>
    <p class="position">#{{.Position}}</p>
    <p>Estimated wait: ~{{.EstimatedWaitSecs}}s</p>
    <p class="hint">This page refreshes automatically. Leave it open — closing the tab does not hold your place.</p>
  </div>
</body>
</html>
`

var waitingRoomTmpl = template.Must(template.New("waitingroom").Parse(waitingRoomTemplate))

type waitingRoomData struct {
	Position          int
	EstimatedWaitSecs int
	SessionJS         string
}

// ServeWaitingRoom writes the waiting-room HTML with status 200 and the
// session string embedded for client-side polling (spec.md §4.6 step 4).
func ServeWaitingRoom(w http.ResponseWriter, session string, position int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	data := waitingRoomData{
		Position:          position,
		EstimatedWaitSecs: position * 30,
		SessionJS:         session,
	}
	if err := waitingRoomTmpl.Execute(w, data); err != nil {
		// Template execution only fails on a malformed template or a broken
		// writer; either way there's nothing more useful to send.
		fmt.Fprintf(w, "waiting, position %d", position)
	}
}

// StripFragment returns body from the first occurrence of marker onward, or
// "" when marker is absent, for checking a rendered page without parsing
// full HTML.
func StripFragment(body, marker string) string {
	idx := strings.Index(body, marker)
	if idx < 0 {
		return ""
	}
	return body[idx:]
}
