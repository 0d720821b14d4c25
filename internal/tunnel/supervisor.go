package tunnel

// Supervisor owns both tunnel agents. The two lifecycles are independent:
// stopping or restarting one never touches the other, and neither is tied
// to the Process Supervisor's lifecycle (spec.md §4.5 "Survivability").
type Supervisor struct {
	Ngrok      *Agent
	Cloudflare *Agent
}

// New constructs a Supervisor with both agents idle.
func New() *Supervisor {
	return &Supervisor{
		Ngrok:      NewNgrokAgent(),
		Cloudflare: NewCloudflareAgent(),
	}
}

// EffectivePort resolves the internal port a tunnel should target: when the
// queue is enabled, tunnel traffic must be gated by the proxy, so the
// admin port is used instead of the app's own port (spec.md §4.5).
func EffectivePort(adminPort, requestedPort int, queueEnabled bool) int {
	if queueEnabled {
		return adminPort
	}
	return requestedPort
}

// EnsureAll re-starts any enabled-but-dead tunnel after a Process Supervisor
// restart, without ever stopping one that is already running.
func (s *Supervisor) EnsureAll(adminPort, requestedPort int, ngrokEnabled, cloudflareEnabled, queueEnabled bool) {
	port := EffectivePort(adminPort, requestedPort, queueEnabled)
	s.Ngrok.Ensure(port, ngrokEnabled)
	s.Cloudflare.Ensure(port, cloudflareEnabled)
}
