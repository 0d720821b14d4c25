// Package tunnel implements the Tunnel Supervisor (spec.md §4.5): two
// independent tunnel agents — tunnel-A (control-API polling) and tunnel-B
// (stdout regex scanning) — with independent lifecycles from the Process
// Supervisor.
package tunnel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
)

// Kind distinguishes the two tunnel agents. Behavior is otherwise identical
// in shape (spec.md §4.5): same Start/Stop/Status surface, different
// URL-discovery mechanism.
type Kind string

const (
	KindControlAPI   Kind = "tunnel-a" // polls a local control-API endpoint
	KindStdoutScan   Kind = "tunnel-b" // scans merged stdout/stderr for a URL
)

// ngrokControlAPI is the local control-API endpoint tunnel-A polls.
const ngrokControlAPI = "http://127.0.0.1:4040/api/tunnels"

// cloudflareHostnameRe matches the public hostname cloudflared's quick-tunnel
// prints to its log stream.
var cloudflareHostnameRe = regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com`)

const (
	startupWait     = 2 * time.Second
	scanTimeout     = 10 * time.Second
	scanPollEvery   = 500 * time.Millisecond
	stopGraceWindow = 3 * time.Second
)

// StartResult is returned by Start.
type StartResult struct {
	Success bool
	URL     string
	Message string
}

// Status is returned by Status.
type Status struct {
	Running bool
	URL     string
}

// Agent owns one tunnel child process, its discovered public URL, and exit
// signal. Grounded on the teacher's plugin/grpc/discovery.go launchPlugin
// (spawn-then-poll-for-readiness) and waitForPlugin's poll loop, adapted
// from gRPC-readiness polling to public-URL discovery.
type Agent struct {
	kind   Kind
	binary string
	argsFn func(port int) []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	pid  int
	url  string
	done chan struct{}
}

// NewNgrokAgent constructs tunnel-A: spawns `ngrok http <port>` and polls its
// local control API for the public URL.
func NewNgrokAgent() *Agent {
	return &Agent{
		kind:   KindControlAPI,
		binary: "ngrok",
		argsFn: func(port int) []string { return []string{"http", strconv.Itoa(port)} },
	}
}

// NewCloudflareAgent constructs tunnel-B: spawns `cloudflared tunnel --url
// http://127.0.0.1:<port>` and scans its stdout/stderr for the quick-tunnel
// hostname.
func NewCloudflareAgent() *Agent {
	return &Agent{
		kind:   KindStdoutScan,
		binary: "cloudflared",
		argsFn: func(port int) []string {
			return []string{"tunnel", "--url", fmt.Sprintf("http://127.0.0.1:%d", port)}
		},
	}
}

// Start spawns the agent against the given internal port. If already
// running with a known URL, it returns idempotent success without spawning
// again.
func (a *Agent) Start(port int) StartResult {
	a.mu.Lock()
	if a.cmd != nil && a.url != "" {
		url := a.url
		a.mu.Unlock()
		return StartResult{Success: true, URL: url}
	}
	a.mu.Unlock()

	if _, err := exec.LookPath(a.binary); err != nil {
		return StartResult{Success: false, Message: fmt.Sprintf("%s is not installed", a.binary)}
	}

	switch a.kind {
	case KindControlAPI:
		return a.startControlAPI(port)
	default:
		return a.startStdoutScan(port)
	}
}

func (a *Agent) startControlAPI(port int) StartResult {
	cmd := exec.Command(a.binary, a.argsFn(port)...)
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return StartResult{Success: false, Message: err.Error()}
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.cmd, a.pid, a.done = cmd, cmd.Process.Pid, done
	a.mu.Unlock()
	go func() { cmd.Wait(); close(done) }()

	time.Sleep(startupWait)

	url, err := fetchNgrokURL()
	if err != nil {
		a.Stop()
		return StartResult{Success: false, Message: err.Error()}
	}

	a.mu.Lock()
	a.url = url
	a.mu.Unlock()
	return StartResult{Success: true, URL: url}
}

type ngrokTunnelsResponse struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
	} `json:"tunnels"`
}

func fetchNgrokURL() (string, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(ngrokControlAPI)
	if err != nil {
		return "", errors.Wrap(err, "failed to reach ngrok control API")
	}
	defer resp.Body.Close()

	var parsed ngrokTunnelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "failed to parse ngrok control API response")
	}
	if len(parsed.Tunnels) == 0 {
		return "", errors.New("ngrok control API reported no tunnels")
	}
	return parsed.Tunnels[0].PublicURL, nil
}

func (a *Agent) startStdoutScan(port int) StartResult {
	cmd := exec.Command(a.binary, a.argsFn(port)...)
	setSysProcAttr(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return StartResult{Success: false, Message: err.Error()}
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.cmd, a.pid, a.done = cmd, cmd.Process.Pid, done
	a.mu.Unlock()
	go func() { cmd.Wait(); pw.Close(); close(done) }()

	go a.scanForURL(pr)

	deadline := time.Now().Add(scanTimeout)
	for time.Now().Before(deadline) {
		a.mu.Lock()
		url := a.url
		a.mu.Unlock()
		if url != "" {
			return StartResult{Success: true, URL: url}
		}
		time.Sleep(scanPollEvery)
	}

	a.Stop()
	return StartResult{Success: false, Message: "timed out waiting for tunnel URL"}
}

func (a *Agent) scanForURL(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if match := cloudflareHostnameRe.FindString(line); match != "" {
			a.mu.Lock()
			if a.url == "" {
				a.url = match
			}
			a.mu.Unlock()
		}
	}
}

// Stop sends a graceful signal, waits stopGraceWindow, then kills. Clears
// the handle and URL. Idempotent.
func (a *Agent) Stop() error {
	a.mu.Lock()
	pid, done := a.pid, a.done
	a.cmd, a.pid, a.url, a.done = nil, 0, "", nil
	a.mu.Unlock()

	if done == nil {
		return nil
	}

	signalProcessTree(pid, false)
	select {
	case <-done:
		return nil
	case <-time.After(stopGraceWindow):
	}
	signalProcessTree(pid, true)
	<-done
	return nil
}

// Status reports liveness of the process handle and the discovered URL.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmd == nil {
		return Status{}
	}
	select {
	case <-a.done:
		return Status{}
	default:
		return Status{Running: true, URL: a.url}
	}
}

// Ensure re-starts the agent if enabled but its handle is no longer alive.
// It is the survivability hook run after a Process Supervisor restart
// (spec.md §4.5) and never stops an agent that is already running.
func (a *Agent) Ensure(port int, enabled bool) StartResult {
	if !enabled {
		return StartResult{}
	}
	if a.Status().Running {
		return StartResult{Success: true, URL: a.Status().URL}
	}
	return a.Start(port)
}
