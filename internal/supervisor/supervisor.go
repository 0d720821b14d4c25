// Package supervisor implements the Process Supervisor (spec.md §4.4):
// spawning, log-streaming, and lifecycle management of the backend and
// optional frontend dev-app processes.
package supervisor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	gopsproc "github.com/shirou/gopsutil/v3/process"
	"github.com/kballard/go-shellquote"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
)

// DefaultRingCapacity bounds the in-memory log ring (spec.md §4.4).
const DefaultRingCapacity = 1000

// GraceKillTimeout is how long stop() waits after the graceful signal before
// escalating to a hard kill.
const GraceKillTimeout = 5 * time.Second

// RestartPause covers OS-level port release between stop() and start()
// during restart() (spec.md §4.4).
const RestartPause = 1 * time.Second

// dangerousSubstrings are rejected in any command string — a conservative
// defense against operator error, not a security boundary (spec.md §4.4).
var dangerousSubstrings = []string{"$(", "`", "|", ">", "<", ";", "\n", "\r"}

// ContainsDangerousChars reports whether command contains a shell
// metacharacter the supervisor refuses to run.
func ContainsDangerousChars(command string) bool {
	for _, s := range dangerousSubstrings {
		if strings.Contains(command, s) {
			return true
		}
	}
	return false
}

// LogSink receives formatted log lines as they stream from a child process.
type LogSink func(line string)

// ProcessStatus is the OS-truthful status of one spawned process.
type ProcessStatus struct {
	Running       bool
	PID           int
	UptimeSeconds float64
}

// Status reports the backend ("app") and optional frontend ("web") process
// status.
type Status struct {
	App ProcessStatus
	Web ProcessStatus
}

// StartResult reports the PIDs of freshly spawned processes.
type StartResult struct {
	BackendPID  int
	FrontendPID int // 0 when no frontend was configured
}

// processHandle tracks one spawned child and its exit signal.
type processHandle struct {
	cmd        *exec.Cmd
	pid        int
	createTime int64 // ms since epoch, from gopsutil
	prefix     string
	done       chan struct{}
}

// Supervisor owns at most one backend process and one optional frontend
// process, their merged log streams, and a bounded log ring. Grounded on the
// teacher's plugin/grpc/discovery.go launchPlugin/pluginLogger (spawn +
// line-scanning capture) and Shutdown (signal-then-kill) methods.
type Supervisor struct {
	hub *broadcast.Hub

	mu       sync.Mutex
	backend  *processHandle
	frontend *processHandle

	ringMu sync.Mutex
	ring   []string
	cap    int
	head   int
	size   int

	sinksMu sync.Mutex
	sinks   []LogSink
}

// New constructs a Supervisor that dispatches log lines to hub in addition
// to any sinks registered via AddSink.
func New(hub *broadcast.Hub) *Supervisor {
	return &Supervisor{
		hub: hub,
		cap: DefaultRingCapacity,
	}
}

// AddSink registers an additional log-line sink (spec.md §4.4 "log_sink").
func (s *Supervisor) AddSink(sink LogSink) {
	s.sinksMu.Lock()
	s.sinks = append(s.sinks, sink)
	s.sinksMu.Unlock()
}

// Start spawns the backend process in dir, and a frontend process in feDir
// if both fe_dir and fe_command are non-empty. Fails if a process is already
// running, or if either command contains a rejected shell metacharacter, or
// if feDir collapses onto dir.
func (s *Supervisor) Start(dir, command, feDir, feCommand string) (StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		return StartResult{}, errors.New("a process is already running")
	}

	if err := validateDir(dir); err != nil {
		return StartResult{}, err
	}
	if ContainsDangerousChars(command) {
		return StartResult{}, errors.Newf("command rejected: contains a disallowed shell metacharacter")
	}

	hasFrontend := feDir != "" && feCommand != ""
	if hasFrontend {
		if feDir == dir {
			return StartResult{}, errors.New("fe_dir must differ from dir to avoid port collision")
		}
		if err := validateDir(feDir); err != nil {
			return StartResult{}, err
		}
		if ContainsDangerousChars(feCommand) {
			return StartResult{}, errors.Newf("fe_command rejected: contains a disallowed shell metacharacter")
		}
	}

	backend, err := s.spawn(dir, command, "app")
	if err != nil {
		return StartResult{}, errors.Wrap(err, "failed to start backend process")
	}
	s.backend = backend

	result := StartResult{BackendPID: backend.pid}

	if hasFrontend {
		frontend, err := s.spawn(feDir, feCommand, "web")
		if err != nil {
			s.stopHandle(s.backend)
			s.backend = nil
			return StartResult{}, errors.Wrap(err, "failed to start frontend process")
		}
		s.frontend = frontend
		result.FrontendPID = frontend.pid
	}

	return result, nil
}

func validateDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "directory %q does not exist", dir)
	}
	if !info.IsDir() {
		return errors.Newf("%q is not a directory", dir)
	}
	return nil
}

// spawn launches command inside dir with a shell, merges stdout+stderr into
// one line-buffered stream, and starts the log-streaming worker.
func (s *Supervisor) spawn(dir, command, prefix string) (*processHandle, error) {
	// Validated via shellquote.Split purely to reject unparseable shell
	// syntax early; the command still executes through a real shell so
	// quoting/expansion behaves as the operator expects.
	if _, err := shellquote.Split(command); err != nil {
		return nil, errors.Wrapf(err, "command %q is not valid shell syntax", command)
	}

	cmd := newShellCmd(command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1", "NODE_NO_WARNINGS=1")
	setSysProcAttr(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, err
	}

	h := &processHandle{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		prefix: prefix,
		done:   make(chan struct{}),
	}
	if proc, err := gopsproc.NewProcess(int32(h.pid)); err == nil {
		if ct, err := proc.CreateTime(); err == nil {
			h.createTime = ct
		}
	}

	go s.streamLogs(pr, h)
	go func() {
		cmd.Wait()
		pw.Close()
		close(h.done)
	}()

	return h, nil
}

// streamLogs reads line-by-line from the merged stream, formats each line,
// and pushes it to the ring, the broadcast hub, and every registered sink.
// Sink failures never abort streaming. When the stream ends, it clears the
// handle that owns it.
func (s *Supervisor) streamLogs(r io.Reader, h *processHandle) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.ToValidUTF8(scanner.Text(), "�")
		formatted := fmt.Sprintf("[%s] [%s] %s", time.Now().Format("15:04:05"), h.prefix, line)
		s.appendRing(formatted)
		s.dispatch(formatted)
	}

	s.mu.Lock()
	if s.backend == h {
		s.backend = nil
	}
	if s.frontend == h {
		s.frontend = nil
	}
	s.mu.Unlock()
}

func (s *Supervisor) dispatch(line string) {
	if s.hub != nil {
		s.hub.PublishLog(line)
	}
	s.sinksMu.Lock()
	sinks := append([]LogSink(nil), s.sinks...)
	s.sinksMu.Unlock()
	for _, sink := range sinks {
		func() {
			defer func() { recover() }()
			sink(line)
		}()
	}
}

func (s *Supervisor) appendRing(line string) {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	if s.ring == nil {
		s.ring = make([]string, s.cap)
	}
	s.ring[s.head] = line
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}
}

// RecentLogs returns up to the last n lines, oldest first.
func (s *Supervisor) RecentLogs(n int) []string {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()

	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return nil
	}

	out := make([]string, n)
	start := (s.head - n + s.cap) % s.cap
	for i := 0; i < n; i++ {
		out[i] = s.ring[(start+i)%s.cap]
	}
	return out
}

// Stop terminates the entire process tree rooted at each spawned child:
// graceful signal first, hard kill after GraceKillTimeout. Idempotent.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	backend, frontend := s.backend, s.frontend
	s.backend, s.frontend = nil, nil
	s.mu.Unlock()

	s.stopHandle(backend)
	s.stopHandle(frontend)
	return nil
}

func (s *Supervisor) stopHandle(h *processHandle) {
	if h == nil {
		return
	}
	signalProcessTree(h.pid, false)

	select {
	case <-h.done:
		return
	case <-time.After(GraceKillTimeout):
	}
	signalProcessTree(h.pid, true)
	<-h.done
}

// Restart performs stop(); sleep(RestartPause); start(...).
func (s *Supervisor) Restart(dir, command, feDir, feCommand string) (StartResult, error) {
	if err := s.Stop(); err != nil {
		return StartResult{}, err
	}
	time.Sleep(RestartPause)
	return s.Start(dir, command, feDir, feCommand)
}

// Status queries the OS directly for each handle rather than trusting the
// running flag alone; a dead or zombie handle is cleared.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	appStatus, backend := s.checkAlive(s.backend)
	s.backend = backend

	webStatus, frontend := s.checkAlive(s.frontend)
	s.frontend = frontend

	return Status{App: appStatus, Web: webStatus}
}

func (s *Supervisor) checkAlive(h *processHandle) (ProcessStatus, *processHandle) {
	if h == nil {
		return ProcessStatus{}, nil
	}

	proc, err := gopsproc.NewProcess(int32(h.pid))
	if err != nil {
		return ProcessStatus{}, nil
	}
	st, err := proc.Status()
	if err != nil || isZombie(st) {
		return ProcessStatus{}, nil
	}

	uptime := time.Duration(0)
	if h.createTime > 0 {
		uptime = time.Since(time.UnixMilli(h.createTime))
	}

	return ProcessStatus{Running: true, PID: h.pid, UptimeSeconds: uptime.Seconds()}, h
}

func isZombie(statuses []string) bool {
	for _, st := range statuses {
		if st == gopsproc.Zombie {
			return true
		}
	}
	return false
}
