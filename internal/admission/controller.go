// Package admission implements the Admission Controller (spec.md §4.3): an
// active-set/waiting-list concurrency gate with heartbeat liveness and
// localhost priority, serialized under a single mutex.
package admission

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
)

// DefaultReapInterval is how often reap() is expected to run (spec.md §4.3).
const DefaultReapInterval = 10 * time.Second

// Status is the per-session state machine position. GONE is not represented
// explicitly — removal from the controller is physical (spec.md §4.3).
type Status string

const (
	StatusActive  Status = "active"
	StatusWaiting Status = "waiting"
	StatusUnknown Status = "unknown"
)

// Decision is returned by Join and reports where a session landed.
type Decision struct {
	Session  string
	Status   Status
	Position int // 0 when active; 1-based queue position when waiting
}

// StatusResult is returned by Status and Heartbeat.
type StatusResult struct {
	Session           string
	Status            Status
	Position          int
	EstimatedWaitSecs int
}

// entry is one tracked session, active or waiting.
type entry struct {
	session       string
	isLocalhost   bool
	lastHeartbeat time.Time
}

// Snapshot is the read-only state pushed through the broadcast queue channel
// and returned by Controller.Snapshot.
type Snapshot struct {
	ActiveSessions  []string `json:"active_sessions"`
	WaitingSessions []string `json:"waiting_sessions"`
	Cap             int      `json:"cap"`
	Prioritized     int      `json:"-"`
}

// Controller owns the active-set and waiting-list exclusively. All
// operations are serialized under mu; the critical section is short
// (O(|active|+|waiting|)) per spec.md §4.3.
//
// Grounded on the teacher's pulse/async/queue.go mutex-serialized
// state-machine operations (enqueue/dequeue plus subscriber notification)
// and pulse/schedule/ticker.go's periodic-tick-driven maintenance pattern,
// adapted here to the reap() sweep.
type Controller struct {
	hub *broadcast.Hub

	mu                sync.Mutex
	active            []*entry
	waiting           []*entry
	cap               int
	localhostPriority bool
	heartbeatTimeout  time.Duration
}

// New constructs a Controller with the given initial cap, localhost-priority
// flag, and heartbeat timeout.
func New(hub *broadcast.Hub, cap int, localhostPriority bool, heartbeatTimeout time.Duration) *Controller {
	if cap < 1 {
		cap = 1
	}
	return &Controller{
		hub:               hub,
		cap:               cap,
		localhostPriority: localhostPriority,
		heartbeatTimeout:  heartbeatTimeout,
	}
}

func findIndex(list []*entry, session string) int {
	for i, e := range list {
		if e.session == session {
			return i
		}
	}
	return -1
}

// Join resolves the decision order in spec.md §4.3. An empty session string
// mints a new UUID.
func (c *Controller) Join(session string, isLocalhost bool) Decision {
	if session == "" {
		session = uuid.NewString()
	}

	c.mu.Lock()

	if i := findIndex(c.active, session); i >= 0 {
		c.active[i].lastHeartbeat = time.Now()
		c.mu.Unlock()
		return Decision{Session: session, Status: StatusActive, Position: 0}
	}

	if i := findIndex(c.waiting, session); i >= 0 {
		c.waiting[i].lastHeartbeat = time.Now()
		pos := i + 1
		c.mu.Unlock()
		return Decision{Session: session, Status: StatusWaiting, Position: pos}
	}

	now := time.Now()
	e := &entry{session: session, isLocalhost: isLocalhost, lastHeartbeat: now}

	var decision Decision
	switch {
	case isLocalhost && c.localhostPriority:
		c.active = append(c.active, e)
		decision = Decision{Session: session, Status: StatusActive, Position: 0}
	case len(c.active) < c.cap:
		c.active = append(c.active, e)
		decision = Decision{Session: session, Status: StatusActive, Position: 0}
	default:
		c.waiting = append(c.waiting, e)
		decision = Decision{Session: session, Status: StatusWaiting, Position: len(c.waiting)}
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return decision
}

// Heartbeat refreshes last_heartbeat if the session is known. It never
// promotes, demotes, or reorders (spec.md §4.3).
func (c *Controller) Heartbeat(session string) (StatusResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := findIndex(c.active, session); i >= 0 {
		c.active[i].lastHeartbeat = time.Now()
		return StatusResult{Session: session, Status: StatusActive}, true
	}
	if i := findIndex(c.waiting, session); i >= 0 {
		c.waiting[i].lastHeartbeat = time.Now()
		pos := i + 1
		return StatusResult{Session: session, Status: StatusWaiting, Position: pos, EstimatedWaitSecs: pos * 30}, true
	}
	return StatusResult{}, false
}

// Leave removes session from wherever it is. If it was active, it promotes
// the waiting-list head (if any) and recomputes positions.
func (c *Controller) Leave(session string) {
	c.mu.Lock()

	changed := false
	if i := findIndex(c.active, session); i >= 0 {
		c.active = append(c.active[:i], c.active[i+1:]...)
		changed = true
		c.promoteLocked()
	} else if i := findIndex(c.waiting, session); i >= 0 {
		c.waiting = append(c.waiting[:i], c.waiting[i+1:]...)
		changed = true
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.publish(snap)
	}
}

// Status is a read-only lookup. Waiting entries carry a coarse estimated
// wait of position*30 seconds (spec.md §4.3).
func (c *Controller) Status(session string) (StatusResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if findIndex(c.active, session) >= 0 {
		return StatusResult{Session: session, Status: StatusActive}, true
	}
	if i := findIndex(c.waiting, session); i >= 0 {
		pos := i + 1
		return StatusResult{Session: session, Status: StatusWaiting, Position: pos, EstimatedWaitSecs: pos * 30}, true
	}
	return StatusResult{}, false
}

// Reap evicts active sessions whose last_heartbeat predates
// now-heartbeatTimeout, promotes from the waiting-list head to fill freed
// slots, then evicts stale sessions still on the waiting-list, and emits one
// snapshot if anything changed. A session promoted in this sweep keeps its
// last_heartbeat and is evicted by a later sweep if it stays silent.
// Intended to run on a 10s ticker.
func (c *Controller) Reap() {
	c.mu.Lock()

	cutoff := time.Now().Add(-c.heartbeatTimeout)
	changed := false

	kept := c.active[:0:0]
	for _, e := range c.active {
		if e.lastHeartbeat.Before(cutoff) {
			changed = true
			continue
		}
		kept = append(kept, e)
	}
	c.active = kept

	if c.promoteLocked() {
		changed = true
	}

	keptWaiting := c.waiting[:0:0]
	for _, e := range c.waiting {
		if e.lastHeartbeat.Before(cutoff) {
			changed = true
			continue
		}
		keptWaiting = append(keptWaiting, e)
	}
	c.waiting = keptWaiting

	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.publish(snap)
	}
}

// promoteLocked fills free active slots from the waiting-list head, FIFO,
// until the list is empty or the cap is reached. Caller must hold mu.
func (c *Controller) promoteLocked() bool {
	promoted := false
	for len(c.active) < c.cap && len(c.waiting) > 0 {
		e := c.waiting[0]
		c.waiting = c.waiting[1:]
		c.active = append(c.active, e)
		promoted = true
	}
	return promoted
}

// Configure updates the cap (coerced to at least 1) and localhost-priority
// flag. Reducing cap never evicts already-active sessions; excess drains
// naturally as sessions leave (spec.md §4.3).
func (c *Controller) Configure(cap int, prioritizeLocalhost bool) {
	if cap < 1 {
		cap = 1
	}
	c.mu.Lock()
	c.cap = cap
	c.localhostPriority = prioritizeLocalhost
	c.mu.Unlock()
}

// Snapshot returns the current active/waiting session ids and cap.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	active := make([]string, len(c.active))
	for i, e := range c.active {
		active[i] = e.session
	}
	waiting := make([]string, len(c.waiting))
	for i, e := range c.waiting {
		waiting[i] = e.session
	}
	return Snapshot{ActiveSessions: active, WaitingSessions: waiting, Cap: c.cap}
}

func (c *Controller) publish(snap Snapshot) {
	if c.hub != nil {
		c.hub.PublishQueueState(snap)
	}
}
