package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
)

func TestJoinMintsUUIDWhenSessionEmpty(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)
	d := c.Join("", false)
	assert.NotEmpty(t, d.Session)
	assert.Equal(t, StatusActive, d.Status)
}

// Scenario A — single-slot queuing.
func TestSingleSlotQueuing(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)

	d1 := c.Join("S1", false)
	assert.Equal(t, StatusActive, d1.Status)
	assert.Equal(t, 0, d1.Position)

	d2 := c.Join("S2", false)
	assert.Equal(t, StatusWaiting, d2.Status)
	assert.Equal(t, 1, d2.Position)

	c.Leave("S1")

	s2, ok := c.Status("S2")
	require.True(t, ok)
	assert.Equal(t, StatusActive, s2.Status)
	assert.Equal(t, 0, s2.Position)
}

// Scenario B — localhost bypass.
func TestLocalhostBypass(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)

	c.Join("S1", false)

	dl := c.Join("SL", true)
	assert.Equal(t, StatusActive, dl.Status)

	snap := c.Snapshot()
	assert.Len(t, snap.ActiveSessions, 2, "localhost bypasses the cap, so active-set grows transiently")

	d3 := c.Join("S3", false)
	assert.Equal(t, StatusWaiting, d3.Status)
	assert.Equal(t, 1, d3.Position)
}

// Scenario C — heartbeat timeout.
func TestHeartbeatTimeoutReapPromotes(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)

	c.Join("S1", false)
	c.Join("S2", false)

	// Simulate the clock advancing past the timeout by backdating entries.
	past := time.Now().Add(-31 * time.Second)
	for _, e := range c.active {
		e.lastHeartbeat = past
	}
	for _, e := range c.waiting {
		e.lastHeartbeat = past
	}

	c.Reap()

	_, ok := c.Status("S1")
	assert.False(t, ok, "S1 must be evicted by reap")

	s2, ok := c.Status("S2")
	require.True(t, ok)
	assert.Equal(t, StatusActive, s2.Status, "S2 must be promoted to fill the freed slot")
}

func TestHeartbeatDoesNotReorder(t *testing.T) {
	c := New(nil, 1, false, 30*time.Second)

	c.Join("S1", false)
	c.Join("S2", false)
	c.Join("S3", false)

	_, ok := c.Heartbeat("S3")
	require.True(t, ok)

	s2, _ := c.Status("S2")
	s3, _ := c.Status("S3")
	assert.Equal(t, 1, s2.Position)
	assert.Equal(t, 2, s3.Position)
}

func TestHeartbeatUnknownSessionReturnsFalse(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)
	_, ok := c.Heartbeat("nope")
	assert.False(t, ok)
}

func TestConfigureCoercesCapToAtLeastOne(t *testing.T) {
	c := New(nil, 5, true, 30*time.Second)
	c.Configure(0, true)
	assert.Equal(t, 1, c.cap)
}

func TestConfigureCapReductionDoesNotEvictActive(t *testing.T) {
	c := New(nil, 3, false, 30*time.Second)
	c.Join("S1", false)
	c.Join("S2", false)
	c.Join("S3", false)

	c.Configure(1, false)

	snap := c.Snapshot()
	assert.Len(t, snap.ActiveSessions, 3, "reducing cap must not evict currently-active sessions")

	d4 := c.Join("S4", false)
	assert.Equal(t, StatusWaiting, d4.Status, "new admissions use the new cap")
}

func TestLeaveOfWaitingSessionRecomputesPositions(t *testing.T) {
	c := New(nil, 1, false, 30*time.Second)
	c.Join("S1", false)
	c.Join("S2", false)
	c.Join("S3", false)

	c.Leave("S2")

	s3, ok := c.Status("S3")
	require.True(t, ok)
	assert.Equal(t, 1, s3.Position)
}

func TestJoinPublishesSnapshotToQueueChannel(t *testing.T) {
	hub := broadcast.New()
	sub, err := hub.SubscribeQueue()
	require.NoError(t, err)
	defer sub.Close()

	c := New(hub, 1, true, 30*time.Second)
	c.Join("S1", false)

	select {
	case msg := <-sub.C:
		snap, ok := msg.(Snapshot)
		require.True(t, ok)
		assert.Contains(t, snap.ActiveSessions, "S1")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queue snapshot")
	}
}

func TestStatusUnknownSessionReturnsFalse(t *testing.T) {
	c := New(nil, 1, true, 30*time.Second)
	_, ok := c.Status("nope")
	assert.False(t, ok)
}
