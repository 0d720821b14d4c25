package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
)

func TestRecordIncrementsTotals(t *testing.T) {
	rec := NewWithCapacity(nil, 10)

	rec.Record("GET", "/foo?x=1", 200, 12.5, "127.0.0.1", "curl/8", 100, 200)
	rec.Record("GET", "/foo?x=2", 500, 30, "127.0.0.1", "curl/8", 100, 50)

	m := rec.Metrics(0)
	assert.EqualValues(t, 2, m.TotalRequests)
	assert.EqualValues(t, 1, m.TotalErrors)
	assert.InDelta(t, 50.0, m.ErrorRatePercent, 0.001)
	assert.InDelta(t, 21.25, m.AverageLatencyMS, 0.001)
}

func TestRecentReturnsReverseChronologicalOrder(t *testing.T) {
	rec := NewWithCapacity(nil, 10)

	rec.Record("GET", "/a", 200, 1, "c", "ua", 0, 0)
	rec.Record("GET", "/b", 200, 1, "c", "ua", 0, 0)
	rec.Record("GET", "/c", 200, 1, "c", "ua", 0, 0)

	got := rec.Recent(10)
	require.Len(t, got, 3)
	assert.Equal(t, "/c", got[0].Path)
	assert.Equal(t, "/b", got[1].Path)
	assert.Equal(t, "/a", got[2].Path)
}

func TestRecentClampsToMaxRecent(t *testing.T) {
	rec := NewWithCapacity(nil, MaxRecent+50)
	for i := 0; i < MaxRecent+50; i++ {
		rec.Record("GET", "/x", 200, 1, "c", "ua", 0, 0)
	}

	got := rec.Recent(10000)
	assert.Len(t, got, MaxRecent)
}

func TestRecentClampsToRingCapacity(t *testing.T) {
	rec := NewWithCapacity(nil, 5)
	for i := 0; i < 20; i++ {
		rec.Record("GET", "/x", 200, 1, "c", "ua", 0, 0)
	}

	got := rec.Recent(MaxRecent)
	assert.Len(t, got, 5)
}

func TestEndpointsSortedByCountDescending(t *testing.T) {
	rec := NewWithCapacity(nil, 100)

	rec.Record("GET", "/popular", 200, 1, "c", "ua", 0, 0)
	rec.Record("GET", "/popular", 200, 1, "c", "ua", 0, 0)
	rec.Record("GET", "/popular", 200, 1, "c", "ua", 0, 0)
	rec.Record("GET", "/rare", 200, 1, "c", "ua", 0, 0)

	rows := rec.Endpoints()
	require.Len(t, rows, 2)
	assert.Equal(t, "GET /popular", rows[0].Endpoint)
	assert.EqualValues(t, 3, rows[0].Count)
	assert.Equal(t, "GET /rare", rows[1].Endpoint)
}

func TestClearResetsEverything(t *testing.T) {
	rec := NewWithCapacity(nil, 10)
	rec.Record("GET", "/a", 500, 10, "c", "ua", 1, 1)

	rec.Clear()

	m := rec.Metrics(0)
	assert.Zero(t, m.TotalRequests)
	assert.Zero(t, m.TotalErrors)
	assert.Empty(t, rec.Recent(10))
	assert.Empty(t, rec.Endpoints())
}

func TestIsExcludedPathRejectsTrafficAPIAndWebsocket(t *testing.T) {
	assert.True(t, IsExcludedPath("/api/traffic/metrics"))
	assert.True(t, IsExcludedPath("/ws/traffic"))
	assert.False(t, IsExcludedPath("/preview/foo"))
}

func TestRecordPublishesToTrafficChannel(t *testing.T) {
	hub := broadcast.New()
	sub, err := hub.SubscribeTraffic()
	require.NoError(t, err)
	defer sub.Close()

	rec := New(hub)
	rec.Record("GET", "/foo", 200, 5, "127.0.0.1", "ua", 0, 0)

	event := <-sub.C
	assert.Equal(t, "GET", event["method"])
}
