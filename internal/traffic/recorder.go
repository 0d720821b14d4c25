// Package traffic implements the Traffic Recorder (spec.md §4.2): a bounded
// ring of request records plus incrementally maintained aggregates.
package traffic

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
)

// DefaultRingCapacity is the ring buffer's default capacity (spec.md §3).
const DefaultRingCapacity = 500

// MaxRecent is the hard cap on recent(n) regardless of requested n.
const MaxRecent = 200

// recentWindowSeconds bounds the window metrics() uses to compute req/s.
const recentWindowSeconds = 60

// Record is one Request Log Record (spec.md §3).
type Record struct {
	Timestamp time.Time
	Method    string
	Path      string // query stripped, for aggregation
	FullPath  string // query preserved, for display
	Status    int
	LatencyMS float64
	Client    string
	UserAgent string
	BytesIn   int64
	BytesOut  int64
}

type endpointStats struct {
	count        int64
	errors       int64
	totalLatency float64
}

// Metrics is the snapshot returned by metrics().
type Metrics struct {
	RequestsPerSecond  float64
	AverageLatencyMS   float64
	ErrorRatePercent   float64
	TotalRequests      int64
	TotalErrors        int64
	UptimeSeconds      float64
	ActiveConnections  int
}

// EndpointRow is one row returned by endpoints().
type EndpointRow struct {
	Endpoint         string
	Count            int64
	Errors           int64
	AverageLatencyMS float64
	ErrorRatePercent float64
}

// Recorder owns the request ring and aggregates exclusively (spec.md §3).
// All aggregation structures are updated under a single mutex, and the hub
// dispatch happens after the lock is released (spec.md §5).
type Recorder struct {
	hub *broadcast.Hub

	mu               sync.Mutex
	ring             []Record
	capacity         int
	head             int // next write index
	size             int // number of valid entries
	recentTimestamps []time.Time

	totalRequests int64
	totalErrors   int64
	totalLatency  float64
	totalBytesIn  int64
	totalBytesOut int64
	endpoints     map[string]*endpointStats
	startTime     time.Time
}

// New constructs a Recorder with the default ring capacity.
func New(hub *broadcast.Hub) *Recorder {
	return NewWithCapacity(hub, DefaultRingCapacity)
}

// NewWithCapacity constructs a Recorder with a caller-chosen ring capacity
// (tests use a small capacity to exercise wraparound cheaply).
func NewWithCapacity(hub *broadcast.Hub, capacity int) *Recorder {
	if capacity < 1 {
		capacity = DefaultRingCapacity
	}
	return &Recorder{
		hub:       hub,
		ring:      make([]Record, capacity),
		capacity:  capacity,
		endpoints: make(map[string]*endpointStats),
		startTime: time.Now(),
	}
}

// endpointKey builds the "METHOD path-without-query" histogram key
// (spec.md §4.2).
func endpointKey(method, path string) string {
	return method + " " + path
}

// stripQuery removes a query string, keeping only the path.
func stripQuery(fullPath string) string {
	if idx := strings.IndexByte(fullPath, '?'); idx >= 0 {
		return fullPath[:idx]
	}
	return fullPath
}

// Record appends a request record, updates totals and the per-endpoint
// histogram, and pushes the event to the traffic channel. The critical
// section is a pointer append plus counter increments; dispatch to
// subscribers happens after the lock is released.
func (r *Recorder) Record(method, fullPath string, status int, latencyMS float64, client, userAgent string, bytesIn, bytesOut int64) {
	path := stripQuery(fullPath)
	if len(userAgent) > 100 {
		userAgent = userAgent[:100]
	}

	rec := Record{
		Timestamp: time.Now(),
		Method:    method,
		Path:      path,
		FullPath:  fullPath,
		Status:    status,
		LatencyMS: latencyMS,
		Client:    client,
		UserAgent: userAgent,
		BytesIn:   bytesIn,
		BytesOut:  bytesOut,
	}

	r.mu.Lock()
	r.ring[r.head] = rec
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}

	r.totalRequests++
	if status >= 400 {
		r.totalErrors++
	}
	r.totalLatency += latencyMS
	r.totalBytesIn += bytesIn
	r.totalBytesOut += bytesOut

	key := endpointKey(method, path)
	ep, ok := r.endpoints[key]
	if !ok {
		ep = &endpointStats{}
		r.endpoints[key] = ep
	}
	ep.count++
	if status >= 400 {
		ep.errors++
	}
	ep.totalLatency += latencyMS

	r.recentTimestamps = append(r.recentTimestamps, rec.Timestamp)
	r.recentTimestamps = trimOlderThan(r.recentTimestamps, recentWindowSeconds*time.Second)
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.PublishTraffic(recordToEvent(rec))
	}
}

func trimOlderThan(ts []time.Time, window time.Duration) []time.Time {
	cutoff := time.Now().Add(-window)
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]time.Time{}, ts[i:]...)
}

func recordToEvent(rec Record) map[string]any {
	return map[string]any{
		"timestamp":  rec.Timestamp.Unix(),
		"method":     rec.Method,
		"path":       rec.FullPath,
		"status":     rec.Status,
		"latency_ms": rec.LatencyMS,
		"client":     rec.Client,
		"bytes_in":   rec.BytesIn,
		"bytes_out":  rec.BytesOut,
	}
}

// Recent returns up to n most recent records in reverse-chronological order;
// n is clamped to MaxRecent.
func (r *Recorder) Recent(n int) []Record {
	if n > MaxRecent {
		n = MaxRecent
	}
	if n < 0 {
		n = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.size {
		n = r.size
	}

	out := make([]Record, 0, n)
	idx := r.head - 1
	for i := 0; i < n; i++ {
		if idx < 0 {
			idx += r.capacity
		}
		out = append(out, r.ring[idx])
		idx--
	}
	return out
}

// Metrics computes requests-per-second, average latency, error rate, uptime,
// and embeds the caller-supplied active-connections figure (spec.md §4.2).
func (r *Recorder) Metrics(activeConnections int) Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	recent := trimOlderThan(r.recentTimestamps, recentWindowSeconds*time.Second)
	rps := float64(len(recent)) / float64(recentWindowSeconds)

	var avgLatency, errorRate float64
	if r.totalRequests > 0 {
		avgLatency = r.totalLatency / float64(r.totalRequests)
		errorRate = float64(r.totalErrors) / float64(r.totalRequests) * 100
	}

	return Metrics{
		RequestsPerSecond: rps,
		AverageLatencyMS:  avgLatency,
		ErrorRatePercent:  errorRate,
		TotalRequests:     r.totalRequests,
		TotalErrors:       r.totalErrors,
		UptimeSeconds:     time.Since(r.startTime).Seconds(),
		ActiveConnections: activeConnections,
	}
}

// Endpoints returns per-endpoint rows sorted by count descending.
func (r *Recorder) Endpoints() []EndpointRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]EndpointRow, 0, len(r.endpoints))
	for key, stats := range r.endpoints {
		var avgLatency, errorRate float64
		if stats.count > 0 {
			avgLatency = stats.totalLatency / float64(stats.count)
			errorRate = float64(stats.errors) / float64(stats.count) * 100
		}
		rows = append(rows, EndpointRow{
			Endpoint:         key,
			Count:            stats.count,
			Errors:           stats.errors,
			AverageLatencyMS: avgLatency,
			ErrorRatePercent: errorRate,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Endpoint < rows[j].Endpoint
	})
	return rows
}

// Clear resets all counters, the ring, histograms, and start time.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring = make([]Record, r.capacity)
	r.head = 0
	r.size = 0
	r.recentTimestamps = nil
	r.totalRequests = 0
	r.totalErrors = 0
	r.totalLatency = 0
	r.totalBytesIn = 0
	r.totalBytesOut = 0
	r.endpoints = make(map[string]*endpointStats)
	r.startTime = time.Now()
}

// IsExcludedPath reports whether path must never reach Record — the traffic
// API and traffic websocket prefixes are self-excluded to prevent recursion
// (spec.md §4.2).
func IsExcludedPath(path string) bool {
	return strings.HasPrefix(path, "/api/traffic") || strings.HasPrefix(path, "/ws/traffic")
}

// String renders a Record for the /api/server/logs-style plaintext views.
func (rec Record) String() string {
	return fmt.Sprintf("[%s] %s %s %d %.1fms", rec.Timestamp.Format("15:04:05"), rec.Method, rec.FullPath, rec.Status, rec.LatencyMS)
}
