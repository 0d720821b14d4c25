package proxy

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// preSessionRateLimit bounds how fast a single client IP may mint new
// sessions before it has a cookie at all. This is a defensive addition, not
// one of spec.md's invariants — it exists so a single misbehaving client
// can't flood the waiting list with throwaway sessions. The limits are fixed
// by these constants and every Server applies them.
const (
	preSessionRateLimit = 5 // requests per second
	preSessionBurst     = 10
	limiterIdleTTL       = 5 * time.Minute
)

// ipLimiter pairs a rate.Limiter with the last time it was touched, so idle
// entries can be swept instead of growing the map forever.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// perIPRateLimiter hands out one golang.org/x/time/rate.Limiter per client
// IP. Grounded on the teacher's go.mod dependency on golang.org/x/time
// (present in its module graph but unused by its own source) — this gives
// the package a concrete, exercised home.
type perIPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

func newPerIPRateLimiter() *perIPRateLimiter {
	return &perIPRateLimiter{limiters: make(map[string]*ipLimiter)}
}

// Allow reports whether client may proceed, creating a fresh limiter for
// previously unseen clients. It opportunistically sweeps entries idle for
// longer than limiterIdleTTL.
func (p *perIPRateLimiter) Allow(client string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	entry, ok := p.limiters[client]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(preSessionRateLimit), preSessionBurst)}
		p.limiters[client] = entry
	}
	entry.lastSeen = now

	if len(p.limiters) > 1024 {
		for k, v := range p.limiters {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(p.limiters, k)
			}
		}
	}

	return entry.limiter.Allow()
}
