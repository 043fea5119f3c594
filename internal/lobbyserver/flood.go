package lobbyserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FloodLimiter throttles connection attempts per source IP with a token
// bucket. Reconnect storms from one host stop reaching the accept path
// without affecting other hosts.
type FloodLimiter struct {
	mu      sync.Mutex
	perIP   map[string]*ipLimiter
	rate    rate.Limit
	burst   int
	maxIdle time.Duration
}

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewFloodLimiter creates a limiter allowing r connections per second with
// the given burst per IP.
func NewFloodLimiter(r float64, burst int) *FloodLimiter {
	if r <= 0 {
		r = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &FloodLimiter{
		perIP:   make(map[string]*ipLimiter, 256),
		rate:    rate.Limit(r),
		burst:   burst,
		maxIdle: 10 * time.Minute,
	}
}

// Allow reports whether a connection from ip may proceed.
func (f *FloodLimiter) Allow(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.perIP[ip]
	if !ok {
		if len(f.perIP) > 4096 {
			f.pruneLocked()
		}
		entry = &ipLimiter{lim: rate.NewLimiter(f.rate, f.burst)}
		f.perIP[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.lim.Allow()
}

// pruneLocked drops buckets idle longer than maxIdle.
func (f *FloodLimiter) pruneLocked() {
	cutoff := time.Now().Add(-f.maxIdle)
	for ip, entry := range f.perIP {
		if entry.lastSeen.Before(cutoff) {
			delete(f.perIP, ip)
		}
	}
}
