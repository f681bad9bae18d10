package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits or rejects a request for a key.
type Limiter interface {
	Allow(key string) bool
}

// Config sizes the per-actor token buckets.
type Config struct {
	PerMinute int
	Burst     int
	// IdleTTL evicts buckets that have not been used for this long.
	IdleTTL time.Duration
}

// PerActor keeps one token bucket per key.
type PerActor struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	buckets map[string]*bucket
	sweeps  int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const sweepEvery = 256

// NewPerActor builds a limiter refilling PerMinute tokens per minute.
func NewPerActor(cfg Config) *PerActor {
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perMinute
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PerActor{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idleTTL: ttl,
		now:     time.Now,
		buckets: map[string]*bucket{},
	}
}

// WithClock overrides the time source. Intended for tests.
func (l *PerActor) WithClock(now func() time.Time) *PerActor {
	if now != nil {
		l.now = now
	}
	return l
}

// Allow consumes one token for key.
func (l *PerActor) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	l.sweeps++
	if l.sweeps >= sweepEvery {
		l.sweeps = 0
		l.evict(now)
	}
	return b.limiter.AllowN(now, 1)
}

// Len reports the number of tracked keys.
func (l *PerActor) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Prune drops buckets idle for longer than the configured TTL and returns
// how many were removed.
func (l *PerActor) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evict(l.now())
}

func (l *PerActor) evict(now time.Time) int {
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Unlimited admits everything.
type Unlimited struct{}

func (Unlimited) Allow(string) bool { return true }
