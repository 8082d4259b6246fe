package server

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// rateLimiter is a per-key sliding window counter. The shop rate limiter in
// the client blocks until a slot frees up, which is fine for an outbound
// crawler but wrong for an inbound request that must answer 429 immediately,
// so subscription endpoints use this instead.
type rateLimiter struct {
	clock  clock.Clock
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
}

func newRateLimiter(clk clock.Clock, limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clock:  clk,
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records a hit for key and reports whether it fits in the window.
func (l *rateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.hits[key] = kept
		return false
	}

	l.hits[key] = append(kept, now)
	return true
}
