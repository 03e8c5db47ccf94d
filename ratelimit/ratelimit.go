// Package ratelimit provides a per-caller minimum-interval gate for pacing
// remote API calls. Each caller key gets its own token bucket, so pacing is
// per key rather than global. A gate lives for one batch run; its limiter
// map holds one entry per distinct key seen during that run.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate throttles callers to at most one call per configured interval, per
// caller key. A zero or negative interval disables the gate entirely.
// It is safe for concurrent use by multiple goroutines.
type Gate struct {
	interval time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewGate creates a gate enforcing the given minimum interval between calls
// sharing the same key. If interval is <= 0, Wait never blocks.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until at least the configured interval has elapsed since the
// previous Wait call with the same key, or until the context is cancelled.
// Only the limiter map lookup holds the lock; the wait itself does not.
func (g *Gate) Wait(ctx context.Context, key string) error {
	if g.interval <= 0 {
		return nil
	}
	return g.limiter(key).Wait(ctx)
}

func (g *Gate) limiter(key string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	limiter, ok := g.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(g.interval), 1)
		g.limiters[key] = limiter
	}
	return limiter
}
