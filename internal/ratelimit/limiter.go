// Package ratelimit throttles the auth endpoints. Login and callback are the
// site's brute-force surface; everything else rides behind session cookies
// and does not need it.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is a limit decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter answers whether key may proceed. Implementations use fixed
// windows; precision beyond that is not worth the bookkeeping here.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a per-process fixed-window limiter.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	per       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemory builds a limiter allowing limit requests per key per window.
func NewMemory(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		per:     per,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.per {
		w = &window{start: now}
		l.windows[key] = w
	}

	if w.count >= l.limit {
		return Result{
			Allowed:    false,
			RetryAfter: l.per - now.Sub(w.start),
		}, nil
	}
	w.count++
	return Result{Allowed: true, Remaining: l.limit - w.count}, nil
}

// sweep drops expired windows so the map stays bounded by the set of keys
// seen in the current window, not the process lifetime. Runs at most once
// per window. Caller holds l.mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.per {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.per {
			delete(l.windows, key)
		}
	}
}
