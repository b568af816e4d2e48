// Package ratelimit implements fixed-window admission control for the
// gateway. Each limiter counts requests per client key in discrete,
// non-overlapping windows; a registry composes the global ceiling with the
// per-route limiters.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the configured ceiling for the window.
	Limit int

	// Remaining is how many requests remain in the current window.
	Remaining int

	// RetryAfter suggests how long to wait before retrying
	// (set only when Allowed is false).
	RetryAfter time.Duration
}

type counter struct {
	count       int
	windowStart time.Time
}

// FixedWindow is a per-key fixed-window request counter. Windows are lazily
// reset: the first admit after a window elapses starts a fresh window for
// that key. A burst straddling a window boundary can therefore admit up to
// twice the ceiling relative to a sliding window; that approximation is
// intentional and load-bearing for callers that tuned their ceilings to it.
type FixedWindow struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	counters map[string]*counter

	// now is swappable for tests.
	now func() time.Time

	lastSweep time.Time
}

// sweepEvery bounds how often Admit scans for stale keys.
const sweepEvery = 5 * time.Minute

// NewFixedWindow creates a limiter admitting at most max requests per key
// within each window.
func NewFixedWindow(window time.Duration, max int) *FixedWindow {
	return &FixedWindow{
		window:   window,
		max:      max,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Admit records one request for key and reports whether it is within the
// window ceiling. The window check and the increment happen under one lock
// so two racing requests can never both claim the last slot.
func (l *FixedWindow) Admit(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeSweep(now)

	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowStart) >= l.window {
		l.counters[key] = &counter{count: 1, windowStart: now}
		return Decision{Allowed: true, Limit: l.max, Remaining: l.max - 1}
	}

	c.count++
	if c.count > l.max {
		return Decision{
			Allowed:    false,
			Limit:      l.max,
			Remaining:  0,
			RetryAfter: c.windowStart.Add(l.window).Sub(now),
		}
	}
	return Decision{Allowed: true, Limit: l.max, Remaining: l.max - c.count}
}

// maybeSweep drops counters whose window elapsed, at most once per
// sweepEvery. Called with the lock held.
func (l *FixedWindow) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for k, c := range l.counters {
		if now.Sub(c.windowStart) >= l.window {
			delete(l.counters, k)
		}
	}
}

// Len reports how many keys currently hold a counter.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
