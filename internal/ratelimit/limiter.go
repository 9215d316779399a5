// Package ratelimit provides a sliding-window request-admission guard keyed
// by caller identity.
package ratelimit

import (
	"sync"
	"time"
)

// Default admission policies, in requests per DefaultWindow.
const (
	// DefaultLimit applies to general endpoints.
	DefaultLimit = 10
	// AuthLimit applies to registration and login.
	AuthLimit = 5
	// DealsLimit applies to deal fetching, which triggers paid external
	// calls.
	DealsLimit = 5
	// StatusLimit is the fixed baseline the status endpoint reports
	// against. It is a separate view over the same timestamps, not the
	// per-route budget.
	StatusLimit = 20
	// DefaultWindow is the trailing window every policy counts within.
	DefaultWindow = 60 * time.Second
)

// Result reports an admission decision plus the metadata callers surface in
// 429 responses and X-RateLimit headers. ResetIn is in whole seconds.
type Result struct {
	Allowed   bool `json:"-"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	ResetIn   int  `json:"reset_in"`
}

// Limiter is a sliding-window counter per identifier. One mutex serializes
// prune-then-decide-then-record so concurrent requests for the same
// identifier cannot overcommit the budget.
type Limiter struct {
	clockNow func() time.Time
	requests map[string][]time.Time
	mu       sync.Mutex
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		clockNow: time.Now,
		requests: make(map[string][]time.Time),
	}
}

// Check prunes timestamps older than window for the identifier, then admits
// iff the surviving count is below limit. Only admitted calls are recorded:
// denied probing must not extend the penalty window.
func (l *Limiter) Check(identifier string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clockNow()
	kept := l.prune(identifier, now, window)

	if len(kept) >= limit {
		return Result{
			Allowed:   false,
			Remaining: 0,
			Limit:     limit,
			ResetIn:   resetIn(kept, now, window),
		}
	}

	l.requests[identifier] = append(kept, now)

	return Result{
		Allowed:   true,
		Remaining: limit - len(kept) - 1,
		Limit:     limit,
		ResetIn:   int(window.Seconds()),
	}
}

// Status reports the identifier's standing against a fixed baseline without
// consuming budget. Callers must not assume this is the same counter a route
// admission ran against.
func (l *Limiter) Status(identifier string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clockNow()
	kept := l.prune(identifier, now, window)

	remaining := limit - len(kept)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Limit:     limit,
		ResetIn:   resetIn(kept, now, window),
	}
}

// prune drops timestamps that have aged out of the window and stores the
// survivors. Callers must hold the mutex.
func (l *Limiter) prune(identifier string, now time.Time, window time.Duration) []time.Time {
	recorded := l.requests[identifier]
	kept := recorded[:0]
	for _, ts := range recorded {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	l.requests[identifier] = kept
	return kept
}

// resetIn computes seconds until the oldest surviving timestamp ages out.
func resetIn(kept []time.Time, now time.Time, window time.Duration) int {
	if len(kept) == 0 {
		return int(window.Seconds())
	}
	return int(window.Seconds()) - int(now.Sub(kept[0]).Seconds())
}
