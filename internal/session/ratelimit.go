package session

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window counter per client key, evaluated
// before session creation. In-memory only, like the rest of the store.
type RateLimiter struct {
	mu     sync.Mutex
	window map[string][]time.Time
	max    int
	span   time.Duration
	now    func() time.Time
}

// NewRateLimiter allows max events per span for each key.
func NewRateLimiter(max int, span time.Duration, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		window: make(map[string][]time.Time),
		max:    max,
		span:   span,
		now:    now,
	}
}

// Allow records an event for key and reports whether it fits the budget.
func (r *RateLimiter) Allow(key string) bool {
	now := r.now()
	cutoff := now.Add(-r.span)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.window[key][:0]
	for _, t := range r.window[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.max {
		r.window[key] = kept
		return false
	}
	r.window[key] = append(kept, now)
	return true
}

// Sweep drops keys whose recorded events have all left the window, so a
// long-lived process does not retain one entry per client forever.
func (r *RateLimiter) Sweep() {
	cutoff := r.now().Add(-r.span)

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, times := range r.window {
		live := false
		for _, t := range times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(r.window, key)
		}
	}
}
