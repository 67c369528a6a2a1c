// ABOUTME: Fixed-window request rate limiter keyed by owner identity
// ABOUTME: Check-then-increment is a single atomic step under one mutex

package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// LimitError is returned when an owner has exhausted the current window.
// It carries the configured limit and window for a caller-facing message.
type LimitError struct {
	Limit  int
	Window time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %d seconds", e.Limit, int(e.Window.Seconds()))
}

// windowCount tracks an owner's request count within one fixed window.
type windowCount struct {
	window int64
	count  int
}

// Limiter is a fixed-window rate limiter. Time is bucketed into
// non-overlapping windows of fixed length; each (owner, window) pair gets
// its own counter. Only the current window per owner is retained: when an
// owner's window goes stale its entry is reset in place, so state is
// bounded at one entry per distinct owner.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount
}

// New creates a limiter allowing limit requests per owner per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
	}
}

// Allow checks and increments the owner's counter for the window containing
// now. If the counter has reached the limit it returns a *LimitError and
// does not increment, so rejected requests never consume a slot. The
// check-then-increment sequence is atomic: two concurrent callers cannot
// both observe the last free slot.
func (l *Limiter) Allow(owner string, now time.Time) error {
	// Nanosecond arithmetic keeps sub-second windows working.
	window := now.UnixNano() / l.window.Nanoseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	wc, ok := l.counts[owner]
	if !ok || wc.window != window {
		l.counts[owner] = &windowCount{window: window, count: 1}
		return nil
	}

	if wc.count >= l.limit {
		return &LimitError{Limit: l.limit, Window: l.window}
	}

	wc.count++
	return nil
}

// Limit returns the configured per-window request limit.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }
