// Package ratelimit provides a fixed-window request limiter used to keep
// upstream vision API usage within quota.
package ratelimit

import (
	"sync"
	"time"
)

// TimeSource supplies the current time. Tests substitute a fake clock.
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Limiter allows at most maxRequests per window. The window is fixed: it
// starts on the first request and resets once the full duration has passed.
type Limiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxRequests int
	windowStart time.Time
	count       int
	clock       TimeSource
}

// New creates a Limiter backed by the system clock.
func New(maxRequests int, window time.Duration) *Limiter {
	return NewWithClock(maxRequests, window, systemTime{})
}

// NewWithClock creates a Limiter with an explicit time source.
func NewWithClock(maxRequests int, window time.Duration, clock TimeSource) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		window:      window,
		maxRequests: maxRequests,
		clock:       clock,
	}
}

// Allow reports whether another request fits in the current window. When it
// does not, the second return value is how long to wait before the window
// resets.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) > l.window {
		l.windowStart = now
		l.count = 0
	}

	if l.count >= l.maxRequests {
		return false, l.window - now.Sub(l.windowStart)
	}

	l.count++
	return true, 0
}
