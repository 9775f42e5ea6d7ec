// Package ratelimit provides a simple sliding window rate limiter keyed by
// session id.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a sliding window rate limiter. It tracks events per
// key and rejects events that exceed the limit within the window.
type Limiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
}

// New creates a new rate limiter allowing limit events per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow checks if an event should be allowed for the given key.
// Returns true if the event is allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.window)

	// Drop events that fell out of the window.
	times := l.events[key]
	valid := times[:0]
	for _, t := range times {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.limit {
		l.events[key] = valid
		return false
	}

	l.events[key] = append(valid, now)
	return true
}

// Forget drops all state for a key. Called when a session disconnects so
// the map does not grow with dead session ids.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, key)
}

// Keys returns the number of keys currently tracked.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
