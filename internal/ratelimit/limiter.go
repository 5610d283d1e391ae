package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces the two dispatch guarantees: never more than one request
// in flight per pipeline instance, and a minimum cooldown between grants even
// when each request completes quickly.
type Limiter struct {
	mu            sync.Mutex
	cooldown      time.Duration
	inFlight      bool
	lastRequestAt time.Time // zero until the first grant
}

// New creates a limiter with the given cooldown between grants
func New(cooldown time.Duration) *Limiter {
	return &Limiter{cooldown: cooldown}
}

// TryAcquire attempts to reserve the single request slot. Denied while a
// request is in flight or while the cooldown since the last grant has not
// elapsed. On grant the caller must eventually call Release, on success and
// failure alike.
func (l *Limiter) TryAcquire(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight {
		return false
	}
	if !l.lastRequestAt.IsZero() && now.Sub(l.lastRequestAt) < l.cooldown {
		return false
	}

	l.inFlight = true
	l.lastRequestAt = now
	return true
}

// TryAcquireIgnoringCooldown reserves the slot if no request is in flight,
// regardless of the cooldown. Used when a superseding request is allowed to
// follow the previous one immediately.
func (l *Limiter) TryAcquireIgnoringCooldown(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight {
		return false
	}
	l.inFlight = true
	l.lastRequestAt = now
	return true
}

// Release clears the in-flight reservation. The last grant time is left
// untouched so the cooldown still spaces out the next request.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false
}

// InFlight reports whether a request currently holds the slot
func (l *Limiter) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}
