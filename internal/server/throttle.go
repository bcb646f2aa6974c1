package server

import (
	"sync"
	"time"
)

// throttle spaces out expensive operations. A zero interval never throttles.
type throttle struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func newThrottle(interval time.Duration) *throttle {
	if interval < 0 {
		interval = 0
	}
	return &throttle{interval: interval}
}

// Allow reports whether the operation may run now. When it may not, wait is
// the time left until the next slot.
func (t *throttle) Allow(now time.Time) (ok bool, wait time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextAllowedAt.After(now) {
		return false, t.nextAllowedAt.Sub(now)
	}
	t.nextAllowedAt = now.Add(t.interval)
	return true, 0
}
