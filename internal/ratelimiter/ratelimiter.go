package ratelimiter

import (
	"sync"
	"time"
)

const sweepEvery = 1024

// RateLimiter enforces a minimum interval between summarize calls from the
// same client. A nil RateLimiter allows everything.
type RateLimiter struct {
	interval time.Duration
	lastSent map[string]time.Time
	calls    int
	mu       sync.Mutex
	now      func() time.Time
}

// New returns nil when interval is not positive.
func New(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return nil
	}

	return &RateLimiter{
		interval: interval,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow records a call for key. When the call comes too early it is not
// recorded and the remaining delay is returned.
func (rl *RateLimiter) Allow(key string) (time.Duration, bool) {
	if rl == nil {
		return 0, true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	rl.calls++
	if rl.calls%sweepEvery == 0 {
		rl.sweepLocked(now)
	}

	if lastSent, exists := rl.lastSent[key]; exists {
		if delay := getDelay(rl.interval, now.Sub(lastSent)); delay > 0 {
			return delay, false
		}
	}

	rl.lastSent[key] = now

	return 0, true
}

func (rl *RateLimiter) Len() int {
	if rl == nil {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.lastSent)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, lastSent := range rl.lastSent {
		if now.Sub(lastSent) >= rl.interval {
			delete(rl.lastSent, key)
		}
	}
}

func getDelay(interval time.Duration, elapsed time.Duration) time.Duration {
	return max(interval-elapsed, 0)
}
