package services

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between calls to an upstream
// service. A single limiter is shared by all requests to one provider;
// the mutex is held across the sleep so concurrent callers are serialized
// and each observes the full spacing from the previous call.
type RateLimiter struct {
	mu        sync.Mutex
	lastCall  time.Time
	callCount int

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// WaitIfNeeded blocks until at least minInterval has elapsed since the
// previous call, then records the call. The first call never waits.
// It returns the duration actually slept.
func (r *RateLimiter) WaitIfNeeded(minInterval time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var waited time.Duration
	if minInterval > 0 && !r.lastCall.IsZero() {
		elapsed := r.now().Sub(r.lastCall)
		if elapsed < minInterval {
			waited = minInterval - elapsed
			r.sleep(waited)
		}
	}

	r.lastCall = r.now()
	r.callCount++
	return waited
}

// CallCount returns the number of calls recorded so far.
func (r *RateLimiter) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callCount
}
