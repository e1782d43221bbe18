package identity

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-e-mail token bucket for sign-in attempts. A nil
// Throttle allows everything.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	r        rate.Limit
	burst    int
	now      func() time.Time
}

// NewThrottle allows perMinute attempts per e-mail with an equal burst.
// A non-positive perMinute disables throttling.
func NewThrottle(perMinute int) *Throttle {
	if perMinute <= 0 {
		return nil
	}
	return &Throttle{
		limiters: make(map[string]*keyLimiter),
		r:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

func (t *Throttle) Allow(key string) bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sweep(now)
	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(t.r, t.burst)}
		t.limiters[key] = kl
	}
	kl.lastSeen = now
	return kl.limiter.AllowN(now, 1)
}

// sweep drops idle entries. Caller holds mu.
func (t *Throttle) sweep(now time.Time) {
	for k, v := range t.limiters {
		if now.Sub(v.lastSeen) > 10*time.Minute {
			delete(t.limiters, k)
		}
	}
}
