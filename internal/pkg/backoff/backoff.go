// Package backoff provides exponential-backoff-with-jitter delay
// calculation for transient-failure retry loops (connector pulls, LLM
// calls, rate-limited phases).
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy configures the delay curve for a retry loop.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy matches the scheduler's default rate-limit backoff
// (30s base, 600s cap; see config.SchedulerConfig).
var DefaultPolicy = Policy{BaseDelay: 30 * time.Second, MaxDelay: 600 * time.Second}

// Delay returns the backoff duration for the given retry attempt (1-indexed)
// using exponential backoff with full jitter:
// random(0, min(maxDelay, baseDelay * 2^(attempt-1))), floored at 100ms.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	expDelay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if expDelay > float64(p.MaxDelay) {
		expDelay = float64(p.MaxDelay)
	}

	jittered := time.Duration(rand.Float64() * expDelay)
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}
	return jittered
}
