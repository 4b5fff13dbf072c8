package utils

import (
	"math/rand"
	"time"
)

// CalculateExponentialBackoffWithJitter computes a jittered exponential backoff delay.
// - attempt: consecutive failure count (1-based); 0 or less yields no delay
// - base: delay for the first attempt
// - max: cap for the returned delay
// The jitter spreads the delay by -12.5%..+12.5% so replicas don't poll in lockstep.
func CalculateExponentialBackoffWithJitter(attempt int, base time.Duration, max time.Duration) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}

	delay := base
	for i := 1; i < attempt && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		delay = max
	}

	if spread := int64(delay / 4); spread > 0 {
		delay += time.Duration(rand.Int63n(spread)) - delay/8
	}
	if delay > max {
		delay = max
	}
	return delay
}
