package guard

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt. Implementations
// must be safe for concurrent use; the built-in strategies are stateless.
type BackoffStrategy interface {
	// Delay returns the wait before retry number attempt (0-indexed:
	// attempt 0 is the delay before the first retry).
	Delay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function into a [BackoffStrategy].
type BackoffFunc func(attempt int) time.Duration

// Delay calls the underlying function.
func (f BackoffFunc) Delay(attempt int) time.Duration { return f(attempt) }

// ConstantBackoff waits the same d before every retry.
func ConstantBackoff(d time.Duration) BackoffStrategy {
	return BackoffFunc(func(int) time.Duration { return d })
}

// LinearBackoff grows the wait linearly: step * (attempt + 1).
func LinearBackoff(step time.Duration) BackoffStrategy {
	return BackoffFunc(func(attempt int) time.Duration {
		return step * time.Duration(attempt+1)
	})
}

// ExponentialBackoff grows the wait geometrically:
// initial * multiplier^attempt. A multiplier below 1 is treated as the
// conventional doubling schedule.
func ExponentialBackoff(initial time.Duration, multiplier float64) BackoffStrategy {
	if multiplier < 1 {
		multiplier = 2
	}

	return BackoffFunc(func(attempt int) time.Duration {
		d := float64(initial) * math.Pow(multiplier, float64(attempt))
		if d > float64(math.MaxInt64) {
			return math.MaxInt64
		}

		return time.Duration(d)
	})
}

// ExponentialJitterBackoff picks a uniformly random wait in
// [0, initial * 2^attempt]. Full-range jitter spreads synchronized retry
// storms across time at the cost of occasionally retrying immediately.
func ExponentialJitterBackoff(initial time.Duration) BackoffStrategy {
	exp := ExponentialBackoff(initial, 2)

	return BackoffFunc(func(attempt int) time.Duration {
		ceil := int64(exp.Delay(attempt))
		if ceil <= 0 {
			return 0
		}

		return time.Duration(rand.Int64N(ceil + 1))
	})
}

// halfJitter perturbs d uniformly within [d/2, d], keeping the jittered
// schedule bounded below by half the deterministic one.
func halfJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}

	half := int64(d) / 2

	return time.Duration(half + rand.Int64N(int64(d)-half+1))
}
