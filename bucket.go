package guard

import (
	"context"
	"sync/atomic"
	"time"
)

// tokenScale is the fixed-point factor for token accounting. One token is
// 1e9 units, so refill resolution is one nanosecond of elapsed time rather
// than whole seconds.
const tokenScale int64 = 1_000_000_000

// TokenBucket is an admission controller: capacity tokens at most, refilled
// continuously at rate tokens per second, one token spent per admitted call.
//
// Refill is lazy, driven by the clock at acquisition time, and both refill
// and spend run as compare-and-swap loops so no token is lost or
// double-spent under concurrent access. The count never goes negative and
// never exceeds capacity.
type TokenBucket struct {
	capacity int64 // fixed-point
	rate     float64
	clock    Clock
	hooks    *Hooks

	tokens     atomic.Int64 // fixed-point
	refillMark atomic.Int64 // unix nanos of the last refill window claim
}

// NewTokenBucket creates a full bucket holding capacity tokens, refilled at
// rate tokens per second.
func NewTokenBucket(capacity int, rate float64, clock Clock, hooks *Hooks) *TokenBucket {
	if clock == nil {
		clock = RealClock{}
	}

	tb := &TokenBucket{
		capacity: int64(capacity) * tokenScale,
		rate:     rate,
		clock:    clock,
		hooks:    hooks,
	}

	tb.tokens.Store(tb.capacity)
	tb.refillMark.Store(clock.Now().UnixNano())

	return tb
}

// refill credits elapsed * rate tokens, capped at capacity. The elapsed
// window is claimed by a CAS on the refill mark first, so two goroutines
// never credit the same interval twice.
func (tb *TokenBucket) refill() {
	for {
		mark := tb.refillMark.Load()
		now := tb.clock.Now().UnixNano()

		elapsed := now - mark
		if elapsed <= 0 {
			return
		}

		if !tb.refillMark.CompareAndSwap(mark, now) {
			// Lost the window to another goroutine; re-read and see
			// whether any time is still unclaimed.
			continue
		}

		// rate is tokens/sec and elapsed is nanos, so the product is
		// already in fixed-point units.
		credit := int64(float64(elapsed) * tb.rate)
		if credit <= 0 {
			return
		}

		for {
			cur := tb.tokens.Load()

			next := cur + credit
			if next > tb.capacity {
				next = tb.capacity
			}

			if tb.tokens.CompareAndSwap(cur, next) {
				return
			}
		}
	}
}

// TryAcquire takes one token if available, reporting whether it did. It
// never blocks.
func (tb *TokenBucket) TryAcquire() bool {
	tb.refill()

	for {
		cur := tb.tokens.Load()
		if cur < tokenScale {
			tb.hooks.emitRateLimited()
			return false
		}

		if tb.tokens.CompareAndSwap(cur, cur-tokenScale) {
			return true
		}
	}
}

// Wait blocks the calling goroutine until a token is acquired or ctx ends.
// The wait is sized from the current deficit rather than polled on a fixed
// interval; other callers are never blocked by a waiter.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.refill()

		for {
			cur := tb.tokens.Load()
			if cur < tokenScale {
				break
			}

			if tb.tokens.CompareAndSwap(cur, cur-tokenScale) {
				return nil
			}
		}

		if err := sleep(ctx, tb.clock, tb.nextTokenIn()); err != nil {
			return err
		}
	}
}

// nextTokenIn estimates how long until a full token is available at the
// current fill level.
func (tb *TokenBucket) nextTokenIn() time.Duration {
	if tb.rate <= 0 {
		return time.Millisecond
	}

	deficit := tokenScale - tb.tokens.Load()
	if deficit <= 0 {
		return 0
	}

	d := time.Duration(float64(deficit) / tb.rate)
	if d < time.Millisecond {
		d = time.Millisecond
	}

	return d
}

// Tokens returns the current token count after a refill, as a fraction.
func (tb *TokenBucket) Tokens() float64 {
	tb.refill()

	return float64(tb.tokens.Load()) / float64(tokenScale)
}

// Empty reports whether no whole token is currently available.
func (tb *TokenBucket) Empty() bool {
	tb.refill()

	return tb.tokens.Load() < tokenScale
}
