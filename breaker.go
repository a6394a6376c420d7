package guard

import (
	"context"
	"sync"
	"time"
)

// BreakerState identifies the circuit breaker's position in its state
// machine.
type BreakerState int

const (
	// BreakerClosed lets calls through and counts consecutive failures.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen admits a single probe call to test recovery.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type breakerConfig struct {
	threshold int
	cooldown  time.Duration
}

// BreakerOption configures a [Breaker].
type BreakerOption func(*breakerConfig)

// Threshold sets the number of consecutive failures that trips the breaker
// open.
func Threshold(n int) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.threshold = n
	}
}

// Cooldown sets how long the breaker stays open after its most recent
// failure before admitting a probe.
func Cooldown(d time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.cooldown = d
	}
}

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		threshold: 5,
		cooldown:  30 * time.Second,
	}
}

// Breaker tracks the health of a dependency and fails fast while it is
// down. The open→half-open transition is evaluated lazily on the next call
// once the cooldown has elapsed; there is no background timer.
//
// In half-open exactly one probe is admitted: a probe-in-flight flag is
// flipped together with the state word, so concurrent callers racing the
// probe get ErrCircuitOpen instead of piling onto a dependency that may
// still be down. That coupling of flag, counter, and state is why the
// breaker is mutex-guarded rather than a bundle of independent atomics.
type Breaker struct {
	clock Clock
	hooks *Hooks
	cfg   breakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewBreaker creates a breaker. Defaults: 5 consecutive failures to open,
// 30s cooldown.
func NewBreaker(clock Clock, hooks *Hooks, opts ...BreakerOption) *Breaker {
	cfg := defaultBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if clock == nil {
		clock = RealClock{}
	}

	return &Breaker{
		clock: clock,
		hooks: hooks,
		cfg:   cfg,
	}
}

// Allow reports whether a call may proceed. It returns nil in the closed
// state, ErrCircuitOpen while open within the cooldown, and admits exactly
// one probe once the cooldown has elapsed. Every admitted call must be
// matched by RecordSuccess or RecordFailure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil

	case BreakerOpen:
		if b.clock.Since(b.lastFailure) < b.cfg.cooldown {
			return ErrCircuitOpen
		}

		// Cooldown elapsed: become half-open and claim the probe slot
		// in the same critical section.
		b.state = BreakerHalfOpen
		b.probing = true
		b.hooks.emitBreakerProbe()

		return nil

	default: // BreakerHalfOpen
		if b.probing {
			// A probe is already in flight; short-circuit.
			return ErrCircuitOpen
		}

		b.probing = true
		b.hooks.emitBreakerProbe()

		return nil
	}
}

// RecordSuccess records a successful call. A successful probe closes the
// breaker and resets the failure counter; success in the closed state
// resets the counter as well.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures = 0

	case BreakerHalfOpen:
		b.state = BreakerClosed
		b.failures = 0
		b.probing = false
		b.hooks.emitBreakerClose()

	default: // BreakerOpen: stale outcome from before the trip
	}
}

// RecordFailure records a failed call. In the closed state it counts toward
// the threshold; a failed probe reopens the breaker with a fresh cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.clock.Now()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.cfg.threshold {
			b.state = BreakerOpen
			b.hooks.emitBreakerOpen()
		}

	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.probing = false
		b.hooks.emitBreakerOpen()

	default: // BreakerOpen: cooldown window restarts from lastFailure
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Do runs op through the breaker: admission check, invocation, outcome
// recording. The operation's own error is surfaced unchanged; a rejection
// returns ErrCircuitOpen without invoking op.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	if err := op(ctx); err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()

	return nil
}
