package guard

import (
	"context"
	"fmt"
	"time"
)

// retryConfig holds the immutable parameters of a [RetryPolicy].
type retryConfig struct {
	maxRetries        int
	initialDelay      time.Duration
	maxDelay          time.Duration
	multiplier        float64
	jitter            bool
	strategy          BackoffStrategy  // overrides the exponential schedule
	retryIf           func(error) bool // extra predicate on top of Permanent
	perAttemptTimeout time.Duration    // 0 means none
}

// RetryOption configures a [RetryPolicy].
type RetryOption func(*retryConfig)

// MaxRetries sets how many retries follow the initial attempt, so the
// operation runs at most n+1 times.
func MaxRetries(n int) RetryOption {
	return func(cfg *retryConfig) {
		cfg.maxRetries = n
	}
}

// InitialDelay sets the delay before the first retry.
func InitialDelay(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.initialDelay = d
	}
}

// MaxDelay caps every computed backoff delay.
func MaxDelay(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.maxDelay = d
	}
}

// Multiplier sets the geometric growth factor of the default exponential
// schedule.
func Multiplier(m float64) RetryOption {
	return func(cfg *retryConfig) {
		cfg.multiplier = m
	}
}

// WithJitter perturbs each delay uniformly within [d/2, d] to avoid
// synchronized retry storms.
func WithJitter() RetryOption {
	return func(cfg *retryConfig) {
		cfg.jitter = true
	}
}

// WithStrategy replaces the default exponential schedule with a custom
// [BackoffStrategy]. MaxDelay and WithJitter still apply on top.
func WithStrategy(s BackoffStrategy) RetryOption {
	return func(cfg *retryConfig) {
		cfg.strategy = s
	}
}

// RetryIf adds a predicate deciding whether an error is worth retrying,
// evaluated after the Permanent classification. Returning false stops the
// loop and surfaces the error unchanged.
func RetryIf(fn func(error) bool) RetryOption {
	return func(cfg *retryConfig) {
		cfg.retryIf = fn
	}
}

// PerAttemptTimeout bounds each individual attempt with its own deadline.
func PerAttemptTimeout(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.perAttemptTimeout = d
	}
}

// RetryPolicy wraps fallible operations with bounded backoff retries. The
// policy itself is immutable after construction and holds no per-call
// state, so one instance is safely shared by any number of goroutines.
type RetryPolicy struct {
	clock Clock
	hooks *Hooks
	cfg   retryConfig
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:   2,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2,
	}
}

// NewRetryPolicy creates a retry policy. The defaults are two retries,
// 100ms initial delay doubling each attempt, capped at 30s, no jitter.
func NewRetryPolicy(clock Clock, hooks *Hooks, opts ...RetryOption) *RetryPolicy {
	cfg := defaultRetryConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if clock == nil {
		clock = RealClock{}
	}

	return &RetryPolicy{
		clock: clock,
		hooks: hooks,
		cfg:   cfg,
	}
}

// delay computes the backoff before retry number attempt (0-indexed),
// already capped and jittered. Without jitter the sequence is
// non-decreasing and bounded by maxDelay.
func (p *RetryPolicy) delay(attempt int) time.Duration {
	var d time.Duration
	if p.cfg.strategy != nil {
		d = p.cfg.strategy.Delay(attempt)
	} else {
		d = ExponentialBackoff(p.cfg.initialDelay, p.cfg.multiplier).Delay(attempt)
	}

	if p.cfg.maxDelay > 0 && d > p.cfg.maxDelay {
		d = p.cfg.maxDelay
	}

	if p.cfg.jitter {
		d = halfJitter(d)
	}

	return d
}

// Execute runs op under the policy, discarding any result value. See
// [Retry] for the value-returning form.
func (p *RetryPolicy) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// Retry invokes op under the policy until it succeeds, fails terminally, or
// the attempt budget runs out. op is called freshly for every attempt, since
// operations may not be replayable mid-flight. Waits between attempts
// suspend only the calling goroutine and abort on ctx cancellation.
//
// Terminal conditions surface the causing error unchanged: a Permanent
// classification, a RetryIf predicate returning false, or ctx ending.
// Exhaustion returns ErrRetriesExhausted wrapping the last error.
func Retry[T any](ctx context.Context, p *RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	attempts := p.cfg.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := range attempts {
		result, err := runAttempt(ctx, p, op)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}

		if p.cfg.retryIf != nil && !p.cfg.retryIf(err) {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		d := p.delay(attempt)
		p.hooks.emitRetry(attempt+1, d, err)

		if sleepErr := sleep(ctx, p.clock, d); sleepErr != nil {
			return zero, sleepErr
		}
	}

	return zero, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// runAttempt runs a single invocation, applying the per-attempt deadline
// when configured.
func runAttempt[T any](ctx context.Context, p *RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	if p.cfg.perAttemptTimeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.perAttemptTimeout)
	defer cancel()

	return op(attemptCtx)
}
