package guard

import (
	"context"
	"time"
)

// Guard composes reliability patterns around a single kind of operation:
// timeout, circuit breaker, rate limit, bulkhead, retry, hedge, stale
// cache, and fallback, chained behind one Do method. Construct it once at
// startup with [New] and share it; all composed state is safe for
// concurrent use.
//
// Options are plain values of type any because pattern options carrying the
// result type (WithFallback) could not otherwise mix with untyped ones in a
// single variadic list.
type Guard[T any] struct {
	name  string
	clock Clock
	hooks *Hooks
	chain Middleware[T]

	// Stateful patterns, retained for health reporting.
	breaker  *Breaker
	bucket   *TokenBucket
	bulkhead *Bulkhead

	deps     []HealthReporter
	registry *Registry
}

// Name returns the guard's name.
func (g *Guard[T]) Name() string { return g.name }

// Do executes op through the composed chain.
func (g *Guard[T]) Do(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return g.chain(op)(ctx)
}

// Breaker returns the composed circuit breaker, or nil when none was
// configured.
func (g *Guard[T]) Breaker() *Breaker { return g.breaker }

// ---------------------------------------------------------------------------
// Option descriptors
// ---------------------------------------------------------------------------

// setupFunc mutates the non-pattern setup (clock, hooks, registry).
type setupFunc func(*guardSetup)

type guardSetup struct {
	clock    Clock
	hooks    *Hooks
	registry *Registry
}

type (
	timeoutDesc   struct{ d time.Duration }
	breakerDesc   struct{ opts []BreakerOption }
	rateLimitDesc struct {
		capacity int
		rate     float64
		blocking bool
	}
	bulkheadDesc   struct{ limit int }
	retryDesc      struct{ opts []RetryOption }
	hedgeDesc      struct{ delay time.Duration }
	staleDesc      struct{ ttl time.Duration }
	fallbackDesc   struct{ val any }
	fallbackFnDesc struct{ fn any } // func(error) (T, error)
	dependsDesc    struct{ reporters []HealthReporter }
)

// WithClock sets the clock shared by every composed pattern.
func WithClock(c Clock) any {
	return setupFunc(func(s *guardSetup) { s.clock = c })
}

// WithHooks sets the lifecycle hooks shared by every composed pattern.
func WithHooks(h *Hooks) any {
	return setupFunc(func(s *guardSetup) { s.hooks = h })
}

// WithRegistry registers the guard with an explicit registry instead of the
// default one.
func WithRegistry(reg *Registry) any {
	return setupFunc(func(s *guardSetup) { s.registry = reg })
}

// WithTimeout cancels calls that run longer than d.
func WithTimeout(d time.Duration) any {
	return timeoutDesc{d: d}
}

// WithBreaker adds a circuit breaker.
func WithBreaker(opts ...BreakerOption) any {
	return breakerDesc{opts: opts}
}

// WithRateLimit adds a token bucket of the given capacity refilled at rate
// tokens per second; calls without a token are rejected with
// ErrRateLimited.
func WithRateLimit(capacity int, rate float64) any {
	return rateLimitDesc{capacity: capacity, rate: rate}
}

// WithBlockingRateLimit is WithRateLimit but callers wait for a token
// instead of being rejected.
func WithBlockingRateLimit(capacity int, rate float64) any {
	return rateLimitDesc{capacity: capacity, rate: rate, blocking: true}
}

// WithBulkhead caps concurrent calls at limit.
func WithBulkhead(limit int) any {
	return bulkheadDesc{limit: limit}
}

// WithRetry adds a retry policy configured by opts.
func WithRetry(opts ...RetryOption) any {
	return retryDesc{opts: opts}
}

// WithHedge races a second attempt if the first has not finished after
// delay.
func WithHedge(delay time.Duration) any {
	return hedgeDesc{delay: delay}
}

// WithStaleCache serves the last successful value (at most ttl old) when
// the call fails.
func WithStaleCache(ttl time.Duration) any {
	return staleDesc{ttl: ttl}
}

// WithFallback returns val when the call fails. T must match the guard's
// type parameter.
func WithFallback[T any](val T) any {
	return fallbackDesc{val: val}
}

// WithFallbackFunc delegates to fn when the call fails. fn must be a
// func(error) (T, error) for the guard's type parameter.
func WithFallbackFunc[T any](fn func(error) (T, error)) any {
	return fallbackFnDesc{fn: fn}
}

// DependsOn declares other guards whose health feeds into this one's
// status.
func DependsOn(reporters ...HealthReporter) any {
	return dependsDesc{reporters: reporters}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// New creates a guard. Setup options (clock, hooks, registry) are resolved
// first so every pattern sees them; pattern descriptors are then built into
// middleware and chained in slot order regardless of argument order. A
// named guard registers itself for readiness reporting; an empty name stays
// anonymous.
func New[T any](name string, opts ...any) *Guard[T] {
	var setup guardSetup

	for _, opt := range opts {
		if sf, ok := opt.(setupFunc); ok {
			sf(&setup)
		}
	}

	if setup.clock == nil {
		setup.clock = RealClock{}
	}

	clock := setup.clock
	hooks := setup.hooks

	g := &Guard[T]{
		name:  name,
		clock: clock,
		hooks: hooks,
	}

	var entries []patternEntry[T]

	for _, opt := range opts {
		switch desc := opt.(type) {
		case setupFunc:
			// Resolved above.

		case timeoutDesc:
			d := desc.d
			entries = append(entries, patternEntry[T]{
				priority: slotTimeout,
				name:     "timeout",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoTimeout(ctx, d, next, hooks)
					}
				},
			})

		case breakerDesc:
			br := NewBreaker(clock, hooks, desc.opts...)
			g.breaker = br
			entries = append(entries, patternEntry[T]{
				priority: slotBreaker,
				name:     "breaker",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						if err := br.Allow(); err != nil {
							var zero T
							return zero, err
						}

						val, err := next(ctx)
						if err != nil {
							br.RecordFailure()
						} else {
							br.RecordSuccess()
						}

						return val, err
					}
				},
			})

		case rateLimitDesc:
			tb := NewTokenBucket(desc.capacity, desc.rate, clock, hooks)
			g.bucket = tb
			blocking := desc.blocking
			entries = append(entries, patternEntry[T]{
				priority: slotRateLimit,
				name:     "rate_limit",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						var zero T

						if blocking {
							if err := tb.Wait(ctx); err != nil {
								return zero, err
							}
						} else if !tb.TryAcquire() {
							return zero, ErrRateLimited
						}

						return next(ctx)
					}
				},
			})

		case bulkheadDesc:
			bh := NewBulkhead(desc.limit, hooks)
			g.bulkhead = bh
			entries = append(entries, patternEntry[T]{
				priority: slotBulkhead,
				name:     "bulkhead",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						if err := bh.Acquire(); err != nil {
							var zero T
							return zero, err
						}
						defer bh.Release()

						return next(ctx)
					}
				},
			})

		case retryDesc:
			rp := NewRetryPolicy(clock, hooks, desc.opts...)
			entries = append(entries, patternEntry[T]{
				priority: slotRetry,
				name:     "retry",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return Retry(ctx, rp, next)
					}
				},
			})

		case hedgeDesc:
			delay := desc.delay
			entries = append(entries, patternEntry[T]{
				priority: slotHedge,
				name:     "hedge",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoHedge(ctx, delay, next, hooks, clock)
					}
				},
			})

		case staleDesc:
			sc := NewMemoryStaleCache[struct{}, T](desc.ttl, clock, hooks)
			entries = append(entries, patternEntry[T]{
				priority: slotStaleCache,
				name:     "stale_cache",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return sc.Do(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (T, error) {
							return next(ctx)
						})
					}
				},
			})

		case fallbackDesc:
			val := desc.val.(T)
			entries = append(entries, patternEntry[T]{
				priority: slotFallback,
				name:     "fallback",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoFallback(ctx, next, val, hooks)
					}
				},
			})

		case fallbackFnDesc:
			fn := desc.fn.(func(error) (T, error))
			entries = append(entries, patternEntry[T]{
				priority: slotFallback,
				name:     "fallback_func",
				mw: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoFallbackFunc(ctx, next, fn, hooks)
					}
				},
			})

		case dependsDesc:
			g.deps = append(g.deps, desc.reporters...)
		}
	}

	g.chain = Chain(orderPatterns(entries)...)

	if name != "" {
		reg := setup.registry
		if reg == nil {
			reg = DefaultRegistry()
		}

		g.registry = reg
		reg.Register(g)
	}

	return g
}
