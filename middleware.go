package guard

import (
	"context"
	"sort"
)

// Middleware wraps an operation with additional behavior; each layer
// receives the next function in the chain and returns the wrapped version.
type Middleware[T any] func(next func(context.Context) (T, error)) func(context.Context) (T, error)

// Chain composes middlewares outermost-first: Chain(a, b, c) produces
// a(b(c(next))). An empty chain is the identity.
func Chain[T any](mws ...Middleware[T]) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}

		return next
	}
}

// patternEntry pairs a middleware with its fixed slot in the chain so
// callers can list options in any order.
type patternEntry[T any] struct {
	mw       Middleware[T]
	name     string
	priority int
}

// Chain slots, outermost first. Fallback wraps everything as the last
// resort; admission controls (breaker, rate limit, bulkhead) sit outside
// retry so rejected calls are not retried against a gate that just said no;
// hedge is innermost so a hedged pair counts as one call everywhere else.
const (
	slotFallback = iota
	slotStaleCache
	slotTimeout
	slotBreaker
	slotRateLimit
	slotBulkhead
	slotRetry
	slotHedge
)

// orderPatterns sorts entries into slot order, stably so duplicate slots
// keep their declaration order.
func orderPatterns[T any](entries []patternEntry[T]) []Middleware[T] {
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]patternEntry[T], len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	mws := make([]Middleware[T], 0, len(sorted))
	for _, e := range sorted {
		mws = append(mws, e.mw)
	}

	return mws
}
