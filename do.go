package guard

import "context"

// Do wraps a single call with reliability patterns without keeping a named
// [Guard] around. The anonymous guard is built, used once, and never
// registered. Prefer a long-lived Guard when the breaker or bucket state
// should persist across calls.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts ...any) (T, error) {
	return New[T]("", opts...).Do(ctx, op)
}
