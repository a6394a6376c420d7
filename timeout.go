package guard

import (
	"context"
	"time"
)

// DoTimeout runs op under a deadline of d. If the deadline passes first,
// ErrTimeout is returned and the operation's context is cancelled; the
// operation keeps running in its goroutine until it observes the
// cancellation. Parent-context cancellation is surfaced as ctx.Err() rather
// than ErrTimeout so callers can tell the two apart.
func DoTimeout[T any](
	ctx context.Context,
	d time.Duration,
	op func(context.Context) (T, error),
	hooks *Hooks,
) (T, error) {
	var zero T

	if ctx.Err() != nil {
		return zero, ctx.Err()
	}

	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		val T
		err error
	}

	// Buffered so the operation goroutine can always exit, even after a
	// timeout has already been returned.
	done := make(chan outcome, 1)

	go func() {
		v, err := op(opCtx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		return out.val, out.err

	case <-opCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		hooks.emitTimeout()

		return zero, ErrTimeout
	}
}
