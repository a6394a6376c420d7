package guard

import (
	"context"
	"time"
)

// hedgeOutcome carries one attempt's result plus which attempt produced it.
type hedgeOutcome[T any] struct {
	val     T
	err     error
	primary bool
}

// DoHedge runs op and, if it has not finished after delay, races a second
// concurrent attempt against it. The first success wins and the loser is
// cancelled; if both fail, the primary's error is returned. Hedging trades
// extra load for tail latency, so it belongs innermost in a chain: a
// hedged call must not double-count against breakers or rate limits.
func DoHedge[T any](
	ctx context.Context,
	delay time.Duration,
	op func(context.Context) (T, error),
	hooks *Hooks,
	clock Clock,
) (T, error) {
	var zero T

	if ctx.Err() != nil {
		return zero, ctx.Err()
	}

	// Room for both attempts so neither goroutine leaks on early return.
	outcomes := make(chan hedgeOutcome[T], 2)

	primaryCtx, cancelPrimary := context.WithCancel(ctx)
	defer cancelPrimary()

	go func() {
		v, err := op(primaryCtx)
		outcomes <- hedgeOutcome[T]{val: v, err: err, primary: true}
	}()

	timer := clock.NewTimer(delay)

	select {
	case out := <-outcomes:
		timer.Stop()
		return out.val, out.err

	case <-ctx.Done():
		timer.Stop()
		return zero, ctx.Err()

	case <-timer.C():
		// Primary is slow; launch the hedge and race.
	}

	hooks.emitHedge()

	hedgeCtx, cancelHedge := context.WithCancel(ctx)
	defer cancelHedge()

	go func() {
		v, err := op(hedgeCtx)
		outcomes <- hedgeOutcome[T]{val: v, err: err}
	}()

	var firstErr error

	for range 2 {
		select {
		case out := <-outcomes:
			if out.err == nil {
				if out.primary {
					cancelHedge()
				} else {
					cancelPrimary()
					hooks.emitHedgeWon()
				}

				return out.val, nil
			}

			if firstErr == nil {
				firstErr = out.err
			}

		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, firstErr
}
