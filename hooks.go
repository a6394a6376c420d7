package guard

import "time"

// Hooks carries optional callbacks for lifecycle events emitted by the
// reliability primitives. All fields are nil by default; set only the ones
// you care about. A Hooks value must not be mutated after it is handed to a
// primitive; the emit methods read the fields without synchronisation.
//
// A nil *Hooks is valid everywhere a *Hooks is accepted.
type Hooks struct {
	// OnRetry fires before sleeping ahead of a retry. attempt is
	// 1-indexed; delay is the backoff about to be applied.
	OnRetry func(attempt int, delay time.Duration, err error)
	// OnBreakerOpen fires when the breaker trips open, from either the
	// closed state (threshold reached) or a failed half-open probe.
	OnBreakerOpen func()
	// OnBreakerClose fires when a half-open probe succeeds.
	OnBreakerClose func()
	// OnBreakerProbe fires when a single probe call is admitted in the
	// half-open state.
	OnBreakerProbe func()
	// OnRateLimited fires when the token bucket rejects a call.
	OnRateLimited func()
	// OnTimeout fires when an operation exceeds its deadline.
	OnTimeout func()
	// OnBulkheadFull fires when a call is rejected for lack of a slot.
	OnBulkheadFull func()
	// OnHedge fires when a hedged second attempt is launched.
	OnHedge func()
	// OnHedgeWon fires when the hedged attempt finishes first.
	OnHedgeWon func()
	// OnFallback fires when a fallback value or function absorbs err.
	OnFallback func(err error)
	// OnStaleServed fires when a stale cached value masks a failure.
	OnStaleServed func(age time.Duration)
}

func (h *Hooks) emitRetry(attempt int, delay time.Duration, err error) {
	if h != nil && h.OnRetry != nil {
		h.OnRetry(attempt, delay, err)
	}
}

func (h *Hooks) emitBreakerOpen() {
	if h != nil && h.OnBreakerOpen != nil {
		h.OnBreakerOpen()
	}
}

func (h *Hooks) emitBreakerClose() {
	if h != nil && h.OnBreakerClose != nil {
		h.OnBreakerClose()
	}
}

func (h *Hooks) emitBreakerProbe() {
	if h != nil && h.OnBreakerProbe != nil {
		h.OnBreakerProbe()
	}
}

func (h *Hooks) emitRateLimited() {
	if h != nil && h.OnRateLimited != nil {
		h.OnRateLimited()
	}
}

func (h *Hooks) emitTimeout() {
	if h != nil && h.OnTimeout != nil {
		h.OnTimeout()
	}
}

func (h *Hooks) emitBulkheadFull() {
	if h != nil && h.OnBulkheadFull != nil {
		h.OnBulkheadFull()
	}
}

func (h *Hooks) emitHedge() {
	if h != nil && h.OnHedge != nil {
		h.OnHedge()
	}
}

func (h *Hooks) emitHedgeWon() {
	if h != nil && h.OnHedgeWon != nil {
		h.OnHedgeWon()
	}
}

func (h *Hooks) emitFallback(err error) {
	if h != nil && h.OnFallback != nil {
		h.OnFallback(err)
	}
}

func (h *Hooks) emitStaleServed(age time.Duration) {
	if h != nil && h.OnStaleServed != nil {
		h.OnStaleServed(age)
	}
}

// JoinHooks merges several hook sets into one; every event fans out to each
// set in order. Nil entries are skipped. Useful for combining, say,
// [LogHooks] with [Metrics.Hooks].
func JoinHooks(hs ...*Hooks) *Hooks {
	return &Hooks{
		OnRetry: func(attempt int, delay time.Duration, err error) {
			for _, h := range hs {
				h.emitRetry(attempt, delay, err)
			}
		},
		OnBreakerOpen: func() {
			for _, h := range hs {
				h.emitBreakerOpen()
			}
		},
		OnBreakerClose: func() {
			for _, h := range hs {
				h.emitBreakerClose()
			}
		},
		OnBreakerProbe: func() {
			for _, h := range hs {
				h.emitBreakerProbe()
			}
		},
		OnRateLimited: func() {
			for _, h := range hs {
				h.emitRateLimited()
			}
		},
		OnTimeout: func() {
			for _, h := range hs {
				h.emitTimeout()
			}
		},
		OnBulkheadFull: func() {
			for _, h := range hs {
				h.emitBulkheadFull()
			}
		},
		OnHedge: func() {
			for _, h := range hs {
				h.emitHedge()
			}
		},
		OnHedgeWon: func() {
			for _, h := range hs {
				h.emitHedgeWon()
			}
		},
		OnFallback: func(err error) {
			for _, h := range hs {
				h.emitFallback(err)
			}
		},
		OnStaleServed: func(age time.Duration) {
			for _, h := range hs {
				h.emitStaleServed(age)
			}
		},
	}
}
