package guard

import "sync/atomic"

// Bulkhead caps the number of calls in flight so one slow dependency cannot
// soak up every goroutine. Slot accounting is a CAS loop; no lock is held
// across the wrapped call.
type Bulkhead struct {
	limit int64
	hooks *Hooks

	inUse atomic.Int64
}

// NewBulkhead creates a bulkhead admitting at most limit concurrent calls.
func NewBulkhead(limit int, hooks *Hooks) *Bulkhead {
	return &Bulkhead{
		limit: int64(limit),
		hooks: hooks,
	}
}

// Acquire claims a slot, returning ErrBulkheadFull when none is free.
func (b *Bulkhead) Acquire() error {
	for {
		cur := b.inUse.Load()
		if cur >= b.limit {
			b.hooks.emitBulkheadFull()
			return ErrBulkheadFull
		}

		if b.inUse.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// Release returns a slot claimed by Acquire.
func (b *Bulkhead) Release() {
	b.inUse.Add(-1)
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return int(b.inUse.Load())
}

// Full reports whether every slot is in use.
func (b *Bulkhead) Full() bool {
	return b.inUse.Load() >= b.limit
}
