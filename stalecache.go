package guard

import (
	"context"
	"time"
)

// StaleCache serves the last known-good value for a key when the live call
// fails. Success refreshes the entry; failure falls back to whatever the
// underlying [Cache] still holds, with the OnStaleServed hook reporting the
// entry's age.
type StaleCache[K comparable, V any] struct {
	cache Cache[K, StaleEntry[V]]
	clock Clock
	hooks *Hooks
}

// StaleEntry pairs a cached value with the time it was stored so the hook
// can report staleness. It is the value type a backing [Cache] must hold;
// callers only ever name it as a type parameter.
type StaleEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewStaleCache creates a stale-on-error wrapper around cache. Entry
// lifetime is whatever the cache enforces.
func NewStaleCache[K comparable, V any](cache Cache[K, StaleEntry[V]], clock Clock, hooks *Hooks) *StaleCache[K, V] {
	if clock == nil {
		clock = RealClock{}
	}

	return &StaleCache[K, V]{
		cache: cache,
		clock: clock,
		hooks: hooks,
	}
}

// NewMemoryStaleCache creates a stale cache over an in-process map whose
// entries expire after ttl.
func NewMemoryStaleCache[K comparable, V any](ttl time.Duration, clock Clock, hooks *Hooks) *StaleCache[K, V] {
	return NewStaleCache[K, V](NewMemoryCache[K, StaleEntry[V]](ttl, clock), clock, hooks)
}

// Do runs op for key. On success the result is stored and returned; on
// failure a cached value is served if one is still live, otherwise the
// operation's error is surfaced unchanged.
func (sc *StaleCache[K, V]) Do(
	ctx context.Context,
	key K,
	op func(context.Context, K) (V, error),
) (V, error) {
	result, err := op(ctx, key)
	if err == nil {
		sc.cache.Set(key, StaleEntry[V]{value: result, storedAt: sc.clock.Now()})
		return result, nil
	}

	if entry, ok := sc.cache.Get(key); ok {
		sc.hooks.emitStaleServed(sc.clock.Since(entry.storedAt))
		return entry.value, nil
	}

	var zero V

	return zero, err
}
