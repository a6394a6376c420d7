// Package lru adapts hashicorp's expirable LRU to the guard.Cache
// interface, giving stale caches a bounded footprint for unbounded key
// spaces.
package lru

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/matthewharwood/guard"
)

// Cache is a size-bounded, TTL-expiring guard.Cache.
type Cache[K comparable, V any] struct {
	inner *expirable.LRU[K, V]
}

// New creates a cache holding at most size entries, each expiring ttl
// after it was stored. A ttl of 0 disables expiry; eviction is then purely
// least-recently-used.
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		inner: expirable.NewLRU[K, V](size, nil, ttl),
	}
}

// Get retrieves a live entry, reporting whether one was found.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.inner.Get(key)
}

// Set stores or replaces an entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.inner.Add(key, value)
}

// Delete removes an entry.
func (c *Cache[K, V]) Delete(key K) {
	c.inner.Remove(key)
}

var _ guard.Cache[string, int] = (*Cache[string, int])(nil)
