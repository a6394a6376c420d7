package guard

import (
	"sync"
	"time"
)

// Cache is the storage seam behind [StaleCache]. Expiry policy belongs to
// the implementation: [NewMemoryCache] takes a TTL at construction, and the
// lru subpackage adapts hashicorp's expirable LRU.
type Cache[K comparable, V any] interface {
	// Get retrieves a live entry, reporting whether one was found.
	Get(key K) (V, bool)
	// Set stores or replaces an entry.
	Set(key K, value V)
	// Delete removes an entry.
	Delete(key K)
}

// memoryCache is a mutex-guarded map with per-entry absolute expiry. It
// never evicts on size, so it suits small, bounded key spaces; use the lru
// adapter for anything unbounded.
type memoryCache[K comparable, V any] struct {
	clock Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[K]memoryEntry[V]
}

type memoryEntry[V any] struct {
	value    V
	deadline time.Time
}

// NewMemoryCache creates an in-process [Cache] whose entries expire ttl
// after each Set. A ttl of 0 means entries never expire.
func NewMemoryCache[K comparable, V any](ttl time.Duration, clock Clock) Cache[K, V] {
	if clock == nil {
		clock = RealClock{}
	}

	return &memoryCache[K, V]{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[K]memoryEntry[V]),
	}
}

func (c *memoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if !entry.deadline.IsZero() && c.clock.Now().After(entry.deadline) {
		delete(c.entries, key)

		var zero V

		return zero, false
	}

	return entry.value, true
}

func (c *memoryCache[K, V]) Set(key K, value V) {
	var deadline time.Time
	if c.ttl > 0 {
		deadline = c.clock.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry[V]{value: value, deadline: deadline}
	c.mu.Unlock()
}

func (c *memoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
