package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default sizing for retrieval caches.
const (
	DefaultCapacity = 100
	DefaultTTL      = 5 * time.Minute
)

// Cache is a bounded LRU cache with per-entry TTL and hit/miss accounting.
// Expiry is checked lazily on read; capacity overflow evicts on write. Safe
// for concurrent use across requests.
type Cache[K comparable, V any] struct {
	lru    *expirable.LRU[K, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache with the given capacity and TTL. Non-positive values
// fall back to the defaults.
func New[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, V](capacity, nil, ttl),
	}
}

// Get returns the live value for key, counting the lookup as a hit or miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	value, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, ok
}

// Add stores value under key, evicting the least recently used entry if the
// cache is at capacity.
func (c *Cache[K, V]) Add(key K, value V) {
	c.lru.Add(key, value)
}

// Remove drops key from the cache if present.
func (c *Cache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

// Purge drops every entry. Counters are preserved.
func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Stats is a read-only snapshot of cache effectiveness for health
// reporting.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Entries  int
	HitRatio float64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return Stats{
		Hits:     hits,
		Misses:   misses,
		Entries:  c.lru.Len(),
		HitRatio: ratio,
	}
}
