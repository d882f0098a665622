package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds each lookup cache unless configured otherwise.
const DefaultCapacity = 256

// LRU is a fixed-capacity, concurrency-safe cache that evicts the least
// recently used entry once capacity is exceeded. It counts hits and misses.
type LRU[K comparable, V any] struct {
	entries *lru.Cache[K, V]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	entries, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{entries: entries}, nil
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores value under key, evicting the oldest entry if needed.
func (c *LRU[K, V]) Add(key K, value V) {
	c.entries.Add(key, value)
}

// Contains reports presence without touching recency or stats.
func (c *LRU[K, V]) Contains(key K) bool {
	return c.entries.Contains(key)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return c.entries.Len()
}

// Stats returns hit and miss counts since creation.
func (c *LRU[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
