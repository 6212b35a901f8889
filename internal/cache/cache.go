// Package cache holds the in-memory caches the service keeps between queries.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the structure cache when no capacity is configured.
const DefaultCapacity = 1024

// Cache is a concurrency-safe key/value cache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	Invalidate(key K)
	Clear()
	// Keys returns keys oldest first.
	Keys() []K
	Len() int
}

// LRU is a bounded cache that evicts the least recently used entry.
type LRU[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// NewLRU creates a bounded cache. A non-positive capacity uses DefaultCapacity.
func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{inner: inner}, nil
}

func (c *LRU[K, V]) Get(key K) (V, bool) { return c.inner.Get(key) }

func (c *LRU[K, V]) Put(key K, value V) { c.inner.Add(key, value) }

func (c *LRU[K, V]) Invalidate(key K) { c.inner.Remove(key) }

func (c *LRU[K, V]) Clear() { c.inner.Purge() }

func (c *LRU[K, V]) Keys() []K { return c.inner.Keys() }

func (c *LRU[K, V]) Len() int { return c.inner.Len() }

// Ordered is an unbounded cache that remembers insertion order.
// Re-putting an existing key keeps its original position.
type Ordered[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
	order  []K
}

func NewOrdered[K comparable, V any]() *Ordered[K, V] {
	return &Ordered[K, V]{values: make(map[K]V)}
}

func (c *Ordered[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *Ordered[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		c.order = append(c.order, key)
	}
	c.values[key] = value
}

func (c *Ordered[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Ordered[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[K]V)
	c.order = nil
}

func (c *Ordered[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, len(c.order))
	copy(keys, c.order)
	return keys
}

// Values returns values in insertion order.
func (c *Ordered[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values := make([]V, 0, len(c.order))
	for _, k := range c.order {
		values = append(values, c.values[k])
	}
	return values
}

func (c *Ordered[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
