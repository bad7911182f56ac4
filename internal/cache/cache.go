// package cache is a bounded in-memory key/value store with per-entry expiry.
//
// It holds Web API responses the TUI revisits often (contexts, search results).
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to values that expire ttl after they are stored.
//
// When full, Put evicts the entry closest to expiry. Expired entries are also
// dropped lazily on Get. A Cache is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.RWMutex
	data     map[string]entry[V]
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache holding at most capacity entries. A capacity below 1 is treated as 1.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		data:     make(map[string]entry[V], max(capacity, 1)),
		capacity: max(capacity, 1),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()

		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous value and restarting its ttl.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.data[key]; !ok && len(c.data) >= c.capacity {
		c.evict(now)
	}
	c.data[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// evict removes every expired entry, or the earliest-expiring one when none has expired.
func (c *Cache[V]) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
		removed   bool
	)
	for k, e := range c.data {
		if !now.Before(e.expiresAt) {
			delete(c.data, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Purge removes every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
