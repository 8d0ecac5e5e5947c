// Package cache provides a small in-memory TTL cache for upstream payloads.
// Entries expire lazily on read; a Sweep pass exists for long-running
// processes that want to reclaim memory between reads.
package cache

import (
	"sync"
	"time"
)

// clockNow is swapped in tests.
var clockNow = time.Now

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe map with per-entry TTLs. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the live value for key. Expired entries are evicted on the
// spot and reported as missing.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if clockNow().After(e.expiresAt) {
		c.mu.Lock()
		// re-check: a writer may have refreshed the entry since the read
		if cur, ok := c.entries[key]; ok && clockNow().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing,
// so callers can disable caching per entry without branching.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: clockNow().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len counts all stored entries, including ones that have expired but not
// yet been evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := clockNow()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
