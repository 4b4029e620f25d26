// Package cache provides the two local caching layers: a short-lived
// in-memory TTL cache for remote reads and a durable file-backed preference
// store. No other component writes cache entries directly.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL applies to entries stored without an explicit TTL.
const DefaultTTL = 5 * time.Minute

type memoryItem struct {
	val      any
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-memory cache with per-entry expiry. Expiry is checked
// lazily on read; the read that discovers an expired entry evicts it. Safe
// for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration

	now func() time.Time // test hook
}

func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Memory{
		items: make(map[string]memoryItem),
		ttl:   defaultTTL,
		now:   time.Now,
	}
}

// Set stores value under key. ttl <= 0 means the default TTL.
func (c *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = memoryItem{val: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Get returns the stored value while now - storedAt < ttl, else evicts and
// reports a miss.
func (c *Memory) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.expired(it) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && c.expired(cur) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.val, true
}

// Has reports whether key holds an unexpired entry.
func (c *Memory) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Invalidate removes key immediately.
func (c *Memory) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Memory) Clear() {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
}

func (c *Memory) expired(it memoryItem) bool {
	return c.now().Sub(it.storedAt) >= it.ttl
}
