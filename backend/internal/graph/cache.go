package graph

import (
	"sync/atomic"
	"time"
)

// Cache holds the single shared graph slot. It is created once at process
// start and handed to the Builder. Readers always see either the previous
// graph or a fully built replacement because the slot is swapped as one
// pointer.
type Cache struct {
	ttl  time.Duration
	now  func() time.Time
	slot atomic.Pointer[cacheEntry]
}

type cacheEntry struct {
	graph    *Graph
	storedAt time.Time
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithCacheClock overrides the clock used for freshness checks
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty cache. A ttl of zero or less never expires.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached graph while it is fresh
func (c *Cache) Get() (*Graph, bool) {
	entry := c.slot.Load()
	if entry == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.graph, true
}

// Set publishes a fully built graph
func (c *Cache) Set(g *Graph) {
	c.slot.Store(&cacheEntry{graph: g, storedAt: c.now()})
}

// Invalidate empties the slot
func (c *Cache) Invalidate() {
	c.slot.Store(nil)
}

// Age reports how long ago the cached graph was stored
func (c *Cache) Age() (time.Duration, bool) {
	entry := c.slot.Load()
	if entry == nil {
		return 0, false
	}
	return c.now().Sub(entry.storedAt), true
}
