package downloader

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached response stays fresh.
const DefaultCacheTTL = 300 * time.Second

// Cache stores successful GET responses keyed by URL.
type Cache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration)
}

// MemoryCache is an in-process Cache with TTL and a size cap.
type MemoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheEntry
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// NewMemoryCache creates a cache. Zero values select defaults.
func NewMemoryCache(ttl time.Duration, maxItems int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &MemoryCache{
		items:    make(map[string]cacheEntry),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.resp, true
}

// Set implements Cache. A non-positive ttl uses the cache default.
func (c *MemoryCache) Set(_ context.Context, key string, resp *Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evict()
	}
	c.items[key] = cacheEntry{resp: resp, expiresAt: c.now().Add(ttl)}
}

// Purge drops expired entries and returns how many were removed.
func (c *MemoryCache) Purge(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evict removes expired entries, then the soonest-expiring tenth.
// Must be called with the lock held.
func (c *MemoryCache) evict() {
	now := c.now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if len(c.items) < c.maxItems {
		return
	}

	toRemove := max(c.maxItems/10, 1)
	for ; toRemove > 0; toRemove-- {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.items {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		delete(c.items, oldestKey)
	}
}
