package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory caching with a soft entry cap
type MemoryCache struct {
	cache      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a new memory cache. maxEntries <= 0 disables the
// cap.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value in the cache with the given TTL. When the cache is at
// its cap, expired entries are swept first; if it is still full the value
// is simply not stored. Memory stays bounded, the disk layer still has it.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if _, exists := c.cache.Get(key); !exists && c.maxEntries > 0 && c.cache.ItemCount() >= c.maxEntries {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxEntries {
			return nil
		}
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
