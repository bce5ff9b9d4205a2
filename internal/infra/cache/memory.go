package cache

import (
	"context"
	"sync"
	"time"

	"unified-catalog-service/internal/domain"
)

// MemoryCache implements domain.Cache in process memory. Used when no
// Redis is configured, and by tests that need a controllable store.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*domain.CacheEntry
	maxEntries int
}

// NewMemoryCache creates an in-memory cache capped at maxEntries keys
// (0 means unbounded). When the cap is hit, the oldest-written entry
// is evicted.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*domain.CacheEntry),
		maxEntries: maxEntries,
	}
}

// Get retrieves an entry by key; (nil, nil) on a miss.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}

	return entry, nil
}

// Set stores an entry, evicting the oldest-written key when over the
// configured cap.
func (c *MemoryCache) Set(_ context.Context, key string, entry *domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry

	return nil
}

// Delete removes an entry by key. Idempotent.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*domain.CacheEntry)

	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *MemoryCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for key, entry := range c.entries {
		if first || entry.WrittenAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.WrittenAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
