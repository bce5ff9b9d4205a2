package domain

import "time"

// CacheEntry is a cached value with its write timestamp. Entries are
// retained past their TTL so an expired entry can still serve as a
// stale fallback when every upstream is down.
type CacheEntry struct {
	Value     []byte    `json:"value"`
	WrittenAt time.Time `json:"written_at"`
}

// Fresh reports whether the entry is within ttl of now. It is a pure
// function of the entry's write time; callers inject the clock.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.WrittenAt) < ttl
}

// Cache keys live in one place so they don't drift across call sites.

// CategoriesCacheKey is the fixed per-source key for a source's
// category listing.
func CategoriesCacheKey(source Source) string {
	return "categories:" + string(source)
}
