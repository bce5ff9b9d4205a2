package domain

import (
	"testing"
	"time"
)

func TestCacheEntry_Fresh(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &CacheEntry{Value: []byte("{}"), WrittenAt: t0}
	ttl := 5 * time.Minute

	if !entry.Fresh(t0.Add(4*time.Minute), ttl) {
		t.Error("entry written 4m ago with 5m ttl must be fresh")
	}
	if entry.Fresh(t0.Add(6*time.Minute), ttl) {
		t.Error("entry written 6m ago with 5m ttl must be stale")
	}
	if entry.Fresh(t0.Add(5*time.Minute), ttl) {
		t.Error("freshness boundary is exclusive")
	}
}

func TestCacheEntry_Fresh_Nil(t *testing.T) {
	var entry *CacheEntry
	if entry.Fresh(time.Now(), time.Minute) {
		t.Error("nil entry is never fresh")
	}
}

func TestCategoriesCacheKey(t *testing.T) {
	if got := CategoriesCacheKey(SourceZecat); got != "categories:zecat" {
		t.Errorf("expected 'categories:zecat', got %q", got)
	}
	if got := CategoriesCacheKey(SourceCDO); got != "categories:cdo" {
		t.Errorf("expected 'categories:cdo', got %q", got)
	}
}
