package domain

import (
	"context"
)

// ListQuery is the normalized listing query handed to a source
// adapter. Adapters translate it into source-native parameters; an
// adapter whose upstream cannot express part of the query (the CDO
// API accepts a single category at most) may over-fetch, because the
// aggregator re-applies every filter locally.
type ListQuery struct {
	Page        int
	PageSize    int
	CategoryIDs []string
	Search      string
}

// SourceAdapter is one upstream catalog client. Adapters are
// stateless: they own nothing beyond the lifetime of a single call.
// Implementations: internal/infra/source/zecat, internal/infra/source/cdo
type SourceAdapter interface {
	// Source returns the identity this adapter's records are tagged
	// with. The tag always comes from here, never from payload content.
	Source() Source

	// ListProducts fetches one native page of normalized products.
	ListProducts(ctx context.Context, query ListQuery) (*SourcePage, error)

	// GetProduct fetches a single product by its raw source id.
	// Returns (nil, nil) when the product does not exist.
	GetProduct(ctx context.Context, rawID string) (*Product, error)

	// ListCategories fetches the source's category listing.
	ListCategories(ctx context.Context) ([]Category, error)

	// HealthCheck verifies the upstream is accessible.
	HealthCheck(ctx context.Context) error
}

// Cache defines the catalog cache operations.
// Implementations: internal/infra/cache (redis and in-memory).
type Cache interface {
	// Get retrieves an entry by key. A miss and a storage failure both
	// return (nil, nil): cache trouble must never fail a lookup.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores an entry. Last writer wins on concurrent sets to the
	// same key; cached aggregations are idempotent recomputations.
	Set(ctx context.Context, key string, entry *CacheEntry) error

	// Delete removes an entry by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries owned by this cache.
	Clear(ctx context.Context) error
}
