// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/fetch"
)

// CatalogConfig holds the aggregation settings.
type CatalogConfig struct {
	DefaultPageSize int
	MaxPageSize     int

	// FetchWindow is the upstream page size used when aggregating.
	// Unified pagination needs the full filtered set from each source,
	// so sources are asked for one large window rather than the
	// caller's page.
	FetchWindow int

	// ListingTTL is minutes-scale: stock and availability drift fast.
	// CategoryTTL is hours-scale: categories rarely change.
	ListingTTL  time.Duration
	CategoryTTL time.Duration

	// Fetch is the retry/timeout policy applied to every adapter call.
	Fetch fetch.Policy
}

// CatalogService unifies the upstream catalogs: it fans out listing
// queries, normalizes and merges the results, re-paginates, and layers
// the TTL cache with stale fallback on top. It is the sole writer of
// cache entries.
type CatalogService struct {
	adapters map[domain.Source]domain.SourceAdapter
	cache    domain.Cache
	cfg      CatalogConfig
	logger   *zap.Logger

	// now is the clock; tests substitute it.
	now func() time.Time
}

// NewCatalogService creates a CatalogService. cache may be nil, which
// disables caching (and with it the stale-fallback path).
func NewCatalogService(
	adapters map[domain.Source]domain.SourceAdapter,
	cache domain.Cache,
	cfg CatalogConfig,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		adapters: adapters,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

const defaultFetchWindow = 1000

func (s *CatalogService) fetchWindow() int {
	if s.cfg.FetchWindow > 0 {
		return s.cfg.FetchWindow
	}

	return defaultFetchWindow
}

// sourceResult is one fan-out leg's outcome.
type sourceResult struct {
	source   domain.Source
	products []*domain.Product
	err      error
}

// ListProducts serves a unified catalog page for the given filters.
//
// Per-source failures degrade the result to the surviving source's
// records. Only when every queried source fails and the cache holds
// nothing for this filter set does the call fail, with
// domain.ErrCatalogUnavailable.
func (s *CatalogService) ListProducts(ctx context.Context, filters domain.UnifiedFilters) (*domain.CatalogPage, error) {
	filters.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	key := filters.CacheKey()
	useCache := s.cache != nil && !filters.SkipCache

	if useCache {
		entry, _ := s.cache.Get(ctx, key)
		if entry.Fresh(s.now(), s.cfg.ListingTTL) {
			if page, err := decodePage(entry.Value); err == nil {
				s.logger.Debug("listing served from cache", zap.String("key", key))

				return page, nil
			}
		}
	}

	results := s.fanOut(ctx, filters)

	var merged []*domain.Product
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			s.logger.Warn("source degraded, continuing without it",
				zap.String("source", string(r.source)),
				zap.Error(r.err),
			)

			continue
		}
		merged = append(merged, applyFilters(r.products, filters)...)
	}

	if failed == len(results) {
		if useCache {
			// Freshness is deliberately ignored here: a stale page
			// beats no page when every upstream is down.
			if entry, _ := s.cache.Get(ctx, key); entry != nil {
				if page, err := decodePage(entry.Value); err == nil {
					s.logger.Warn("all sources failed, serving stale cache",
						zap.String("key", key),
						zap.Time("written_at", entry.WrittenAt),
					)

					return page, nil
				}
			}
		}

		return nil, fmt.Errorf("%w: all sources failed", domain.ErrCatalogUnavailable)
	}

	page := domain.NewCatalogPage(merged, filters.Page, filters.PageSize)

	if useCache {
		s.writeCache(ctx, key, page)
	}

	return page, nil
}

// GetProduct resolves a composite id to the owning source and fetches
// the product. Returns (nil, nil) when the product does not exist;
// malformed ids surface domain.ErrInvalidIdentifier.
func (s *CatalogService) GetProduct(ctx context.Context, compositeID string) (*domain.Product, error) {
	src, rawID, err := domain.DecodeID(compositeID)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.adapters[src]
	if !ok {
		return nil, fmt.Errorf("%w: source %q not configured", domain.ErrInvalidIdentifier, src)
	}

	product, err := fetch.Do(ctx, s.cfg.Fetch, func(ctx context.Context) (*domain.Product, error) {
		return adapter.GetProduct(ctx, rawID)
	})
	if err != nil {
		s.logger.Error("product lookup failed",
			zap.String("composite_id", compositeID),
			zap.Error(err),
		)

		return nil, err
	}

	return product, nil
}

// ListCategories returns the union of both sources' categories, each
// tagged with its source. A failing source's categories are served
// from its cache entry when one exists (fresh or stale) and omitted
// otherwise; the call only fails when no source yields anything.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.listCategories(ctx, false)
}

// RefreshCategories re-fetches every source's categories ignoring
// cached entries, rewriting them on success. Used by the background
// warmer.
func (s *CatalogService) RefreshCategories(ctx context.Context) ([]domain.Category, error) {
	return s.listCategories(ctx, true)
}

func (s *CatalogService) listCategories(ctx context.Context, forceRefresh bool) ([]domain.Category, error) {
	type categoryResult struct {
		source     domain.Source
		categories []domain.Category
		ok         bool
	}

	sources := s.queriedSources("")
	results := make([]categoryResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src domain.Source) {
			defer wg.Done()

			categories, ok := s.sourceCategories(ctx, src, forceRefresh)
			results[idx] = categoryResult{source: src, categories: categories, ok: ok}
		}(i, src)
	}
	wg.Wait()

	var union []domain.Category
	okCount := 0
	for _, r := range results {
		if !r.ok {
			continue
		}
		okCount++
		union = append(union, r.categories...)
	}

	if okCount == 0 {
		return nil, fmt.Errorf("%w: no source categories available", domain.ErrCatalogUnavailable)
	}

	return union, nil
}

// sourceCategories resolves one source's categories via cache, live
// fetch, then stale cache, in that order.
func (s *CatalogService) sourceCategories(ctx context.Context, src domain.Source, forceRefresh bool) ([]domain.Category, bool) {
	key := domain.CategoriesCacheKey(src)

	if s.cache != nil && !forceRefresh {
		entry, _ := s.cache.Get(ctx, key)
		if entry.Fresh(s.now(), s.cfg.CategoryTTL) {
			if categories, err := decodeCategories(entry.Value); err == nil {
				return categories, true
			}
		}
	}

	categories, err := fetch.Do(ctx, s.cfg.Fetch, func(ctx context.Context) ([]domain.Category, error) {
		return s.adapters[src].ListCategories(ctx)
	})
	if err == nil {
		if s.cache != nil {
			value, marshalErr := json.Marshal(categories)
			if marshalErr == nil {
				if setErr := s.cache.Set(ctx, key, &domain.CacheEntry{Value: value, WrittenAt: s.now()}); setErr != nil {
					s.logger.Warn("category cache write failed", zap.String("key", key), zap.Error(setErr))
				}
			}
		}

		return categories, true
	}

	s.logger.Warn("source categories unavailable",
		zap.String("source", string(src)),
		zap.Error(err),
	)

	if s.cache != nil {
		if entry, _ := s.cache.Get(ctx, key); entry != nil {
			if categories, decodeErr := decodeCategories(entry.Value); decodeErr == nil {
				s.logger.Warn("serving stale categories",
					zap.String("source", string(src)),
					zap.Time("written_at", entry.WrittenAt),
				)

				return categories, true
			}
		}
	}

	return nil, false
}

// HealthCheck reports per-source availability.
func (s *CatalogService) HealthCheck(ctx context.Context) map[domain.Source]error {
	statuses := make(map[domain.Source]error, len(s.adapters))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for src, adapter := range s.adapters {
		wg.Add(1)
		go func(src domain.Source, adapter domain.SourceAdapter) {
			defer wg.Done()

			err := adapter.HealthCheck(ctx)
			mu.Lock()
			statuses[src] = err
			mu.Unlock()
		}(src, adapter)
	}
	wg.Wait()

	return statuses
}

// fanOut queries the requested sources concurrently through the fetch
// wrapper. Both legs always run to completion; a slow leg is never
// cancelled because the other finished.
func (s *CatalogService) fanOut(ctx context.Context, filters domain.UnifiedFilters) []sourceResult {
	sources := s.queriedSources(filters.Source)
	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src domain.Source) {
			defer wg.Done()

			adapter := s.adapters[src]
			query := nativeQuery(filters, src, s.fetchWindow())

			page, err := fetch.Do(ctx, s.cfg.Fetch, func(ctx context.Context) (*domain.SourcePage, error) {
				return adapter.ListProducts(ctx, query)
			})

			result := sourceResult{source: src, err: err}
			if err == nil {
				result.products = page.Products
			}
			results[idx] = result
		}(i, src)
	}
	wg.Wait()

	return results
}

// queriedSources returns the sources to query, in merge order.
func (s *CatalogService) queriedSources(restriction domain.Source) []domain.Source {
	var sources []domain.Source
	for _, src := range domain.Sources() {
		if restriction != "" && src != restriction {
			continue
		}
		if _, ok := s.adapters[src]; ok {
			sources = append(sources, src)
		}
	}

	return sources
}

// nativeQuery builds one source's listing query. Upstream pagination
// is not forwarded: each source is asked for its full filtered window
// so the merged set can be re-paginated consistently, and only the
// category ids scoped to that source are passed down.
func nativeQuery(filters domain.UnifiedFilters, src domain.Source, window int) domain.ListQuery {
	query := domain.ListQuery{
		Page:     1,
		PageSize: window,
		Search:   filters.Search,
	}
	for _, ref := range filters.Categories {
		if ref.Source == src {
			query.CategoryIDs = append(query.CategoryIDs, ref.ID)
		}
	}

	return query
}

// applyFilters re-applies category and search filters locally. The
// upstream filtering is advisory: CDO honors a single category at
// most, and Zecat has returned out-of-family products for families[]
// queries. Category matching is source-scoped; search runs after the
// category filter.
func applyFilters(products []*domain.Product, filters domain.UnifiedFilters) []*domain.Product {
	if len(filters.Categories) == 0 && filters.Search == "" {
		return products
	}

	kept := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if !p.InAnyCategory(filters.Categories) {
			continue
		}
		if !p.MatchesSearch(filters.Search) {
			continue
		}
		kept = append(kept, p)
	}

	return kept
}

// writeCache stores a freshly aggregated page. Failures are logged,
// never surfaced: the page is already in hand.
func (s *CatalogService) writeCache(ctx context.Context, key string, page *domain.CatalogPage) {
	value, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("listing cache encode failed", zap.String("key", key), zap.Error(err))

		return
	}
	if err := s.cache.Set(ctx, key, &domain.CacheEntry{Value: value, WrittenAt: s.now()}); err != nil {
		s.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func decodePage(value []byte) (*domain.CatalogPage, error) {
	var page domain.CatalogPage
	if err := json.Unmarshal(value, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

func decodeCategories(value []byte) ([]domain.Category, error) {
	var categories []domain.Category
	if err := json.Unmarshal(value, &categories); err != nil {
		return nil, err
	}

	return categories, nil
}
