package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/cache"
	"unified-catalog-service/internal/infra/fetch"
)

// fakeAdapter is an in-memory SourceAdapter. It serves its product
// slice unfiltered; the service re-filters locally anyway.
type fakeAdapter struct {
	source     domain.Source
	products   []*domain.Product
	categories []domain.Category

	listErr     error
	categoryErr error
	healthErr   error

	mu        sync.Mutex
	listCalls int
	lastQuery domain.ListQuery
}

func (f *fakeAdapter) Source() domain.Source { return f.source }

func (f *fakeAdapter) ListProducts(_ context.Context, query domain.ListQuery) (*domain.SourcePage, error) {
	f.mu.Lock()
	f.listCalls++
	f.lastQuery = query
	f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	return &domain.SourcePage{
		Products:   f.products,
		TotalCount: len(f.products),
		TotalPages: 1,
	}, nil
}

func (f *fakeAdapter) GetProduct(_ context.Context, rawID string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ID == rawID || (p.SecondaryKey != "" && p.SecondaryKey == rawID) {
			return p, nil
		}
	}

	return nil, nil
}

func (f *fakeAdapter) ListCategories(_ context.Context) ([]domain.Category, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}

	return f.categories, nil
}

func (f *fakeAdapter) HealthCheck(_ context.Context) error {
	return f.healthErr
}

func (f *fakeAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listCalls
}

func (f *fakeAdapter) query() domain.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastQuery
}

func mkProducts(src domain.Source, n int, prefix string) []*domain.Product {
	products := make([]*domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, &domain.Product{
			Source: src,
			ID:     fmt.Sprintf("%d", i),
			Name:   fmt.Sprintf("%s %d", prefix, i),
		})
	}

	return products
}

func testConfig() CatalogConfig {
	return CatalogConfig{
		DefaultPageSize: 10,
		MaxPageSize:     100,
		ListingTTL:      5 * time.Minute,
		CategoryTTL:     24 * time.Hour,
		Fetch:           fetch.Policy{MaxRetries: 0, Timeout: time.Second},
	}
}

func newTestService(zecat, cdo *fakeAdapter, c domain.Cache) *CatalogService {
	adapters := map[domain.Source]domain.SourceAdapter{}
	if zecat != nil {
		adapters[domain.SourceZecat] = zecat
	}
	if cdo != nil {
		adapters[domain.SourceCDO] = cdo
	}

	return NewCatalogService(adapters, c, testConfig(), zap.NewNop())
}

func TestListProductsMergesSourcesInOrder(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 10, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 5, "Pen")}
	svc := newTestService(zecat, cdo, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, 15, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Products, 15)

	// Zecat's window first, CDO's appended after, native order kept.
	assert.Equal(t, "zecat_1", page.Products[0].CompositeID())
	assert.Equal(t, "zecat_10", page.Products[9].CompositeID())
	assert.Equal(t, "cdo_1", page.Products[10].CompositeID())
	assert.Equal(t, "cdo_5", page.Products[14].CompositeID())
}

func TestListProductsPaginatesMergedSet(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 10, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 5, "Pen")}
	svc := newTestService(zecat, cdo, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{Page: 2, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 15, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Products, 5)
	assert.Equal(t, "cdo_1", page.Products[0].CompositeID())

	// Out-of-range pages clamp to the last page instead of failing.
	page, err = svc.ListProducts(context.Background(), domain.UnifiedFilters{Page: 99, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Products, 5)
}

func TestListProductsPartialFailureDegrades(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 10, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, listErr: errors.New("connection refused")}
	svc := newTestService(zecat, cdo, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, 10, page.TotalCount)
	for _, p := range page.Products {
		assert.Equal(t, domain.SourceZecat, p.Source)
	}
}

func TestListProductsAllSourcesFailedNoCache(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, listErr: errors.New("down")}
	cdo := &fakeAdapter{source: domain.SourceCDO, listErr: errors.New("down")}
	svc := newTestService(zecat, cdo, cache.NewMemoryCache(0))

	_, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestListProductsStaleCacheServedWhenAllSourcesFail(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 3, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 2, "Pen")}
	svc := newTestService(zecat, cdo, cache.NewMemoryCache(0))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.NoError(t, err)
	require.Equal(t, 5, page.TotalCount)

	// Well past the listing TTL, with both upstreams now failing.
	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	zecat.listErr = errors.New("down")
	cdo.listErr = errors.New("down")

	page, err = svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
}

func TestListProductsFreshCacheSkipsFanOut(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 3, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 2, "Pen")}
	svc := newTestService(zecat, cdo, cache.NewMemoryCache(0))

	_, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.NoError(t, err)

	assert.Equal(t, 1, zecat.calls())
	assert.Equal(t, 1, cdo.calls())
}

func TestListProductsSkipCacheForcesFanOut(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 3, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 2, "Pen")}
	svc := newTestService(zecat, cdo, cache.NewMemoryCache(0))

	_, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{})
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background(), domain.UnifiedFilters{SkipCache: true})
	require.NoError(t, err)

	assert.Equal(t, 2, zecat.calls())
	assert.Equal(t, 2, cdo.calls())
}

func TestListProductsCategoryFilterIsSourceScoped(t *testing.T) {
	// Both sources use the raw id "1" for unrelated categories.
	zecatCat := domain.Category{Source: domain.SourceZecat, ID: "1", Label: "Drinkware"}
	cdoCat := domain.Category{Source: domain.SourceCDO, ID: "1", Label: "Office"}

	zecat := &fakeAdapter{source: domain.SourceZecat, products: []*domain.Product{
		{Source: domain.SourceZecat, ID: "10", Name: "Steel Mug", Categories: []domain.Category{zecatCat}},
		{Source: domain.SourceZecat, ID: "11", Name: "Tote Bag"},
	}}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: []*domain.Product{
		{Source: domain.SourceCDO, ID: "20", Name: "Stapler", Categories: []domain.Category{cdoCat}},
	}}
	svc := newTestService(zecat, cdo, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{
		Categories: []domain.CategoryRef{{Source: domain.SourceZecat, ID: "1"}},
	})
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, "zecat_10", page.Products[0].CompositeID())
}

func TestListProductsSearchRunsAfterCategoryFilter(t *testing.T) {
	cat := domain.Category{Source: domain.SourceZecat, ID: "7", Label: "Drinkware"}
	zecat := &fakeAdapter{source: domain.SourceZecat, products: []*domain.Product{
		{Source: domain.SourceZecat, ID: "1", Name: "Steel Mug", Categories: []domain.Category{cat}},
		{Source: domain.SourceZecat, ID: "2", Name: "Glass Mug"},
		{Source: domain.SourceZecat, ID: "3", Name: "Thermos", Categories: []domain.Category{cat}},
	}}
	svc := newTestService(zecat, nil, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{
		Categories: []domain.CategoryRef{{Source: domain.SourceZecat, ID: "7"}},
		Search:     "MUG",
	})
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, "zecat_1", page.Products[0].CompositeID())
}

func TestListProductsSourceRestriction(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 3, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 2, "Pen")}
	svc := newTestService(zecat, cdo, nil)

	page, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{Source: domain.SourceCDO})
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 0, zecat.calls())
}

func TestListProductsScopesCategoryIDsPerSource(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: mkProducts(domain.SourceZecat, 1, "Mug")}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: mkProducts(domain.SourceCDO, 1, "Pen")}
	svc := newTestService(zecat, cdo, nil)

	_, err := svc.ListProducts(context.Background(), domain.UnifiedFilters{
		Categories: []domain.CategoryRef{
			{Source: domain.SourceZecat, ID: "4"},
			{Source: domain.SourceZecat, ID: "9"},
			{Source: domain.SourceCDO, ID: "12"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"4", "9"}, zecat.query().CategoryIDs)
	assert.Equal(t, []string{"12"}, cdo.query().CategoryIDs)
}

func TestGetProductRoutesByCompositeID(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, products: []*domain.Product{
		{Source: domain.SourceZecat, ID: "31", Name: "Steel Mug"},
	}}
	cdo := &fakeAdapter{source: domain.SourceCDO, products: []*domain.Product{
		{Source: domain.SourceCDO, ID: "31", SecondaryKey: "PEN-001", Name: "Gel Pen"},
	}}
	svc := newTestService(zecat, cdo, nil)

	product, err := svc.GetProduct(context.Background(), "zecat_31")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Steel Mug", product.Name)

	product, err = svc.GetProduct(context.Background(), "cdo_31")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Gel Pen", product.Name)

	// Raw ids may themselves contain the separator; only the first one
	// splits.
	product, err = svc.GetProduct(context.Background(), "cdo_PEN-001")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Gel Pen", product.Name)
}

func TestGetProductInvalidIdentifier(t *testing.T) {
	svc := newTestService(
		&fakeAdapter{source: domain.SourceZecat},
		&fakeAdapter{source: domain.SourceCDO},
		nil,
	)

	for _, id := range []string{"", "123", "amazon_9", "_9", "zecat_"} {
		_, err := svc.GetProduct(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrInvalidIdentifier, "id %q", id)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(
		&fakeAdapter{source: domain.SourceZecat},
		&fakeAdapter{source: domain.SourceCDO},
		nil,
	)

	product, err := svc.GetProduct(context.Background(), "zecat_404")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestListCategoriesUnionTagged(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, categories: []domain.Category{
		{Source: domain.SourceZecat, ID: "1", Label: "Drinkware"},
		{Source: domain.SourceZecat, ID: "2", Label: "Bags"},
	}}
	cdo := &fakeAdapter{source: domain.SourceCDO, categories: []domain.Category{
		{Source: domain.SourceCDO, ID: "1", Label: "Office"},
	}}
	svc := newTestService(zecat, cdo, nil)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)

	require.Len(t, categories, 3)
	assert.Equal(t, domain.SourceZecat, categories[0].Source)
	assert.Equal(t, domain.SourceCDO, categories[2].Source)
	assert.Equal(t, "Office", categories[2].Label)
}

func TestListCategoriesFailingSourceOmitted(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, categories: []domain.Category{
		{Source: domain.SourceZecat, ID: "1", Label: "Drinkware"},
	}}
	cdo := &fakeAdapter{source: domain.SourceCDO, categoryErr: errors.New("down")}
	svc := newTestService(zecat, cdo, nil)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, domain.SourceZecat, categories[0].Source)
}

func TestListCategoriesStaleFallbackPerSource(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, categories: []domain.Category{
		{Source: domain.SourceZecat, ID: "1", Label: "Drinkware"},
	}}
	cdo := &fakeAdapter{source: domain.SourceCDO, categories: []domain.Category{
		{Source: domain.SourceCDO, ID: "9", Label: "Office"},
	}}
	svc := newTestService(zecat, cdo, cache.NewMemoryCache(0))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.ListCategories(context.Background())
	require.NoError(t, err)

	// Past the category TTL, CDO down: its last-known categories still
	// appear in the union.
	svc.now = func() time.Time { return start.Add(48 * time.Hour) }
	cdo.categoryErr = errors.New("down")

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Office", categories[1].Label)
}

func TestListCategoriesAllSourcesFailed(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat, categoryErr: errors.New("down")}
	cdo := &fakeAdapter{source: domain.SourceCDO, categoryErr: errors.New("down")}
	svc := newTestService(zecat, cdo, nil)

	_, err := svc.ListCategories(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestHealthCheckPerSource(t *testing.T) {
	zecat := &fakeAdapter{source: domain.SourceZecat}
	cdo := &fakeAdapter{source: domain.SourceCDO, healthErr: errors.New("unreachable")}
	svc := newTestService(zecat, cdo, nil)

	statuses := svc.HealthCheck(context.Background())

	require.Len(t, statuses, 2)
	assert.NoError(t, statuses[domain.SourceZecat])
	assert.Error(t, statuses[domain.SourceCDO])
}
