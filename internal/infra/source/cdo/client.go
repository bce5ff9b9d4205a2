// Package cdo implements the CDO promotional-products catalog client.
//
// The CDO API differs from Zecat in three ways the rest of the system
// depends on: listings are a bare JSON array without a pagination
// envelope, filtering accepts at most one category id, and there is no
// reliable direct by-id endpoint, so single-product lookups scan a
// large listing page.
package cdo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/fetch"
	"unified-catalog-service/internal/infra/source"
)

// ProductsEndpoint is the API path under the configured base URL.
const ProductsEndpoint = "/products"

const (
	// scanLimit is the page size for by-id listing scans.
	scanLimit = 1000

	// categorySampleSize bounds the listing sample that categories are
	// extracted from; the API has no dedicated categories endpoint.
	categorySampleSize = 50
)

// Client implements domain.SourceAdapter for the CDO API.
type Client struct {
	client  *resty.Client
	cb      *gobreaker.CircuitBreaker[*resty.Response]
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a new CDO client. Authentication is a query-string token
// attached to every request.
func New(cfg source.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client:  source.NewRestyClient(cfg).SetQueryParam("auth_token", cfg.AuthToken),
		cb:      source.NewCircuitBreaker[*resty.Response](string(domain.SourceCDO), cfg.CB),
		limiter: source.NewLimiter(cfg.RateLimit),
		logger:  logger,
	}
}

// Source returns the adapter identity.
func (c *Client) Source() domain.Source {
	return domain.SourceCDO
}

// ListProducts fetches one native page of products. Only the first
// requested category is forwarded; the aggregator re-filters locally
// for the rest.
func (c *Client) ListProducts(ctx context.Context, query domain.ListQuery) (*domain.SourcePage, error) {
	params := map[string]string{}
	if query.Page > 0 {
		params["page_number"] = strconv.Itoa(query.Page)
	}
	if query.PageSize > 0 {
		params["page_size"] = strconv.Itoa(query.PageSize)
	}
	if query.Search != "" {
		params["search"] = query.Search
	}
	if len(query.CategoryIDs) > 0 {
		params["category_id"] = query.CategoryIDs[0]
	}

	records, err := c.fetchListing(ctx, params)
	if err != nil {
		c.logger.Warn("cdo list products failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("cdo list products: %w", err)
	}

	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].ToDomain(c.Source()))
	}

	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = len(products)
	}

	c.logger.Debug("cdo list products completed", zap.Int("count", len(products)))

	// The listing carries no totals; derive them from what came back.
	return &domain.SourcePage{
		Products:   products,
		TotalCount: len(products),
		TotalPages: domain.TotalPages(len(products), max(pageSize, 1)),
	}, nil
}

// GetProduct fetches a single product by raw id. The raw id is
// matched against the numeric id first, then against the secondary
// product code. Returns (nil, nil) when nothing matches.
func (c *Client) GetProduct(ctx context.Context, rawID string) (*domain.Product, error) {
	records, err := c.fetchListing(ctx, map[string]string{"page_size": strconv.Itoa(scanLimit)})
	if err != nil {
		c.logger.Warn("cdo product scan failed",
			zap.String("raw_id", rawID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("cdo get product %s: %w", rawID, err)
	}

	if id, convErr := strconv.Atoi(rawID); convErr == nil {
		for i := range records {
			if records[i].ID == id {
				return records[i].ToDomain(c.Source()), nil
			}
		}
	}
	for i := range records {
		if records[i].Code == rawID {
			return records[i].ToDomain(c.Source()), nil
		}
	}

	return nil, nil
}

// ListCategories extracts the distinct categories from a listing
// sample, preserving first-seen order.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	records, err := c.fetchListing(ctx, map[string]string{"page_size": strconv.Itoa(categorySampleSize)})
	if err != nil {
		c.logger.Warn("cdo list categories failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("cdo list categories: %w", err)
	}

	seen := make(map[int]bool)
	var categories []domain.Category
	for i := range records {
		for _, cat := range records[i].Categories {
			if seen[cat.ID] {
				continue
			}
			seen[cat.ID] = true
			categories = append(categories, domain.Category{
				Source: c.Source(),
				ID:     strconv.Itoa(cat.ID),
				Label:  cat.Name,
			})
		}
	}

	c.logger.Debug("cdo list categories completed", zap.Int("count", len(categories)))

	return categories, nil
}

// HealthCheck verifies the upstream is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("page_size", "1").
		Get(ProductsEndpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fetch.StatusError(resp.StatusCode())
	}

	return nil
}

// fetchListing runs one listing request through the rate limiter and
// circuit breaker and decodes the bare-array payload.
func (c *Client) fetchListing(ctx context.Context, params map[string]string) ([]Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetQueryParams(params).
			Get(ProductsEndpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fetch.StatusError(r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		return nil, err
	}

	var records []Product
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fetch.MalformedError(err)
	}

	return records, nil
}
