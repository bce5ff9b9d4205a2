// Package zecat implements the Zecat generic-products catalog client.
package zecat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/fetch"
	"unified-catalog-service/internal/infra/source"
)

// API paths under the configured base URL.
const (
	ProductsEndpoint = "/generic_product"
	FamiliesEndpoint = "/family/"
)

// scanLimit is the page size used when falling back to a full-listing
// scan because the direct by-id endpoint rejected the lookup.
const scanLimit = 1000

// Client implements domain.SourceAdapter for the Zecat API.
type Client struct {
	client  *resty.Client
	cb      *gobreaker.CircuitBreaker[*resty.Response]
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a new Zecat client.
func New(cfg source.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client:  source.NewRestyClient(cfg).SetAuthToken(cfg.AuthToken),
		cb:      source.NewCircuitBreaker[*resty.Response](string(domain.SourceZecat), cfg.CB),
		limiter: source.NewLimiter(cfg.RateLimit),
		logger:  logger,
	}
}

// Source returns the adapter identity.
func (c *Client) Source() domain.Source {
	return domain.SourceZecat
}

// ListProducts fetches one native page of products.
func (c *Client) ListProducts(ctx context.Context, query domain.ListQuery) (*domain.SourcePage, error) {
	params := url.Values{}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		params.Set("limit", strconv.Itoa(query.PageSize))
	}
	if query.Search != "" {
		params.Set("name", query.Search)
	}
	for _, id := range query.CategoryIDs {
		params.Add("families[]", id)
	}

	resp, err := c.execute(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParamsFromValues(params).Get(ProductsEndpoint)
	})
	if err != nil {
		c.logger.Warn("zecat list products failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("zecat list products: %w", err)
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("zecat list products: %w", fetch.MalformedError(err))
	}

	products := make([]*domain.Product, 0, len(result.GenericProducts))
	for i := range result.GenericProducts {
		products = append(products, result.GenericProducts[i].ToDomain(c.Source()))
	}

	c.logger.Debug("zecat list products completed",
		zap.Int("count", len(products)),
		zap.Int("total_count", result.Count),
	)

	return &domain.SourcePage{
		Products:   products,
		TotalCount: result.Count,
		TotalPages: result.TotalPages,
	}, nil
}

// GetProduct fetches a single product by raw id. The direct endpoint
// occasionally answers with the product nested under a
// "generic_product" envelope, or rejects ids it served in listings;
// on rejection the client scans a large listing page instead.
func (c *Client) GetProduct(ctx context.Context, rawID string) (*domain.Product, error) {
	resp, err := c.execute(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(ProductsEndpoint + "/" + url.PathEscape(rawID))
	})
	if err != nil {
		c.logger.Debug("zecat direct product lookup failed, scanning listing",
			zap.String("raw_id", rawID),
			zap.Error(err),
		)

		return c.scanForProduct(ctx, rawID)
	}

	product, err := decodeProductResponse(resp.Body(), rawID)
	if err != nil {
		return nil, fmt.Errorf("zecat get product %s: %w", rawID, err)
	}
	if product == nil {
		return c.scanForProduct(ctx, rawID)
	}

	return product.ToDomain(c.Source()), nil
}

// ListCategories fetches the family listing.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.execute(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(FamiliesEndpoint)
	})
	if err != nil {
		c.logger.Warn("zecat list families failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("zecat list families: %w", err)
	}

	var result FamiliesResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("zecat list families: %w", fetch.MalformedError(err))
	}

	categories := make([]domain.Category, 0, len(result.Families))
	for _, f := range result.Families {
		categories = append(categories, domain.Category{
			Source: c.Source(),
			ID:     f.ID,
			Label:  f.Label(),
		})
	}

	c.logger.Debug("zecat list families completed", zap.Int("count", len(categories)))

	return categories, nil
}

// HealthCheck verifies the upstream is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		Get(ProductsEndpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fetch.StatusError(resp.StatusCode())
	}

	return nil
}

// execute runs one request through the rate limiter and circuit
// breaker, converting error statuses into typed fetch errors.
func (c *Client) execute(ctx context.Context, call func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.cb.Execute(func() (*resty.Response, error) {
		r, err := call(c.client.R().SetContext(ctx))
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fetch.StatusError(r.StatusCode())
		}

		return r, nil
	})
}

// scanForProduct matches rawID against a large listing page. Returns
// (nil, nil) when no product matches.
func (c *Client) scanForProduct(ctx context.Context, rawID string) (*domain.Product, error) {
	page, err := c.ListProducts(ctx, domain.ListQuery{Page: 1, PageSize: scanLimit})
	if err != nil {
		return nil, err
	}
	for _, p := range page.Products {
		if p.ID == rawID {
			return p, nil
		}
	}

	return nil, nil
}

// decodeProductResponse handles the direct endpoint's response shapes:
// the product itself, or a "generic_product" envelope holding either
// one product or an array. Returns (nil, nil) when the payload decodes
// but holds no product with the requested id.
func decodeProductResponse(body []byte, rawID string) (*GenericProduct, error) {
	var direct GenericProduct
	if err := json.Unmarshal(body, &direct); err == nil && direct.ID == rawID {
		return &direct, nil
	}

	var envelope struct {
		GenericProduct json.RawMessage `json:"generic_product"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fetch.MalformedError(err)
	}
	if len(envelope.GenericProduct) == 0 {
		return nil, nil
	}

	var single GenericProduct
	if err := json.Unmarshal(envelope.GenericProduct, &single); err == nil && single.ID != "" {
		return &single, nil
	}

	var many []GenericProduct
	if err := json.Unmarshal(envelope.GenericProduct, &many); err != nil {
		return nil, fetch.MalformedError(err)
	}
	for i := range many {
		if many[i].ID == rawID {
			return &many[i], nil
		}
	}

	return nil, nil
}
