// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"unified-catalog-service/internal/app/service"
	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/fetch"
	"unified-catalog-service/internal/storefront"
	"unified-catalog-service/internal/transport/httpserver/dto"
	"unified-catalog-service/internal/validator"
)

// CatalogHandler handles catalog-related HTTP requests.
type CatalogHandler struct {
	service   *service.CatalogService
	curation  *storefront.Curation
	validator *validator.Validator
	logger    *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(
	svc *service.CatalogService,
	curation *storefront.Curation,
	v *validator.Validator,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		service:   svc,
		curation:  curation,
		validator: v,
		logger:    logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var req dto.ListProductsRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	filters, err := req.ToFilters()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_CATEGORY",
		})
	}

	page, err := h.service.ListProducts(c.Context(), filters)
	if err != nil {
		return h.catalogError(c, err, "listing failed")
	}

	return c.JSON(dto.FromCatalogPage(page))
}

// GetProduct handles GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	product, err := h.service.GetProduct(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "malformed product id",
				Code:  "INVALID_ID",
			})
		}

		return h.catalogError(c, err, "product lookup failed")
	}

	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "product not found",
			Code:  "NOT_FOUND",
		})
	}

	return c.JSON(dto.FromDomainProduct(product))
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.Context())
	if err != nil {
		return h.catalogError(c, err, "category listing failed")
	}

	return c.JSON(dto.FromDomainCategories(h.curation.VisibleCategories(categories)))
}

// catalogError maps service failures to status codes: total catalog
// unavailability is 503, a single upstream failing a direct lookup is
// 502, anything else 500.
func (h *CatalogHandler) catalogError(c *fiber.Ctx, err error, msg string) error {
	h.logger.Error(msg, zap.String("path", c.Path()), zap.Error(err))

	if errors.Is(err, domain.ErrCatalogUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "catalog temporarily unavailable",
			Code:  "CATALOG_UNAVAILABLE",
		})
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "upstream source error",
			Code:  "UPSTREAM_ERROR",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: msg,
		Code:  "INTERNAL_ERROR",
	})
}
