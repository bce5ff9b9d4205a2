package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"unified-catalog-service/internal/app/service"
	"unified-catalog-service/internal/storefront"
	"unified-catalog-service/internal/transport/httpserver/dto"
)

// StorefrontHandler serves the merchant curation overlay.
type StorefrontHandler struct {
	service  *service.CatalogService
	curation *storefront.Curation
	logger   *zap.Logger
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(svc *service.CatalogService, curation *storefront.Curation, logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service:  svc,
		curation: curation,
		logger:   logger,
	}
}

// Get handles GET /api/v1/storefront
//
// Featured products are resolved live; a featured id that no longer
// resolves is dropped from the response rather than failing it, so a
// delisted upstream product cannot break the storefront.
func (h *StorefrontHandler) Get(c *fiber.Ctx) error {
	featured := make([]dto.ProductResponse, 0, len(h.curation.FeaturedProductIDs))

	for _, id := range h.curation.FeaturedProductIDs {
		product, err := h.service.GetProduct(c.Context(), id)
		if err != nil {
			h.logger.Warn("featured product unavailable",
				zap.String("id", id),
				zap.Error(err),
			)

			continue
		}
		if product == nil {
			h.logger.Warn("featured product no longer listed", zap.String("id", id))

			continue
		}

		featured = append(featured, dto.FromDomainProduct(product))
	}

	return c.JSON(dto.StorefrontResponse{
		Featured: featured,
		Banners:  h.curation.Banners,
		Contact:  h.curation.Contact,
	})
}
