package dto

import (
	"fmt"
	"strings"

	"unified-catalog-service/internal/domain"
)

// ListProductsRequest represents query parameters for the unified
// product listing.
type ListProductsRequest struct {
	Page      int    `query:"page" json:"page" validate:"omitempty,min=1"`
	PageSize  int    `query:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
	Search    string `query:"search" json:"search" validate:"omitempty,max=200"`
	Source    string `query:"source" json:"source" validate:"omitempty,oneof=zecat cdo"`
	SkipCache bool   `query:"skip_cache" json:"skip_cache"`

	// Categories is a comma-separated list of composite category ids
	// ("zecat_12,cdo_9"). Bare raw ids are accepted only together with
	// a source restriction, which scopes them.
	Categories string `query:"categories" json:"categories" validate:"omitempty,max=500"`
}

// ToFilters converts the request to domain filters. Category refs are
// resolved here so malformed ids fail the request instead of silently
// matching nothing.
func (r *ListProductsRequest) ToFilters() (domain.UnifiedFilters, error) {
	filters := domain.UnifiedFilters{
		Page:      r.Page,
		PageSize:  r.PageSize,
		Search:    r.Search,
		Source:    domain.Source(r.Source),
		SkipCache: r.SkipCache,
	}

	for _, raw := range strings.Split(r.Categories, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		ref, err := parseCategoryRef(raw, filters.Source)
		if err != nil {
			return domain.UnifiedFilters{}, err
		}
		filters.Categories = append(filters.Categories, ref)
	}

	return filters, nil
}

// parseCategoryRef resolves one category token. Composite ids carry
// their own source; bare ids inherit the request's source restriction.
func parseCategoryRef(raw string, restriction domain.Source) (domain.CategoryRef, error) {
	src, id, err := domain.DecodeID(raw)
	if err == nil {
		return domain.CategoryRef{Source: src, ID: id}, nil
	}

	if restriction != "" {
		return domain.CategoryRef{Source: restriction, ID: raw}, nil
	}

	return domain.CategoryRef{}, fmt.Errorf("category %q: %w", raw, domain.ErrInvalidIdentifier)
}
