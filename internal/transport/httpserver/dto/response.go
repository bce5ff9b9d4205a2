package dto

import (
	"encoding/json"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/storefront"
)

// ProductResponse represents a single product in the response. The id
// is the composite form; raw_id keeps the upstream's own id for
// clients that need it.
type ProductResponse struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	RawID       string             `json:"raw_id"`
	Code        string             `json:"code,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Price       float64            `json:"price"`
	Currency    string             `json:"currency,omitempty"`
	Images      []string           `json:"images,omitempty"`
	Categories  []CategoryResponse `json:"categories,omitempty"`
	StockTotal  int                `json:"stock_total"`
	Variants    []json.RawMessage  `json:"variants,omitempty"`
}

// FromDomainProduct converts domain.Product to ProductResponse.
func FromDomainProduct(p *domain.Product) ProductResponse {
	categories := make([]CategoryResponse, len(p.Categories))
	for i, c := range p.Categories {
		categories[i] = FromDomainCategory(c)
	}

	return ProductResponse{
		ID:          p.CompositeID(),
		Source:      string(p.Source),
		RawID:       p.ID,
		Code:        p.SecondaryKey,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Images:      p.Images,
		Categories:  categories,
		StockTotal:  p.StockTotal,
		Variants:    p.Variants,
	}
}

// CategoryResponse represents a category tagged with its source. The
// id is composite so it can be fed straight back into the categories
// filter.
type CategoryResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	RawID  string `json:"raw_id"`
	Label  string `json:"label"`
}

// FromDomainCategory converts domain.Category to CategoryResponse.
func FromDomainCategory(c domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:     domain.EncodeID(c.Source, c.ID),
		Source: string(c.Source),
		RawID:  c.ID,
		Label:  c.Label,
	}
}

// ProductsResponse represents a unified listing page.
type ProductsResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination PaginationMeta    `json:"pagination"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// FromCatalogPage converts domain.CatalogPage to ProductsResponse.
func FromCatalogPage(page *domain.CatalogPage) ProductsResponse {
	products := make([]ProductResponse, len(page.Products))
	for i, p := range page.Products {
		products[i] = FromDomainProduct(p)
	}

	return ProductsResponse{
		Products: products,
		Pagination: PaginationMeta{
			Total:      page.TotalCount,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// CategoriesResponse represents the category union response.
type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// FromDomainCategories converts a category slice to CategoriesResponse.
func FromDomainCategories(categories []domain.Category) CategoriesResponse {
	resp := CategoriesResponse{Categories: make([]CategoryResponse, len(categories))}
	for i, c := range categories {
		resp.Categories[i] = FromDomainCategory(c)
	}

	return resp
}

// StorefrontResponse represents the curation overlay with featured
// products resolved.
type StorefrontResponse struct {
	Featured []ProductResponse   `json:"featured"`
	Banners  []storefront.Banner `json:"banners,omitempty"`
	Contact  storefront.Contact  `json:"contact"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
