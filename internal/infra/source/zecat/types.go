package zecat

import (
	"encoding/json"

	"unified-catalog-service/internal/domain"
)

// Response represents the JSON listing response from the Zecat API.
type Response struct {
	TotalPages      int              `json:"total_pages"`
	Count           int              `json:"count"`
	GenericProducts []GenericProduct `json:"generic_products"`
}

// FamiliesResponse represents the family (category) listing response.
type FamiliesResponse struct {
	Families []Family `json:"families"`
}

// Family is a Zecat category.
type Family struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Title       string `json:"title"`
	IconURL     string `json:"icon_url,omitempty"`
}

// Image holds a single product image URL.
type Image struct {
	ImageURL string `json:"image_url"`
}

// GenericProduct is a single product record from the Zecat API.
// Variant records under "products" are kept raw; only their stock is
// inspected, for the stock total.
type GenericProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Families    []Family          `json:"families"`
	Images      []Image           `json:"images"`
	Products    []json.RawMessage `json:"products"`
	Stock       int               `json:"stock"`
}

// ToDomain converts a GenericProduct to a domain.Product tagged with
// the given source.
func (p *GenericProduct) ToDomain(source domain.Source) *domain.Product {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.ImageURL != "" {
			images = append(images, img.ImageURL)
		}
	}

	categories := make([]domain.Category, 0, len(p.Families))
	for _, f := range p.Families {
		categories = append(categories, domain.Category{
			Source: source,
			ID:     f.ID,
			Label:  f.Label(),
		})
	}

	return &domain.Product{
		Source:      source,
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Images:      images,
		Categories:  categories,
		StockTotal:  p.stockTotal(),
		Variants:    p.Products,
	}
}

// Label returns the display label for a family. Some families carry
// only a description, some only a title.
func (f *Family) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Description
}

// stockTotal sums variant stocks, falling back to the product-level
// stock field when variants carry none.
func (p *GenericProduct) stockTotal() int {
	total := 0
	for _, raw := range p.Products {
		var v struct {
			Stock int `json:"stock"`
		}
		if err := json.Unmarshal(raw, &v); err == nil {
			total += v.Stock
		}
	}
	if total == 0 {
		return p.Stock
	}
	return total
}
