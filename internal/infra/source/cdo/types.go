package cdo

import (
	"encoding/json"
	"strconv"

	"unified-catalog-service/internal/domain"
)

// Category is a CDO product category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Picture holds the resolutions of one variant picture.
type Picture struct {
	Small    string `json:"small"`
	Medium   string `json:"medium"`
	Original string `json:"original"`
}

// variantView is the subset of a variant the normalizer inspects.
// Variants stay raw on the domain product; only stock, price and
// picture are read here.
type variantView struct {
	StockAvailable int     `json:"stock_available"`
	NetPrice       string  `json:"net_price"`
	Picture        Picture `json:"picture"`
}

// Product is a single product record from the CDO API.
type Product struct {
	ID          int               `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Categories  []Category        `json:"categories"`
	Variants    []json.RawMessage `json:"variants"`
}

// ToDomain converts a Product to a domain.Product tagged with the
// given source.
func (p *Product) ToDomain(source domain.Source) *domain.Product {
	categories := make([]domain.Category, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, domain.Category{
			Source: source,
			ID:     strconv.Itoa(c.ID),
			Label:  c.Name,
		})
	}

	var (
		images     []string
		stockTotal int
		price      float64
	)
	for _, raw := range p.Variants {
		var v variantView
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		stockTotal += v.StockAvailable
		if url := v.Picture.pick(); url != "" {
			images = append(images, url)
		}
		if price == 0 {
			if parsed, err := strconv.ParseFloat(v.NetPrice, 64); err == nil {
				price = parsed
			}
		}
	}

	return &domain.Product{
		Source:       source,
		ID:           strconv.Itoa(p.ID),
		SecondaryKey: p.Code,
		Name:         p.Name,
		Description:  p.Description,
		Price:        price,
		Images:       images,
		Categories:   categories,
		StockTotal:   stockTotal,
		Variants:     p.Variants,
	}
}

// pick returns the best available resolution.
func (p *Picture) pick() string {
	switch {
	case p.Original != "":
		return p.Original
	case p.Medium != "":
		return p.Medium
	default:
		return p.Small
	}
}
