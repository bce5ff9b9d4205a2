// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"encoding/json"
	"strings"
)

// Source identifies an upstream catalog.
type Source string

const (
	SourceZecat Source = "zecat"
	SourceCDO   Source = "cdo"
)

// Valid reports whether s is a recognized source.
func (s Source) Valid() bool {
	return s == SourceZecat || s == SourceCDO
}

// Sources returns all recognized sources in merge order.
// Zecat products always precede CDO products in a unified page.
func Sources() []Source {
	return []Source{SourceZecat, SourceCDO}
}

// Category represents a product category from a single source.
// A category id is only meaningful together with its source: both
// upstreams use small numeric ids and the same id routinely exists
// in both catalogs for unrelated categories.
type Category struct {
	Source Source `json:"source"`
	ID     string `json:"id"`
	Label  string `json:"label"`
}

// Ref returns the source-scoped reference for this category.
func (c Category) Ref() CategoryRef {
	return CategoryRef{Source: c.Source, ID: c.ID}
}

// CategoryRef is a source-scoped category reference used in filters.
type CategoryRef struct {
	Source Source `json:"source"`
	ID     string `json:"id"`
}

// Product is the unified product shape from any source.
type Product struct {
	// Identity. (Source, ID) is globally unique; the same raw ID value
	// may exist in both sources for unrelated products.
	Source Source `json:"source"`
	ID     string `json:"id"`

	// SecondaryKey is an alternate upstream identifier (the CDO product
	// code). Empty for sources without one.
	SecondaryKey string `json:"secondary_key,omitempty"`

	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`

	// Images in upstream order; may be empty.
	Images []string `json:"images"`

	// Categories the product belongs to, each tagged with this
	// product's source.
	Categories []Category `json:"categories"`

	// StockTotal is the sum of all variant stocks; 0 when unknown.
	StockTotal int `json:"stock_total"`

	// Variants are retained verbatim for detail display. The
	// aggregator never interprets them.
	Variants []json.RawMessage `json:"variants,omitempty"`
}

// CompositeID returns the opaque identifier routing back to this
// product's source.
func (p *Product) CompositeID() string {
	return EncodeID(p.Source, p.ID)
}

// InCategory reports whether the product belongs to the referenced
// category. The comparison is source-scoped: a ref for another source
// never matches, even when the raw ids are equal.
func (p *Product) InCategory(ref CategoryRef) bool {
	if ref.Source != p.Source {
		return false
	}
	for _, c := range p.Categories {
		if c.ID == ref.ID {
			return true
		}
	}
	return false
}

// InAnyCategory reports whether the product matches at least one of
// the referenced categories (OR across the set). An empty set matches
// everything.
func (p *Product) InAnyCategory(refs []CategoryRef) bool {
	if len(refs) == 0 {
		return true
	}
	for _, ref := range refs {
		if p.InCategory(ref) {
			return true
		}
	}
	return false
}

// MatchesSearch reports whether the product name contains term,
// case-insensitively. An empty term matches everything.
func (p *Product) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(term))
}

// SourcePage is one source's native listing result before merging.
type SourcePage struct {
	Products   []*Product
	TotalCount int
	TotalPages int
}
