package domain

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// UnifiedFilters holds a caller's catalog listing query after
// normalization by the transport layer.
type UnifiedFilters struct {
	// Page is 1-based. Out-of-range pages clamp, they never error.
	Page     int
	PageSize int

	// Categories restricts to products matching ANY of the referenced
	// categories. Every ref is source-scoped.
	Categories []CategoryRef

	// Search is a case-insensitive substring match against names.
	Search string

	// Source restricts the query to one upstream; empty means both.
	Source Source

	// SkipCache disables cache read and write for this call only.
	SkipCache bool
}

// Normalize clamps paging values into acceptable bounds. Page size is
// capped irrespective of the caller's request to bound the cost of a
// single aggregation and protect the upstreams.
func (f *UnifiedFilters) Normalize(defaultPageSize, maxPageSize int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// CacheKey returns a stable key for the filter set. Equal filters
// always hash to the same key regardless of category order. SkipCache
// does not participate: it controls whether the cache is consulted,
// not what would be stored.
func (f *UnifiedFilters) CacheKey() string {
	cats := make([]string, len(f.Categories))
	for i, ref := range f.Categories {
		cats[i] = string(ref.Source) + IDSeparator + ref.ID
	}
	sort.Strings(cats)

	h := fnv.New64a()
	fmt.Fprintf(h, "page=%d|size=%d|source=%s|search=%s|cats=%s",
		f.Page, f.PageSize, f.Source, strings.ToLower(f.Search), strings.Join(cats, ","))

	return fmt.Sprintf("products:%016x", h.Sum64())
}

// CatalogPage is the unified listing result envelope.
type CatalogPage struct {
	Products []*Product `json:"products"`

	// TotalCount is the number of matching products across all queried
	// sources after filtering, before pagination.
	TotalCount int `json:"total_count"`

	// TotalPages is always at least 1, even for an empty result.
	TotalPages int `json:"total_pages"`

	// Page actually served; 1 <= Page <= TotalPages.
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TotalPages computes ceil(totalCount/pageSize) with a minimum of 1.
func TotalPages(totalCount, pageSize int) int {
	if totalCount <= 0 {
		return 1
	}
	pages := totalCount / pageSize
	if totalCount%pageSize > 0 {
		pages++
	}
	return pages
}

// ClampPage clamps a requested 1-based page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// NewCatalogPage paginates the merged, filtered product sequence.
// The requested page is clamped rather than rejected.
func NewCatalogPage(merged []*Product, page, pageSize int) *CatalogPage {
	totalCount := len(merged)
	totalPages := TotalPages(totalCount, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}

	return &CatalogPage{
		Products:   merged[start:end],
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}
}
