// Package storefront loads the merchant curation overlay: featured
// products, hidden categories, banners, and contact details. Curation
// is presentation-only; the aggregation core never sees it.
package storefront

import (
	"fmt"

	"github.com/spf13/viper"

	"unified-catalog-service/internal/domain"
)

// Banner is a promotional banner slot.
type Banner struct {
	Title    string `mapstructure:"title" json:"title"`
	Subtitle string `mapstructure:"subtitle" json:"subtitle,omitempty"`
	ImageURL string `mapstructure:"image_url" json:"image_url,omitempty"`
	LinkURL  string `mapstructure:"link_url" json:"link_url,omitempty"`
}

// Contact holds the merchant's contact details.
type Contact struct {
	Email    string `mapstructure:"email" json:"email,omitempty"`
	Phone    string `mapstructure:"phone" json:"phone,omitempty"`
	WhatsApp string `mapstructure:"whatsapp" json:"whatsapp,omitempty"`
	Address  string `mapstructure:"address" json:"address,omitempty"`
}

// Curation is the merchant-editable storefront configuration. The
// zero value is a valid, empty curation: nothing featured, nothing
// hidden.
type Curation struct {
	// FeaturedProductIDs are composite product ids shown on the
	// storefront front page, in display order.
	FeaturedProductIDs []string `mapstructure:"featured_product_ids"`

	// HiddenCategories are composite category refs removed from
	// category listings.
	HiddenCategories []string `mapstructure:"hidden_categories"`

	Banners []Banner `mapstructure:"banners"`
	Contact Contact  `mapstructure:"contact"`

	hidden []domain.CategoryRef
}

// Load reads a curation YAML file. An empty path returns an empty
// curation rather than an error so curation stays optional.
func Load(path string) (*Curation, error) {
	if path == "" {
		return &Curation{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading curation file: %w", err)
	}

	var c Curation
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshaling curation: %w", err)
	}

	if err := c.compile(); err != nil {
		return nil, err
	}

	return &c, nil
}

// compile resolves the composite refs up front so a typo in the file
// fails at startup, not per request.
func (c *Curation) compile() error {
	for _, id := range c.FeaturedProductIDs {
		if _, _, err := domain.DecodeID(id); err != nil {
			return fmt.Errorf("featured product %q: %w", id, err)
		}
	}

	c.hidden = c.hidden[:0]
	for _, ref := range c.HiddenCategories {
		src, rawID, err := domain.DecodeID(ref)
		if err != nil {
			return fmt.Errorf("hidden category %q: %w", ref, err)
		}
		c.hidden = append(c.hidden, domain.CategoryRef{Source: src, ID: rawID})
	}

	return nil
}

// IsHidden reports whether the category is curated out of listings.
func (c *Curation) IsHidden(category domain.Category) bool {
	for _, ref := range c.hidden {
		if ref.Source == category.Source && ref.ID == category.ID {
			return true
		}
	}

	return false
}

// VisibleCategories filters out hidden categories, keeping order.
func (c *Curation) VisibleCategories(categories []domain.Category) []domain.Category {
	if len(c.hidden) == 0 {
		return categories
	}

	visible := make([]domain.Category, 0, len(categories))
	for _, category := range categories {
		if !c.IsHidden(category) {
			visible = append(visible, category)
		}
	}

	return visible
}
