package domain

import (
	"slices"
	"time"
)

// A Product is a single color variation as delivered by the product source.
// Products are immutable once fetched.
type Product struct {
	ID            string
	ProductID     string
	Name          string
	Brand         string
	Category      string
	Subcategory   string
	Gender        string
	Price         float64
	OriginalPrice float64
	Discount      float64
	Color         string
	Sizes         []string
	Image         string
	Images        []string
	ColourShown   string
	Style         string
	Origin        string
	Description   string
	IsNew         bool
	IsFeatured    bool
	IsBestSeller  bool
	DateAdded     time.Time
	Stock         int
}

// GroupKey returns the key shared by all color variations of one item.
func (p Product) GroupKey() string {
	if p.ProductID != "" {
		return p.ProductID
	}
	return p.ID
}

func (p Product) HasDiscount() bool {
	return p.Discount > 0
}

func (p Product) HasSize(size string) bool {
	return slices.Contains(p.Sizes, size)
}

// Gallery returns the related images, falling back to the main image.
func (p Product) Gallery() []string {
	if len(p.Images) != 0 {
		return p.Images
	}
	if p.Image == "" {
		return nil
	}
	return []string{p.Image}
}

// A ProductGroup holds the color variations sharing one group key,
// in source order.
type ProductGroup struct {
	Key      string
	Variants []Product
}

func (g ProductGroup) First() (Product, bool) {
	if len(g.Variants) == 0 {
		return Product{}, false
	}
	return g.Variants[0], true
}

func (g ProductGroup) Variant(id string) (Product, bool) {
	for _, v := range g.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Product{}, false
}

// A ProductFeed is one delivery of the product source. Notice is set when
// the source could not be reached and substitute data was delivered.
type ProductFeed struct {
	Products []Product
	Notice   *Toast
}

func (f ProductFeed) IsFallback() bool {
	return f.Notice != nil
}
