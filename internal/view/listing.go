package view

import (
	"fmt"
	"math"
	"net/url"

	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/service"
)

// A Card is one product tile of the listing.
type Card struct {
	ID            string   `json:"id"`
	GroupKey      string   `json:"productId"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	Color         string   `json:"color"`
	Image         string   `json:"image"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice,omitempty"`
	Discount      int      `json:"discount,omitempty"`
	IsNew         bool     `json:"isNew"`
	IsBestSeller  bool     `json:"isBestSeller"`
	Sizes         []string `json:"sizes"`
	URL           string   `json:"url"`
}

type FacetOption struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
	URL      string `json:"url"`
}

type FacetGroup struct {
	Dimension domain.Dimension `json:"dimension"`
	Title     string           `json:"title"`
	Options   []FacetOption    `json:"options"`
}

type ActiveTag struct {
	Label     string `json:"label"`
	RemoveURL string `json:"removeUrl"`
}

type SortOption struct {
	Key      domain.SortKey `json:"key"`
	Label    string         `json:"label"`
	Selected bool           `json:"selected"`
	URL      string         `json:"url"`
}

// A PageLink is a pagination entry. Ellipsis entries have no URL.
type PageLink struct {
	Number   int    `json:"number,omitempty"`
	URL      string `json:"url,omitempty"`
	Current  bool   `json:"current,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
}

type Listing struct {
	Cards      []Card       `json:"items"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	TotalItems int          `json:"totalItems"`
	Results    string       `json:"results"`
	Facets     []FacetGroup `json:"facets"`
	Tags       []ActiveTag  `json:"activeFilters"`
	ClearURL   string       `json:"clearUrl"`
	Pages      []PageLink   `json:"pages"`
	PrevURL    string       `json:"prevUrl,omitempty"`
	NextURL    string       `json:"nextUrl,omitempty"`
	Sort       []SortOption `json:"sort"`
	PriceMin   float64      `json:"priceMin"`
	PriceMax   float64      `json:"priceMax"`
	Query      string       `json:"query,omitempty"`

	Filter domain.FilterState `json:"-"`
}

func (l Listing) Empty() bool {
	return len(l.Cards) == 0
}

var sortLabels = map[domain.SortKey]string{
	domain.SortFeatured:    "Featured",
	domain.SortNewest:      "Newest",
	domain.SortPriceAsc:    "Price: Low to High",
	domain.SortPriceDesc:   "Price: High to Low",
	domain.SortNameAsc:     "Name: A-Z",
	domain.SortBestSellers: "Best Sellers",
}

// BuildListing prepares one page of the catalog for rendering.
func BuildListing(cv service.CatalogView) Listing {
	f := cv.Filter
	l := Listing{
		Page:       cv.Number,
		TotalPages: cv.TotalPages,
		TotalItems: cv.TotalItems,
		Results:    resultsText(cv.Page),
		ClearURL:   ListingURL(f.Cleared(), 1),
		PriceMin:   f.Price.Min,
		PriceMax:   f.Price.Max,
		Query:      f.Query,
		Filter:     f,
	}

	l.Cards = make([]Card, len(cv.Items))
	for i, p := range cv.Items {
		l.Cards[i] = NewCard(p, f)
	}

	l.Facets = buildFacets(cv.Facets, f)
	for _, v := range f.ActiveValues() {
		l.Tags = append(l.Tags, ActiveTag{
			Label:     v,
			RemoveURL: ListingURL(f.Without(v), 1),
		})
	}

	for _, n := range cv.Window {
		if n == catalog.Ellipsis {
			l.Pages = append(l.Pages, PageLink{Ellipsis: true})
			continue
		}
		l.Pages = append(l.Pages, PageLink{
			Number:  n,
			URL:     ListingURL(f, n),
			Current: n == cv.Number,
		})
	}
	if cv.HasPrev() {
		l.PrevURL = ListingURL(f, cv.Number-1)
	}
	if cv.HasNext() {
		l.NextURL = ListingURL(f, cv.Number+1)
	}

	for _, k := range domain.SortKeys {
		sorted := f
		sorted.Sort = k
		l.Sort = append(l.Sort, SortOption{
			Key:      k,
			Label:    sortLabels[k],
			Selected: k == f.Sort,
			URL:      ListingURL(sorted, 1),
		})
	}
	return l
}

func resultsText(p catalog.Page) string {
	if p.TotalItems == 0 {
		return "No products found"
	}
	return fmt.Sprintf("Showing %d-%d of %d results", p.First, p.Last, p.TotalItems)
}

// NewCard links the tile to the product detail, keeping the filters so
// the detail shows the matching variations.
func NewCard(p domain.Product, f domain.FilterState) Card {
	c := Card{
		ID:           p.ID,
		GroupKey:     p.GroupKey(),
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		Color:        p.Color,
		Image:        p.Image,
		Price:        Price(p.Price),
		IsNew:        p.IsNew,
		IsBestSeller: p.IsBestSeller,
		Sizes:        p.Sizes,
		URL:          ProductURL(p, f),
	}
	if p.HasDiscount() {
		c.Discount = int(math.Round(p.Discount))
		if p.OriginalPrice > p.Price {
			c.OriginalPrice = Price(p.OriginalPrice)
		}
	}
	return c
}

func ProductURL(p domain.Product, f domain.FilterState) string {
	q := FilterQuery(f)
	q.Set("variant", p.ID)
	return "/products/" + url.PathEscape(p.GroupKey()) + "?" + q.Encode()
}

func buildFacets(fs catalog.Facets, f domain.FilterState) []FacetGroup {
	groups := []struct {
		d      domain.Dimension
		title  string
		values []string
	}{
		{domain.DimCategory, "Category", fs.Categories},
		{domain.DimGender, "Gender", fs.Genders},
		{domain.DimBrand, "Brand", fs.Brands},
		{domain.DimSize, "Size", fs.Sizes},
		{domain.DimColor, "Color", fs.Colors},
	}

	out := make([]FacetGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.values) == 0 {
			continue
		}
		fg := FacetGroup{Dimension: g.d, Title: g.title}
		for _, v := range g.values {
			fg.Options = append(fg.Options, FacetOption{
				Value:    v,
				Selected: f.Selected(g.d, v),
				URL:      ListingURL(f.Toggle(g.d, v), 1),
			})
		}
		out = append(out, fg)
	}
	return out
}
