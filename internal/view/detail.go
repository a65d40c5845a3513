package view

import (
	"net/url"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/cart"
	"github.com/niksmo/kiksniks/internal/core/domain"
)

type Swatch struct {
	ID       string
	Color    string
	Image    string
	URL      string
	Selected bool
}

// A Detail is the product page: the selected variation plus swatches of
// the other variations matching the filters.
type Detail struct {
	Product       domain.Product
	Price         string
	OriginalPrice string
	Discount      int
	Gallery       []string
	Swatches      []Swatch
	BackURL       string
}

// BuildDetail selects variantID, or the first variation when it is not in
// the group.
func BuildDetail(g domain.ProductGroup, variantID string, f domain.FilterState) Detail {
	sel, ok := g.Variant(variantID)
	if !ok {
		sel, _ = g.First()
	}

	card := NewCard(sel, f)
	d := Detail{
		Product:       sel,
		Price:         card.Price,
		OriginalPrice: card.OriginalPrice,
		Discount:      card.Discount,
		Gallery:       sel.Gallery(),
		BackURL:       ListingURL(f, 1),
	}
	for _, v := range g.Variants {
		d.Swatches = append(d.Swatches, Swatch{
			ID:       v.ID,
			Color:    v.Color,
			Image:    v.Image,
			URL:      ProductURL(v, f),
			Selected: v.ID == sel.ID,
		})
	}
	return d
}

type CartLine struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	LineTotal string `json:"lineTotal"`
}

type CartView struct {
	Lines []CartLine `json:"items"`
	Count int        `json:"count"`
	Total string     `json:"total"`
}

func (v CartView) Empty() bool {
	return len(v.Lines) == 0
}

func BuildCart(c *cart.Cart) CartView {
	lines := c.Lines()
	v := CartView{
		Lines: make([]CartLine, len(lines)),
		Count: c.Count(),
		Total: PriceDecimal(c.Total()),
	}
	for i, it := range lines {
		v.Lines[i] = CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     Price(it.Price),
			LineTotal: PriceDecimal(cart.LineTotal(it)),
		}
	}
	return v
}

// SafeReturnPath keeps a redirect target on this site. Anything else
// becomes fallback.
func SafeReturnPath(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" ||
		!strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return u.RequestURI()
}
