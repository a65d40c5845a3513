package catalog

import (
	"errors"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrNoMatchingVariant = errors.New("no color variations match current filters")
)

// Groups indexes products by group key, keeping first-appearance order
// of the keys and source order inside each group.
type Groups struct {
	keys  []string
	byKey map[string][]domain.Product
}

func GroupProducts(ps []domain.Product) Groups {
	g := Groups{byKey: make(map[string][]domain.Product)}
	for _, p := range ps {
		k := p.GroupKey()
		if _, ok := g.byKey[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.byKey[k] = append(g.byKey[k], p)
	}
	return g
}

func (g Groups) Len() int {
	return len(g.keys)
}

func (g Groups) Keys() []string {
	return g.keys
}

func (g Groups) Group(key string) (domain.ProductGroup, bool) {
	vs, ok := g.byKey[key]
	if !ok {
		return domain.ProductGroup{}, false
	}
	return domain.ProductGroup{Key: key, Variants: vs}, true
}

// Variants returns the variations of group key matching the current
// filters. Sizes and the search query are ignored: the size is picked
// on the detail view itself.
func (g Groups) Variants(
	key string, f domain.FilterState,
) (domain.ProductGroup, error) {
	group, ok := g.Group(key)
	if !ok {
		return domain.ProductGroup{}, ErrProductNotFound
	}

	var vs []domain.Product
	for _, v := range group.Variants {
		if matchesAttributes(v, f) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return domain.ProductGroup{}, ErrNoMatchingVariant
	}
	return domain.ProductGroup{Key: key, Variants: vs}, nil
}
