package catalog

import (
	"slices"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

var MenuGenders = []string{"Men", "Women", "Kids", "Unisex"}

type MenuCategory struct {
	Name          string
	Subcategories []string
}

type MenuSection struct {
	Gender     string
	Categories []MenuCategory
}

// BuildMenu derives the navigation menu: gender, then category, then
// subcategory. Products without gender or category are skipped. Genders
// with no products are omitted.
func BuildMenu(all []domain.Product) []MenuSection {
	tree := make(map[string]map[string][]string)
	for _, p := range all {
		if p.Gender == "" || p.Category == "" {
			continue
		}
		cats, ok := tree[p.Gender]
		if !ok {
			cats = make(map[string][]string)
			tree[p.Gender] = cats
		}
		subs := cats[p.Category]
		if p.Subcategory != "" {
			subs = append(subs, p.Subcategory)
		}
		cats[p.Category] = subs
	}

	var out []MenuSection
	for _, gender := range MenuGenders {
		cats, ok := tree[gender]
		if !ok {
			continue
		}
		names := make([]string, 0, len(cats))
		for name := range cats {
			names = append(names, name)
		}
		slices.Sort(names)

		section := MenuSection{Gender: gender}
		for _, name := range names {
			section.Categories = append(section.Categories, MenuCategory{
				Name:          name,
				Subcategories: uniqueSorted(cats[name]),
			})
		}
		out = append(out, section)
	}
	return out
}

// Stats are the home page counters.
type Stats struct {
	Products int
	Brands   int
}

func BuildStats(all []domain.Product) Stats {
	groups := make(map[string]struct{})
	brands := make(map[string]struct{})
	for _, p := range all {
		groups[p.GroupKey()] = struct{}{}
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
	}
	return Stats{Products: len(groups), Brands: len(brands)}
}
