package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

var (
	CategoryOptions = []string{"Shoes", "Apparel", "Accessories"}
	GenderOptions   = []string{"Men", "Women", "Unisex", "Kids"}
	letterSizes     = []string{"XS", "S", "M", "L", "XL", "XXL", "XXXL"}
)

// Facets are the selectable options of the filter panel.
type Facets struct {
	Categories []string
	Genders    []string
	Brands     []string
	Sizes      []string
	Colors     []string
}

// BuildFacets derives the options from the whole catalog. Sizes only come
// from the selected categories, so shoe sizes disappear when browsing apparel.
func BuildFacets(all []domain.Product, f domain.FilterState) Facets {
	var brands, colors, sizes []string
	for _, p := range all {
		brands = append(brands, p.Brand)
		colors = append(colors, p.Color)
		if in(f.Category, p.Category) {
			sizes = append(sizes, p.Sizes...)
		}
	}
	return Facets{
		Categories: CategoryOptions,
		Genders:    GenderOptions,
		Brands:     uniqueSorted(brands),
		Colors:     uniqueSorted(colors),
		Sizes:      SortSizes(sizes),
	}
}

func uniqueSorted(vs []string) []string {
	out := slices.DeleteFunc(slices.Clone(vs), func(v string) bool {
		return v == ""
	})
	slices.Sort(out)
	return slices.Compact(out)
}

// SortSizes de-duplicates sizes and orders them numeric first (ascending),
// then letter sizes from XS to XXXL, then anything else alphabetically.
func SortSizes(sizes []string) []string {
	uniq := uniqueSorted(sizes)
	slices.SortStableFunc(uniq, func(a, b string) int {
		ga, gb := sizeGroup(a), sizeGroup(b)
		if ga != gb {
			return cmp.Compare(ga, gb)
		}
		switch ga {
		case 0:
			na, _ := strconv.ParseFloat(strings.TrimSpace(a), 64)
			nb, _ := strconv.ParseFloat(strings.TrimSpace(b), 64)
			return cmp.Compare(na, nb)
		case 1:
			return cmp.Compare(
				slices.Index(letterSizes, a), slices.Index(letterSizes, b),
			)
		}
		return strings.Compare(a, b)
	})
	return uniq
}

func sizeGroup(s string) int {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return 0
	}
	if slices.Contains(letterSizes, s) {
		return 1
	}
	return 2
}
