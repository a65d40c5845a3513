// Package catalog holds the pure product listing logic: filtering,
// variant deduplication, ordering, pagination and the derived
// navigation data. Nothing here mutates its input.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Apply returns the ordered listing for f: Filter, then Deduplicate,
// then Sort.
func Apply(all []domain.Product, f domain.FilterState) []domain.Product {
	filtered := Filter(all, f)
	deduped := Deduplicate(filtered, f)
	Sort(deduped, f.Sort)
	return deduped
}

// Filter keeps the products satisfying every active predicate.
func Filter(all []domain.Product, f domain.FilterState) []domain.Product {
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if Matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p passes every active predicate of f.
func Matches(p domain.Product, f domain.FilterState) bool {
	return matchesAttributes(p, f) &&
		matchesSizes(p, f.Sizes) &&
		matchesQuery(p, f.Query)
}

// matchesAttributes covers every predicate except sizes and the free-text
// query. The detail view narrows variants with it.
func matchesAttributes(p domain.Product, f domain.FilterState) bool {
	switch {
	case !in(f.Category, p.Category):
		return false
	case !in(f.Subcategory, p.Subcategory):
		return false
	case !in(f.Gender, p.Gender):
		return false
	case !in(f.Brands, p.Brand):
		return false
	case !in(f.Colors, p.Color):
		return false
	case f.IsNew && !p.IsNew:
		return false
	case f.IsFeatured && !p.IsFeatured:
		return false
	case f.IsBestSeller && !p.IsBestSeller:
		return false
	case f.HasDiscount && !p.HasDiscount():
		return false
	}
	return f.Price.Contains(p.Price)
}

// in treats an empty selection as "any".
func in(selected []string, v string) bool {
	return len(selected) == 0 || slices.Contains(selected, v)
}

func matchesSizes(p domain.Product, sizes []string) bool {
	if len(sizes) == 0 {
		return true
	}
	return slices.ContainsFunc(p.Sizes, func(s string) bool {
		return slices.Contains(sizes, s)
	})
}

func matchesQuery(p domain.Product, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, field := range []string{
		p.Name, p.Brand, p.Category, p.Subcategory, p.Color,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Deduplicate collapses color variations.
//
// Without a size or color filter only the first variation of each group
// is kept. With one, the first variation per (group, color) is kept so
// every matching color gets a card. Groups keep the position of their
// first appearance.
func Deduplicate(ps []domain.Product, f domain.FilterState) []domain.Product {
	if !f.HasSpecific() {
		return firstPerKey(ps, domain.Product.GroupKey)
	}

	groups := GroupProducts(ps)
	out := make([]domain.Product, 0, len(ps))
	for _, key := range groups.Keys() {
		g, _ := groups.Group(key)
		out = append(out, firstPerKey(g.Variants, func(p domain.Product) string {
			return p.Color
		})...)
	}
	return out
}

func firstPerKey(
	ps []domain.Product, keyFn func(domain.Product) string,
) []domain.Product {
	seen := make(map[string]struct{}, len(ps))
	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		k := keyFn(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Sort orders ps in place. Every ordering is stable, so featured and
// best-sellers only move flagged products to the front.
func Sort(ps []domain.Product, key domain.SortKey) {
	switch key {
	case domain.SortPriceAsc:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case domain.SortNameAsc:
		c := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	case domain.SortNewest:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return b.DateAdded.Compare(a.DateAdded)
		})
	case domain.SortFeatured:
		slices.SortStableFunc(ps, flagFirst(func(p domain.Product) bool {
			return p.IsFeatured
		}))
	case domain.SortBestSellers:
		slices.SortStableFunc(ps, flagFirst(func(p domain.Product) bool {
			return p.IsBestSeller
		}))
	}
}

func flagFirst(flag func(domain.Product) bool) func(a, b domain.Product) int {
	rank := func(p domain.Product) int {
		if flag(p) {
			return 0
		}
		return 1
	}
	return func(a, b domain.Product) int {
		return cmp.Compare(rank(a), rank(b))
	}
}
