package domain

import "slices"

type SortKey string

const (
	SortFeatured    SortKey = "featured"
	SortNewest      SortKey = "newest"
	SortPriceAsc    SortKey = "price-asc"
	SortPriceDesc   SortKey = "price-desc"
	SortNameAsc     SortKey = "name-asc"
	SortBestSellers SortKey = "best-sellers"
)

var SortKeys = []SortKey{
	SortFeatured,
	SortNewest,
	SortPriceAsc,
	SortPriceDesc,
	SortNameAsc,
	SortBestSellers,
}

func ParseSortKey(s string) SortKey {
	k := SortKey(s)
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortFeatured
}

// A Dimension names a multi-valued filter.
type Dimension string

const (
	DimCategory    Dimension = "category"
	DimSubcategory Dimension = "subcategory"
	DimGender      Dimension = "gender"
	DimBrand       Dimension = "brand"
	DimSize        Dimension = "size"
	DimColor       Dimension = "color"
)

var Dimensions = []Dimension{
	DimCategory,
	DimSubcategory,
	DimGender,
	DimBrand,
	DimSize,
	DimColor,
}

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 20000
)

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice}
}

func (r PriceRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r PriceRange) IsDefault() bool {
	return r == DefaultPriceRange()
}

// A FilterState is the full set of catalog selections.
// Methods never mutate the receiver.
type FilterState struct {
	Category     []string   `json:"category,omitempty"`
	Subcategory  []string   `json:"subcategory,omitempty"`
	Gender       []string   `json:"gender,omitempty"`
	Brands       []string   `json:"brands,omitempty"`
	Sizes        []string   `json:"sizes,omitempty"`
	Colors       []string   `json:"colors,omitempty"`
	Price        PriceRange `json:"priceRange"`
	IsNew        bool       `json:"isNew,omitempty"`
	IsFeatured   bool       `json:"isFeatured,omitempty"`
	IsBestSeller bool       `json:"isBestSeller,omitempty"`
	HasDiscount  bool       `json:"hasDiscount,omitempty"`
	Query        string     `json:"query,omitempty"`
	Sort         SortKey    `json:"sortBy"`
}

func NewFilterState() FilterState {
	return FilterState{
		Price: DefaultPriceRange(),
		Sort:  SortFeatured,
	}
}

// HasSpecific reports whether a size or color filter is active.
func (f FilterState) HasSpecific() bool {
	return len(f.Sizes) != 0 || len(f.Colors) != 0
}

// IsActive reports whether anything narrows the result set.
func (f FilterState) IsActive() bool {
	return f.HasSpecific() ||
		len(f.Category) != 0 ||
		len(f.Subcategory) != 0 ||
		len(f.Gender) != 0 ||
		len(f.Brands) != 0 ||
		f.IsNew || f.IsFeatured || f.IsBestSeller || f.HasDiscount ||
		f.Query != "" ||
		!f.Price.IsDefault()
}

func (f FilterState) Values(d Dimension) []string {
	switch d {
	case DimCategory:
		return f.Category
	case DimSubcategory:
		return f.Subcategory
	case DimGender:
		return f.Gender
	case DimBrand:
		return f.Brands
	case DimSize:
		return f.Sizes
	case DimColor:
		return f.Colors
	}
	return nil
}

func (f FilterState) Selected(d Dimension, value string) bool {
	return slices.Contains(f.Values(d), value)
}

// With returns a copy where dimension d holds vs.
func (f FilterState) With(d Dimension, vs []string) FilterState {
	vs = slices.Clone(vs)
	switch d {
	case DimCategory:
		f.Category = vs
	case DimSubcategory:
		f.Subcategory = vs
	case DimGender:
		f.Gender = vs
	case DimBrand:
		f.Brands = vs
	case DimSize:
		f.Sizes = vs
	case DimColor:
		f.Colors = vs
	}
	return f
}

// Toggle adds value to dimension d, or removes it when already selected.
func (f FilterState) Toggle(d Dimension, value string) FilterState {
	cur := f.Values(d)
	if i := slices.Index(cur, value); i >= 0 {
		return f.With(d, slices.Delete(slices.Clone(cur), i, i+1))
	}
	return f.With(d, append(slices.Clone(cur), value))
}

// Without removes value from every multi-valued dimension.
func (f FilterState) Without(value string) FilterState {
	for _, d := range Dimensions {
		cur := f.Values(d)
		if !slices.Contains(cur, value) {
			continue
		}
		next := slices.DeleteFunc(slices.Clone(cur), func(v string) bool {
			return v == value
		})
		f = f.With(d, next)
	}
	return f
}

// ActiveValues lists the removable tags in display order.
func (f FilterState) ActiveValues() []string {
	var out []string
	out = append(out, f.Category...)
	out = append(out, f.Subcategory...)
	out = append(out, f.Gender...)
	out = append(out, f.Sizes...)
	out = append(out, f.Colors...)
	out = append(out, f.Brands...)
	return out
}

// Cleared keeps the sort order and drops every other selection.
func (f FilterState) Cleared() FilterState {
	c := NewFilterState()
	c.Sort = f.Sort
	return c
}
