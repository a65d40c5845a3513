package view

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

// Query parameters of the product listing.
const (
	ParamPage       = "p"
	ParamMin        = "min"
	ParamMax        = "max"
	ParamNew        = "new"
	ParamFeatured   = "featured"
	ParamBestSeller = "bestseller"
	ParamSale       = "sale"
	ParamSort       = "sort"
	ParamQuery      = "q"
)

// ParseFilter reads a filter state from the listing query. Unknown or
// malformed values fall back to the defaults.
func ParseFilter(q url.Values) domain.FilterState {
	f := domain.NewFilterState()
	for _, d := range domain.Dimensions {
		f = f.With(d, cleanValues(q[string(d)]))
	}

	if v, ok := parsePrice(q.Get(ParamMin)); ok {
		f.Price.Min = v
	}
	if v, ok := parsePrice(q.Get(ParamMax)); ok {
		f.Price.Max = v
	}
	if f.Price.Min > f.Price.Max {
		f.Price.Min, f.Price.Max = f.Price.Max, f.Price.Min
	}

	f.IsNew = parseFlag(q.Get(ParamNew))
	f.IsFeatured = parseFlag(q.Get(ParamFeatured))
	f.IsBestSeller = parseFlag(q.Get(ParamBestSeller))
	f.HasDiscount = parseFlag(q.Get(ParamSale))
	f.Sort = domain.ParseSortKey(q.Get(ParamSort))
	f.Query = strings.TrimSpace(q.Get(ParamQuery))
	return f
}

// ParsePage returns the requested page number, 1 when absent or invalid.
func ParsePage(q url.Values) int {
	n, err := strconv.Atoi(q.Get(ParamPage))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// FilterQuery encodes f. Default values are left out so that equal
// states give equal URLs.
func FilterQuery(f domain.FilterState) url.Values {
	q := url.Values{}
	for _, d := range domain.Dimensions {
		for _, v := range f.Values(d) {
			q.Add(string(d), v)
		}
	}
	if f.Price.Min != domain.DefaultMinPrice {
		q.Set(ParamMin, formatPrice(f.Price.Min))
	}
	if f.Price.Max != domain.DefaultMaxPrice {
		q.Set(ParamMax, formatPrice(f.Price.Max))
	}
	setFlag(q, ParamNew, f.IsNew)
	setFlag(q, ParamFeatured, f.IsFeatured)
	setFlag(q, ParamBestSeller, f.IsBestSeller)
	setFlag(q, ParamSale, f.HasDiscount)
	if f.Sort != "" && f.Sort != domain.SortFeatured {
		q.Set(ParamSort, string(f.Sort))
	}
	if f.Query != "" {
		q.Set(ParamQuery, f.Query)
	}
	return q
}

// ListingURL links to page n of the listing filtered by f.
func ListingURL(f domain.FilterState, n int) string {
	q := FilterQuery(f)
	q.Set("page", "products")
	if n > 1 {
		q.Set(ParamPage, strconv.Itoa(n))
	}
	return "/?" + q.Encode()
}

func cleanValues(vs []string) []string {
	var out []string
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func setFlag(q url.Values, key string, on bool) {
	if on {
		q.Set(key, "1")
	}
}

// A Field is a hidden form input.
type Field struct {
	Name  string
	Value string
}

// FilterFields lists f as hidden inputs so a GET form can change some
// parameters and keep the rest. Parameters named in skip are left out.
func FilterFields(f domain.FilterState, skip ...string) []Field {
	q := FilterQuery(f)
	for _, k := range skip {
		q.Del(k)
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Field
	for _, k := range keys {
		for _, v := range q[k] {
			out = append(out, Field{Name: k, Value: v})
		}
	}
	return out
}
