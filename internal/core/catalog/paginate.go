package catalog

import "github.com/niksmo/kiksniks/internal/core/domain"

const DefaultPageSize = 6

// Ellipsis marks a gap in a page window.
const Ellipsis = 0

type Page struct {
	Items      []domain.Product
	Number     int
	Size       int
	TotalItems int
	TotalPages int
	// First and Last are 1-based positions of the shown items,
	// both 0 for an empty page.
	First int
	Last  int
}

func (p Page) HasPrev() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// TotalPages is ceil(total/size); zero for an empty list.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate slices ps into the requested page. number is clamped to the
// available range, so out-of-range requests land on the first or last page.
func Paginate(ps []domain.Product, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := TotalPages(len(ps), size)
	number = max(number, 1)
	if pages > 0 {
		number = min(number, pages)
	} else {
		number = 1
	}

	p := Page{
		Number:     number,
		Size:       size,
		TotalItems: len(ps),
		TotalPages: pages,
	}
	if pages == 0 {
		return p
	}

	start := (number - 1) * size
	end := min(start+size, len(ps))
	p.Items = ps[start:end]
	p.First = start + 1
	p.Last = end
	return p
}

// PageWindow returns the page numbers to show around current, with
// Ellipsis for gaps. Up to seven pages are listed in full.
func PageWindow(current, total int) []int {
	if total <= 1 {
		return nil
	}
	if total <= 7 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	switch {
	case current <= 3:
		return []int{1, 2, 3, 4, 5, Ellipsis, total}
	case current >= total-2:
		return []int{1, Ellipsis, total - 4, total - 3, total - 2, total - 1, total}
	default:
		return []int{1, Ellipsis, current - 1, current, current + 1, Ellipsis, total}
	}
}
