// Package cart implements the shopping cart line arithmetic.
package cart

import (
	"slices"

	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A Cart is an ordered list of lines with unique ids.
// The zero value is an empty cart. A Cart is not safe for concurrent use.
type Cart struct {
	items []domain.CartItem
}

// New wraps items restored from storage. Lines with a non-positive
// quantity are dropped and duplicate ids are merged.
func New(items []domain.CartItem) *Cart {
	c := &Cart{items: make([]domain.CartItem, 0, len(items))}
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if i := c.index(it.ID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(it domain.CartItem) bool {
		return it.ID == id
	})
}

// Add puts one unit of p in the given size into the cart, incrementing the
// existing line when there is one.
func (c *Cart) Add(p domain.Product, size string) domain.CartItem {
	item := domain.NewCartItem(p, size)
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity++
		return c.items[i]
	}
	c.items = append(c.items, item)
	return item
}

// UpdateQuantity sets the quantity of line id. A non-positive quantity
// removes the line. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	if i := c.index(id); i >= 0 {
		c.items[i].Quantity = quantity
	}
}

func (c *Cart) Remove(id string) {
	c.items = slices.DeleteFunc(c.items, func(it domain.CartItem) bool {
		return it.ID == id
	})
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []domain.CartItem {
	return slices.Clone(c.items)
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(LineTotal(it))
	}
	return total
}

func LineTotal(it domain.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// InquiryItems lists the cart lines in the shape submitted for a quotation.
func (c *Cart) InquiryItems() []domain.InquiryItem {
	out := make([]domain.InquiryItem, len(c.items))
	for i, it := range c.items {
		out[i] = domain.InquiryItem{
			Name:     it.Name,
			Color:    it.Color,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
		}
	}
	return out
}
