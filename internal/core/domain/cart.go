package domain

const defaultSize = "default"

// A CartItem is one line of the cart. It keeps a copy of the product
// display fields so the cart renders without the catalog.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity"`
}

// CartItemID returns the line key for a product variation and size.
func CartItemID(productID, size string) string {
	if size == "" {
		size = defaultSize
	}
	return productID + "-" + size
}

func NewCartItem(p Product, size string) CartItem {
	return CartItem{
		ID:        CartItemID(p.ID, size),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Size:      size,
		Color:     p.Color,
		Category:  p.Category,
		Quantity:  1,
	}
}
