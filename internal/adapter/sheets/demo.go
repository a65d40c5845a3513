package sheets

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

type demoBase struct {
	name, brand, category, subcategory string
}

var demoBases = []demoBase{
	{"Air Max 90", "Nike", "Shoes", "Running"},
	{"Air Force 1", "Nike", "Shoes", "Casual"},
	{"Ultraboost 22", "Adidas", "Shoes", "Running"},
	{"Suede Classic", "Puma", "Shoes", "Lifestyle"},
	{"574 Core", "New Balance", "Shoes", "Casual"},
	{"Chuck Taylor", "Converse", "Shoes", "Casual"},
	{"Old Skool", "Vans", "Shoes", "Lifestyle"},
	{"LeBron 20", "Nike", "Shoes", "Basketball"},
	{"Metcon 8", "Nike", "Shoes", "Training"},
	{"Tech Fleece Hoodie", "Nike", "Apparel", "Hoodies"},
	{"Training Jacket", "Adidas", "Apparel", "Jackets"},
	{"Running Shorts", "Puma", "Apparel", "Shorts"},
	{"Sports Bra", "Nike", "Apparel", "Sports Bras"},
	{"Yoga Leggings", "Adidas", "Apparel", "Leggings"},
	{"Training T-Shirt", "Puma", "Apparel", "Tops"},
	{"Backpack Elite", "Nike", "Accessories", "Bags"},
	{"Sport Socks", "Adidas", "Accessories", "Socks"},
}

var demoColors = []string{"Black", "White", "Red", "Blue", "Navy", "Gray"}

var demoColourways = map[string]string{
	"Black": "Black/Black/Black",
	"White": "White/White/White",
	"Red":   "University Red/White/Black",
	"Blue":  "Royal Blue/White/Black",
	"Navy":  "Midnight Navy/White/Grey",
	"Gray":  "Wolf Grey/White/Black",
}

var demoImages = []string{
	"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=800",
	"https://images.unsplash.com/photo-1595950653106-6c9ebd614d3a?w=800",
	"https://images.unsplash.com/photo-1608231387042-66d1773070a5?w=800",
	"https://images.unsplash.com/photo-1600185365926-3a2ce3cdb9eb?w=800",
	"https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa?w=800",
	"https://images.unsplash.com/photo-1614252369475-531eba835eb1?w=800",
}

var (
	demoGenders  = []string{"Men", "Women", "Unisex"}
	demoOrigins  = []string{"Vietnam", "China", "Indonesia", "Thailand"}
	shoeSizes    = []string{"7", "8", "9", "10", "11", "12"}
	apparelSizes = []string{"S", "M", "L", "XL", "XXL"}
)

const newWithinDays = 30

// DemoProducts generates the demo catalog: every base product in six
// colors. The same seed and day always give the same catalog.
func DemoProducts(seed uint64, now time.Time) []domain.Product {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	today := now.UTC().Truncate(24 * time.Hour)

	ps := make([]domain.Product, 0, len(demoBases)*len(demoColors))
	n := 0
	for bi, base := range demoBases {
		for _, color := range demoColors {
			n++
			ps = append(ps, demoProduct(r, today, n, bi+1, base, color))
		}
	}
	return ps
}

func demoProduct(
	r *rand.Rand, today time.Time, n, group int, base demoBase, color string,
) domain.Product {
	originalPrice := float64(r.IntN(5000) + 3000)
	price := originalPrice
	var discount float64
	if r.Float64() > 0.7 {
		discount = float64(r.IntN(30) + 10)
		price = float64(int(originalPrice * (1 - discount/100)))
	} else {
		originalPrice = 0
	}

	gender := demoGenders[r.IntN(len(demoGenders))]
	daysAgo := r.IntN(90)

	images := make([]string, 5)
	for i := range images {
		images[i] = demoImages[r.IntN(len(demoImages))]
	}

	sizes := apparelSizes
	if base.category == "Shoes" {
		sizes = shoeSizes
	}

	return domain.Product{
		ID:            fmt.Sprintf("PROD-%04d", n),
		ProductID:     fmt.Sprintf("KN-%03d", group),
		Name:          base.name,
		Brand:         base.brand,
		Category:      base.category,
		Subcategory:   base.subcategory,
		Gender:        gender,
		Price:         price,
		OriginalPrice: originalPrice,
		Discount:      discount,
		Color:         color,
		Sizes:         append([]string(nil), sizes...),
		Image:         demoImages[r.IntN(len(demoImages))],
		Images:        images,
		ColourShown:   demoColourways[color],
		Style:         demoStyle(r),
		Origin:        demoOrigins[r.IntN(len(demoOrigins))],
		Description: fmt.Sprintf(
			"Experience premium quality with the %s. Designed for %s who "+
				"demand both style and performance. Features advanced "+
				"materials and innovative design for all-day comfort.",
			base.name, strings.ToLower(gender),
		),
		IsNew:        daysAgo <= newWithinDays,
		IsFeatured:   r.Float64() > 0.85,
		IsBestSeller: r.Float64() > 0.80,
		DateAdded:    today.AddDate(0, 0, -daysAgo),
		Stock:        r.IntN(50) + 10,
	}
}

// demoStyle makes a style code like "CW2288-111".
func demoStyle(r *rand.Rand) string {
	return fmt.Sprintf("%c%c%d-%d",
		'A'+rune(r.IntN(26)),
		'A'+rune(r.IntN(26)),
		r.IntN(9000)+1000,
		r.IntN(900)+100,
	)
}
