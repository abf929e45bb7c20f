// Package product defines the catalog value types shared by the cache
// coordinator and its storage backends.
package product

// Rating is the aggregate review score attached to a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a single catalog entry. Instances are treated as immutable
// values; identity is the ID field.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}
