// Package model defines the core domain types shared across the application.
package model

// Category is one of the recognized merchant categories. Merchant records
// carrying anything else are dropped when the catalog is built.
type Category string

// Recognized merchant categories.
const (
	CategoryGrocery    Category = "grocery"
	CategoryRestaurant Category = "restaurant"
	CategoryGas        Category = "gas"
	CategoryPharmacy   Category = "pharmacy"
	CategoryRetail     Category = "retail"
)

// Categories lists every recognized category.
func Categories() []Category {
	return []Category{
		CategoryGrocery,
		CategoryRestaurant,
		CategoryGas,
		CategoryPharmacy,
		CategoryRetail,
	}
}

// Valid reports whether the category is one of the recognized values.
func (c Category) Valid() bool {
	switch c {
	case CategoryGrocery, CategoryRestaurant, CategoryGas, CategoryPharmacy, CategoryRetail:
		return true
	}
	return false
}

// Merchant is a physical point-of-sale location. Immutable after the catalog
// is loaded.
type Merchant struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
}

// NearbyMerchant is a merchant paired with its computed distance from a query
// point, in miles. Popular is set only by the popularity-biased search.
type NearbyMerchant struct {
	Merchant
	Distance float64 `json:"distance"`
	Popular  bool    `json:"is_popular,omitempty"`
}

// Point is a query location in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
