// Package catalog holds the process-lifetime merchant catalog and the
// nearby-merchant searches that run against it.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/smartcard-app/smartcard/internal/geo"
	"github.com/smartcard-app/smartcard/internal/model"
	"github.com/smartcard-app/smartcard/internal/service"
)

// Default search parameters.
const (
	// RecommendRadiusMiles bounds the radius search used for card
	// recommendations.
	RecommendRadiusMiles = 2.0
	// DealsRadiusMiles is the default radius for the popularity-biased
	// search feeding deal fetches.
	DealsRadiusMiles = 5.0
	// DealsStoreLimit is the default number of stores a deals fetch covers.
	DealsStoreLimit = 3
)

// categoryMap remaps raw OSM tag vocabulary onto recognized categories.
// Records whose category is neither a raw tag here nor already a recognized
// value are dropped at load time.
var categoryMap = map[string]model.Category{
	"supermarket":      model.CategoryGrocery,
	"convenience":      model.CategoryGrocery,
	"restaurant":       model.CategoryRestaurant,
	"fast_food":        model.CategoryRestaurant,
	"cafe":             model.CategoryRestaurant,
	"fuel":             model.CategoryGas,
	"pharmacy":         model.CategoryPharmacy,
	"clothes":          model.CategoryRetail,
	"electronics":      model.CategoryRetail,
	"department_store": model.CategoryRetail,
}

// popularChains are name fragments of well-known chains, matched
// case-insensitively as substrings when ranking stores for deals.
var popularChains = []string{
	"walmart", "target", "costco", "kroger", "safeway", "whole foods",
	"cvs", "walgreens", "best buy", "home depot", "lowe's", "macy",
	"starbucks", "mcdonalds", "chipotle", "panera", "olive garden",
}

// Catalog is an immutable collection of merchants, built once at startup.
// It needs no locking: every method is a read over the same slice.
type Catalog struct {
	merchants []model.Merchant
}

// Load builds the catalog from a merchant source, remapping raw categories
// and dropping anything unrecognized. A source failure is fatal: the catalog
// is foundational to every recommendation.
func Load(ctx context.Context, src service.MerchantSource, logger *slog.Logger) (*Catalog, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant source: %w", err)
	}

	merchants := make([]model.Merchant, 0, len(records))
	dropped := 0
	for _, rec := range records {
		category, ok := remapCategory(rec.Category)
		if !ok {
			dropped++
			continue
		}
		merchants = append(merchants, model.Merchant{
			Name:     rec.Name,
			Category: category,
			Lat:      rec.Lat,
			Lng:      rec.Lon,
		})
	}

	logger.Info("merchant catalog loaded",
		"merchants", len(merchants),
		"dropped", dropped)

	return &Catalog{merchants: merchants}, nil
}

// remapCategory maps a source category onto a recognized one. Recognized
// values pass through unchanged; raw OSM tags are translated.
func remapCategory(raw string) (model.Category, bool) {
	if c := model.Category(raw); c.Valid() {
		return c, true
	}
	c, ok := categoryMap[raw]
	return c, ok
}

// Len returns the number of merchants in the catalog.
func (c *Catalog) Len() int {
	return len(c.merchants)
}

// Merchants exposes the catalog as a read-only ordered sequence.
func (c *Catalog) Merchants() []model.Merchant {
	return c.merchants
}

// Nearby returns every merchant within radius miles of the point, sorted
// ascending by distance.
func (c *Catalog) Nearby(lat, lng, radius float64) []model.NearbyMerchant {
	var nearby []model.NearbyMerchant
	for _, m := range c.merchants {
		distance := geo.Distance(lat, lng, m.Lat, m.Lng)
		if distance <= radius {
			nearby = append(nearby, model.NearbyMerchant{
				Merchant: m,
				Distance: distance,
			})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})

	return nearby
}

// PopularNearby returns up to limit merchants within radius miles, popular
// chains first regardless of distance, then by distance ascending, with
// duplicate names removed (first occurrence wins).
func (c *Catalog) PopularNearby(lat, lng, radius float64, limit int) []model.NearbyMerchant {
	var stores []model.NearbyMerchant
	for _, m := range c.merchants {
		distance := geo.Distance(lat, lng, m.Lat, m.Lng)
		if distance <= radius {
			stores = append(stores, model.NearbyMerchant{
				Merchant: m,
				Distance: distance,
				Popular:  isPopularChain(m.Name),
			})
		}
	}

	sort.Slice(stores, func(i, j int) bool {
		if stores[i].Popular != stores[j].Popular {
			return stores[i].Popular
		}
		return stores[i].Distance < stores[j].Distance
	})

	seen := make(map[string]struct{}, len(stores))
	unique := stores[:0]
	for _, store := range stores {
		if _, ok := seen[store.Name]; ok {
			continue
		}
		seen[store.Name] = struct{}{}
		unique = append(unique, store)
	}

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// isPopularChain reports whether the merchant name contains any well-known
// chain fragment.
func isPopularChain(name string) bool {
	lower := strings.ToLower(name)
	for _, chain := range popularChains {
		if strings.Contains(lower, chain) {
			return true
		}
	}
	return false
}
