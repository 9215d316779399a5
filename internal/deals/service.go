package deals

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcard-app/smartcard/internal/catalog"
	"github.com/smartcard-app/smartcard/internal/model"
	"github.com/smartcard-app/smartcard/internal/service"
)

// Service orchestrates a deals fetch: cache read, popularity-ranked store
// search, one model call per store, cache write.
type Service struct {
	clockNow func() time.Time
	catalog  *catalog.Catalog
	store    service.DealsStore
	fetcher  *Fetcher
	logger   *slog.Logger
}

// NewService creates the deals service.
func NewService(c *catalog.Catalog, store service.DealsStore, fetcher *Fetcher, logger *slog.Logger) *Service {
	return &Service{
		clockNow: time.Now,
		catalog:  c,
		store:    store,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Cached returns the user's cached deals when a fresh entry exists, along
// with its timestamp. A stale or missing entry yields (nil, nil, nil): stale
// entries are ignored, not deleted, until the next fetch overwrites them.
func (s *Service) Cached(ctx context.Context, email string) ([]model.Deal, *time.Time, error) {
	entry, err := s.store.ReadDeals(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read deals cache: %w", err)
	}
	if entry == nil || !entry.Fresh(s.clockNow()) {
		return nil, nil, nil
	}
	ts := entry.Timestamp
	return entry.Deals, &ts, nil
}

// Fetch returns deals for the user's location. Unless refresh is set, a
// fresh cache entry short-circuits the model entirely. A fetch that finds no
// stores nearby returns an empty list and caches nothing.
func (s *Service) Fetch(ctx context.Context, email string, lat, lng float64, refresh bool) (deals []model.Deal, fromCache bool, err error) {
	if !refresh {
		cached, _, err := s.Cached(ctx, email)
		if err != nil {
			return nil, false, err
		}
		if cached != nil {
			return cached, true, nil
		}
	}

	stores := s.catalog.PopularNearby(lat, lng, catalog.DealsRadiusMiles, catalog.DealsStoreLimit)
	if len(stores) == 0 {
		return []model.Deal{}, false, nil
	}

	phrases := s.fetchAll(ctx, stores)

	now := s.clockNow()
	all := make([]model.Deal, 0, len(stores)*maxDealsPerStore)
	for i, store := range stores {
		for _, text := range phrases[i] {
			all = append(all, model.Deal{
				ID:        uuid.NewString(),
				Merchant:  store.Name,
				Category:  string(store.Category),
				Distance:  math.Round(store.Distance*10) / 10,
				DealText:  text,
				Timestamp: now,
			})
		}
	}

	if err := s.store.WriteDeals(ctx, email, model.DealsCacheEntry{
		Deals:     all,
		Timestamp: now,
	}); err != nil {
		return nil, false, fmt.Errorf("failed to write deals cache: %w", err)
	}

	s.logger.Info("deals fetched",
		"user", email,
		"stores", len(stores),
		"deals", len(all))

	return all, false, nil
}

// fetchAll runs one fetch per store concurrently, preserving store order in
// the result. Each store is isolated: the fetcher degrades to fallback text
// instead of failing.
func (s *Service) fetchAll(ctx context.Context, stores []model.NearbyMerchant) [][]string {
	phrases := make([][]string, len(stores))
	var wg sync.WaitGroup

	for i, store := range stores {
		wg.Add(1)
		go func(idx int, store model.NearbyMerchant) {
			defer wg.Done()
			phrases[idx] = s.fetcher.FetchForStore(ctx, store.Name, string(store.Category))
		}(i, store)
	}

	wg.Wait()
	return phrases
}
