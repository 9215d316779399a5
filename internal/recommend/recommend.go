// Package recommend implements the card selection policy: given the
// merchants near a point and the user's stored instruments, pick the single
// best one to pay with.
package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartcard-app/smartcard/internal/catalog"
	"github.com/smartcard-app/smartcard/internal/model"
	"github.com/smartcard-app/smartcard/internal/service"
)

// Outcome distinguishes the shapes a recommendation can take, so callers can
// message "nothing near you" differently from "you have nothing to use".
type Outcome string

// Recommendation outcomes.
const (
	OutcomeGiftCard   Outcome = "gift_card"
	OutcomeCreditCard Outcome = "credit_card"
	// OutcomeNoMerchants means no merchant was inside the search radius.
	OutcomeNoMerchants Outcome = "no_merchants"
	// OutcomeNoInstrument means a merchant was found but the user holds
	// nothing worth recommending there.
	OutcomeNoInstrument Outcome = "no_instrument"
)

// Result is the full recommendation: the chosen instrument, the chosen
// merchant, the ranked nearby list, and the query point, so a caller can
// render alternatives.
type Result struct {
	GiftCard  *model.GiftCard        `json:"gift_card,omitempty"`
	Card      *model.Card            `json:"card,omitempty"`
	Merchant  *model.NearbyMerchant  `json:"merchant,omitempty"`
	Outcome   Outcome                `json:"type"`
	Message   string                 `json:"message,omitempty"`
	AllNearby []model.NearbyMerchant `json:"all_nearby,omitempty"`
	Location  model.Point            `json:"location"`
	Rate      float64                `json:"rate,omitempty"`
}

// Recommender answers "what should I pay with here?".
type Recommender struct {
	catalog *catalog.Catalog
	users   service.UserStore
	logger  *slog.Logger
}

// New creates a Recommender over an immutable catalog and a user store.
func New(c *catalog.Catalog, users service.UserStore, logger *slog.Logger) *Recommender {
	return &Recommender{
		catalog: c,
		users:   users,
		logger:  logger,
	}
}

// ForLocation recommends an instrument for the user at the given point.
// Gift cards with usable balances take precedence over credit cards so
// stored value gets drawn down before rewards accrue elsewhere.
func (r *Recommender) ForLocation(ctx context.Context, email string, lat, lng float64) (*Result, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	result := &Result{Location: model.Point{Lat: lat, Lng: lng}}

	nearby := r.catalog.Nearby(lat, lng, catalog.RecommendRadiusMiles)
	if len(nearby) == 0 {
		result.Outcome = OutcomeNoMerchants
		return result, nil
	}

	best := nearby[0]
	result.Merchant = &best
	result.AllNearby = nearby

	if giftCard := matchGiftCard(user.GiftCards, best.Name, best.Category); giftCard != nil {
		result.Outcome = OutcomeGiftCard
		result.GiftCard = giftCard
		result.Message = fmt.Sprintf("Use your %s gift card!", giftCard.Merchant)

		r.logger.Debug("gift card recommended",
			"merchant", best.Name,
			"gift_card", giftCard.Merchant,
			"distance", best.Distance)
		return result, nil
	}

	card, rate := bestCard(user.Cards, best.Category)
	if card == nil {
		result.Outcome = OutcomeNoInstrument
		return result, nil
	}

	result.Outcome = OutcomeCreditCard
	result.Card = card
	result.Rate = rate

	r.logger.Debug("credit card recommended",
		"merchant", best.Name,
		"card", card.ID,
		"rate", rate,
		"distance", best.Distance)
	return result, nil
}

// matchGiftCard returns the first stored gift card that matches the merchant
// and carries a usable balance. The first match short-circuits credit-card
// evaluation entirely.
func matchGiftCard(giftCards []model.GiftCard, merchantName string, category model.Category) *model.GiftCard {
	for i := range giftCards {
		gc := &giftCards[i]
		if gc.Matches(merchantName, category) && gc.Usable() {
			return gc
		}
	}
	return nil
}

// bestCard returns the card with the strictly greatest effective rate at the
// merchant's category. Ties keep the earliest-seen card: only a strictly
// greater rate displaces the current pick. A card whose effective rate is 0
// is never picked.
func bestCard(cards []model.Card, category model.Category) (*model.Card, float64) {
	var best *model.Card
	bestRate := 0.0

	for i := range cards {
		rate := cards[i].EffectiveRate(category)
		if rate > bestRate {
			bestRate = rate
			best = &cards[i]
		}
	}

	return best, bestRate
}
