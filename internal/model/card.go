package model

import (
	"strings"
	"time"
)

// CategoryBonus is a per-category reward rate on a credit card. Order
// matters: the first bonus whose category matches the merchant wins.
type CategoryBonus struct {
	Category string  `json:"category"`
	Rate     float64 `json:"rate"`
}

// Card is a stored credit card belonging to exactly one user.
type Card struct {
	AddedDate       time.Time       `json:"added_date"`
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	CategoryBonuses []CategoryBonus `json:"category_bonuses,omitempty"`
	BaseRate        float64         `json:"base_rate"`
}

// EffectiveRate returns the reward rate this card earns at a merchant of the
// given category: the first matching category bonus, else the base rate.
func (c *Card) EffectiveRate(category Category) float64 {
	for _, bonus := range c.CategoryBonuses {
		if strings.EqualFold(bonus.Category, string(category)) {
			return bonus.Rate
		}
	}
	return c.BaseRate
}

// GiftCard is a stored-value card belonging to exactly one user. The balance
// is never decremented here; there is no redemption flow.
type GiftCard struct {
	AddedDate time.Time `json:"added_date"`
	ID        string    `json:"id"`
	Merchant  string    `json:"merchant"`
	Category  string    `json:"category,omitempty"`
	Balance   float64   `json:"balance"`
}

// Usable reports whether the gift card has a strictly positive balance.
func (g *GiftCard) Usable() bool {
	return g.Balance > 0
}

// Matches reports whether the gift card applies to a merchant. The stored
// merchant name matching is a documented heuristic: either name may be a
// case-insensitive substring of the other ("Target" matches "Target Store
// #12" and also "Targetmania"). Independently, an exact case-insensitive
// category match also applies.
func (g *GiftCard) Matches(merchantName string, category Category) bool {
	cardName := strings.ToLower(g.Merchant)
	targetName := strings.ToLower(merchantName)
	if strings.Contains(targetName, cardName) || strings.Contains(cardName, targetName) {
		return true
	}
	return g.Category != "" && strings.EqualFold(g.Category, string(category))
}
