// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/smartcard-app/smartcard/internal/model"
)

// UserStore defines the contract for user persistence. Read results must
// reflect the most recent write from the same process.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ReplaceCards(ctx context.Context, email string, cards []model.Card) error
	ReplaceGiftCards(ctx context.Context, email string, giftCards []model.GiftCard) error
	SetLocationEnabled(ctx context.Context, email string, enabled bool) error
}

// DealsStore defines the contract for the per-user deals cache documents.
// ReadDeals returns (nil, nil) when no entry exists for the user; staleness
// is the caller's concern. WriteDeals replaces the user's document wholesale
// and must be atomic per user.
type DealsStore interface {
	ReadDeals(ctx context.Context, email string) (*model.DealsCacheEntry, error)
	WriteDeals(ctx context.Context, email string, entry model.DealsCacheEntry) error
}

// SessionStore defines the contract for server-side session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, token, email string, expiresAt time.Time) error
	// FindSession returns the email the token belongs to, or
	// common.ErrNotFound when the token is unknown or expired.
	FindSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// MerchantRecord is one raw record from a merchant source. Category carries
// the source vocabulary (raw OSM tags or already-remapped values); the
// catalog performs the remap and filter.
type MerchantRecord struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// MerchantSource supplies the records the merchant catalog is built from.
type MerchantSource interface {
	Load(ctx context.Context) ([]MerchantRecord, error)
}

// TextGenerator is the capability boundary around the external generative
// model: one prompt in, free-form text out. Implementations must honor
// context cancellation and deadlines.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetryOptions configures retry behavior for transient failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
