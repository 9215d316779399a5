package model

import "time"

// User is an account holder. Identity key is the email address,
// case-sensitive and unique.
type User struct {
	CreatedAt       time.Time  `json:"created_at"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Cards           []Card     `json:"cards"`
	GiftCards       []GiftCard `json:"gift_cards"`
	LocationEnabled bool       `json:"location_enabled"`
}
