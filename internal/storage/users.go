package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smartcard-app/smartcard/internal/common"
	"github.com/smartcard-app/smartcard/internal/model"
)

// CreateUser inserts a new user. The email is the identity key; inserting an
// existing email fails with common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	cards, err := json.Marshal(emptyIfNilCards(user.Cards))
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}
	giftCards, err := json.Marshal(emptyIfNilGiftCards(user.GiftCards))
	if err != nil {
		return fmt.Errorf("failed to marshal gift cards: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (email, id, name, password_hash, cards, gift_cards, location_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.ID, user.Name, user.PasswordHash,
		string(cards), string(giftCards), user.LocationEnabled, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", common.ErrDuplicateEntry, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail returns the user identified by email, or common.ErrNotFound.
func (s *SQLiteStorage) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	var user model.User
	var cards, giftCards string

	err := s.db.QueryRowContext(ctx, `
		SELECT email, id, name, password_hash, cards, gift_cards, location_enabled, created_at
		FROM users WHERE email = ?`, email).Scan(
		&user.Email, &user.ID, &user.Name, &user.PasswordHash,
		&cards, &giftCards, &user.LocationEnabled, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := json.Unmarshal([]byte(cards), &user.Cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cards for %s: %w", email, err)
	}
	if err := json.Unmarshal([]byte(giftCards), &user.GiftCards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gift cards for %s: %w", email, err)
	}

	return &user, nil
}

// ReplaceCards replaces the user's card list wholesale in a single UPDATE.
func (s *SQLiteStorage) ReplaceCards(ctx context.Context, email string, cards []model.Card) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(email, "email"); err != nil {
		return err
	}

	data, err := json.Marshal(emptyIfNilCards(cards))
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}

	return s.updateUserColumn(ctx, email, "cards", string(data))
}

// ReplaceGiftCards replaces the user's gift-card list wholesale.
func (s *SQLiteStorage) ReplaceGiftCards(ctx context.Context, email string, giftCards []model.GiftCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(email, "email"); err != nil {
		return err
	}

	data, err := json.Marshal(emptyIfNilGiftCards(giftCards))
	if err != nil {
		return fmt.Errorf("failed to marshal gift cards: %w", err)
	}

	return s.updateUserColumn(ctx, email, "gift_cards", string(data))
}

// SetLocationEnabled sets the user's location-opt-in flag.
func (s *SQLiteStorage) SetLocationEnabled(ctx context.Context, email string, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(email, "email"); err != nil {
		return err
	}

	return s.updateUserColumn(ctx, email, "location_enabled", enabled)
}

// updateUserColumn updates one column on the user row, reporting
// common.ErrNotFound for unknown emails. The column name comes from a fixed
// caller-supplied set, never user input.
func (s *SQLiteStorage) updateUserColumn(ctx context.Context, email, column string, value any) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ? WHERE email = ?`, column), value, email)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, email)
	}

	return nil
}

func emptyIfNilCards(cards []model.Card) []model.Card {
	if cards == nil {
		return []model.Card{}
	}
	return cards
}

func emptyIfNilGiftCards(giftCards []model.GiftCard) []model.GiftCard {
	if giftCards == nil {
		return []model.GiftCard{}
	}
	return giftCards
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
