package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smartcard-app/smartcard/internal/model"
)

// ReadDeals returns the user's cached deals document, or (nil, nil) when no
// entry exists. Staleness is the caller's concern; stale rows stay until
// overwritten.
func (s *SQLiteStorage) ReadDeals(ctx context.Context, email string) (*model.DealsCacheEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	var deals string
	var fetchedAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT deals, fetched_at FROM deals_cache WHERE email = ?`, email).Scan(&deals, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deals cache: %w", err)
	}

	entry := model.DealsCacheEntry{Timestamp: fetchedAt}
	if err := json.Unmarshal([]byte(deals), &entry.Deals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deals for %s: %w", email, err)
	}

	return &entry, nil
}

// WriteDeals replaces the user's deals document wholesale. The UPSERT runs
// as a single statement, so a replace is atomic per user and writers for
// different users never contend.
func (s *SQLiteStorage) WriteDeals(ctx context.Context, email string, entry model.DealsCacheEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(email, "email"); err != nil {
		return err
	}

	deals := entry.Deals
	if deals == nil {
		deals = []model.Deal{}
	}
	data, err := json.Marshal(deals)
	if err != nil {
		return fmt.Errorf("failed to marshal deals: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deals_cache (email, deals, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET deals = excluded.deals, fetched_at = excluded.fetched_at`,
		email, string(data), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to write deals cache: %w", err)
	}

	return nil
}
