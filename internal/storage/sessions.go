package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smartcard-app/smartcard/internal/common"
)

// CreateSession persists a session token for the user.
func (s *SQLiteStorage) CreateSession(ctx context.Context, token, email string, expiresAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(token, "token"); err != nil {
		return err
	}
	if err := validateString(email, "email"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, expires_at) VALUES (?, ?, ?)`,
		token, email, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// FindSession returns the email a live token belongs to. Unknown and expired
// tokens both report common.ErrNotFound; expired rows are deleted lazily.
func (s *SQLiteStorage) FindSession(ctx context.Context, token string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(token, "token"); err != nil {
		return "", err
	}

	var email string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT email, expires_at FROM sessions WHERE token = ?`, token).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: session", common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query session: %w", err)
	}

	if time.Now().After(expiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return "", fmt.Errorf("%w: session expired", common.ErrNotFound)
	}

	return email, nil
}

// DeleteSession removes a session token. Deleting an unknown token is a
// no-op.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(token, "token"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
