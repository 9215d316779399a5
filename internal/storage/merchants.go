package storage

import (
	"context"
	"fmt"

	"github.com/smartcard-app/smartcard/internal/service"
)

// InsertMerchants appends a batch of raw merchant records, as produced by
// the import command. Records are stored with their source vocabulary; the
// catalog remaps and filters on load.
func (s *SQLiteStorage) InsertMerchants(ctx context.Context, records []service.MerchantRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merchant insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO merchants (name, category, lat, lon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare merchant insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Name, rec.Category, rec.Lat, rec.Lon); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert merchant %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merchant insert: %w", err)
	}

	return nil
}

// ClearMerchants empties the merchants table before a re-import.
func (s *SQLiteStorage) ClearMerchants(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM merchants`); err != nil {
		return fmt.Errorf("failed to clear merchants: %w", err)
	}
	return nil
}

// MerchantSource adapts the merchants table to service.MerchantSource so the
// catalog can be built from imported data instead of a JSON file.
type MerchantSource struct {
	Storage *SQLiteStorage
}

// Load reads every merchant row in insertion order.
func (m MerchantSource) Load(ctx context.Context) ([]service.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := m.Storage.db.QueryContext(ctx,
		`SELECT name, category, lat, lon FROM merchants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.MerchantRecord
	for rows.Next() {
		var rec service.MerchantRecord
		if err := rows.Scan(&rec.Name, &rec.Category, &rec.Lat, &rec.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merchants: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("merchants table is empty; run the import command first")
	}

	return records, nil
}
