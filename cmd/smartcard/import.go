package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/smartcard-app/smartcard/internal/service"
)

const importBatchSize = 500

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import merchant data into the database",
		Long: `Load a merchant JSON export into the merchants table.

The file is a flat array of {name, category, lat, lon} objects, the
format produced by the OSM extract tooling. Categories are stored
as-is; the catalog remaps and filters them at load time.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("replace", false, "Clear existing merchants before importing")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	replace, _ := cmd.Flags().GetBool("replace")
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read merchant file: %w", err)
	}

	var records []service.MerchantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse merchant file %s: %w", path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("merchant file %s contains no records", path)
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if replace {
		if err := store.ClearMerchants(ctx); err != nil {
			return err
		}
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing merchants..."),
	)

	for start := 0; start < len(records); start += importBatchSize {
		end := start + importBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := store.InsertMerchants(ctx, records[start:end]); err != nil {
			return err
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	slog.Info("✅ Merchant import complete", "merchants", len(records), "file", path)

	return nil
}
