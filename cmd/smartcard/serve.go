package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartcard-app/smartcard/internal/catalog"
	"github.com/smartcard-app/smartcard/internal/certs"
	"github.com/smartcard-app/smartcard/internal/deals"
	"github.com/smartcard-app/smartcard/internal/llm"
	"github.com/smartcard-app/smartcard/internal/ratelimit"
	"github.com/smartcard-app/smartcard/internal/recommend"
	"github.com/smartcard-app/smartcard/internal/server"
	"github.com/smartcard-app/smartcard/internal/service"
	"github.com/smartcard-app/smartcard/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation API server",
		Long: `Start the HTTP server that answers card recommendations, manages
user wallets, and fetches promotional deals.

The merchant catalog is loaded once at startup, from the merchants table
when it has been populated by the import command, or from the JSON file
named by merchants.file otherwise.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a locally generated certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	cat, err := catalog.Load(ctx, merchantSource(store), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load merchant catalog: %w", err)
	}

	client, err := llm.NewClient(llm.Config{
		Provider:  viper.GetString("llm.provider"),
		APIKey:    viper.GetString("llm.api_key"),
		Model:     viper.GetString("llm.model"),
		Timeout:   viper.GetDuration("llm.timeout"),
		RateLimit: viper.GetInt("llm.rate_limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	logger := slog.Default()
	srv := server.New(server.Config{
		Users:        store,
		Sessions:     store,
		Recommender:  recommend.New(cat, store, logger),
		Deals:        deals.NewService(cat, store, deals.NewFetcher(client, logger), logger),
		Limiter:      ratelimit.New(),
		Logger:       logger,
		SecureCookie: viper.GetBool("server.secure_cookies"),
	})

	addr := viper.GetString("server.addr")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	useTLS := viper.GetBool("server.tls")
	if useTLS {
		cert, certErr := certManager().GetOrCreateCertificate()
		if certErr != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", certErr)
		}
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "tls", useTLS, "merchants", cat.Len())
		if useTLS {
			errCh <- httpServer.ListenAndServeTLS("", "")
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// merchantSource prefers the imported merchants table, falling back to the
// configured JSON file when the table is empty.
func merchantSource(store *storage.SQLiteStorage) service.MerchantSource {
	dbSource := storage.MerchantSource{Storage: store}
	file := viper.GetString("merchants.file")
	if file == "" {
		return dbSource
	}
	return fallbackSource{primary: dbSource, fallback: catalog.FileSource{Path: file}}
}

type fallbackSource struct {
	primary  service.MerchantSource
	fallback service.MerchantSource
}

func (s fallbackSource) Load(ctx context.Context) ([]service.MerchantRecord, error) {
	records, err := s.primary.Load(ctx)
	if err == nil {
		return records, nil
	}
	slog.Debug("primary merchant source unavailable, trying fallback", "error", err)
	return s.fallback.Load(ctx)
}

// certManager roots certificate storage next to the config directory.
func certManager() *certs.Manager {
	dir := viper.GetString("server.cert_dir")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config", "smartcard", "certs")
		} else {
			dir = "certs"
		}
	}
	return certs.NewManager(dir)
}

func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "smartcard", "smartcard.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
