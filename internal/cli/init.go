// Package cli provides common initialization for the tracker binary:
// logging, .env loading, config validation and store setup.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/youserz/finance-tracker/internal/config"
	applog "github.com/youserz/finance-tracker/internal/log"
	"github.com/youserz/finance-tracker/internal/storage"
)

// SetupLogger initializes structured logging and installs it as the
// default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files
// are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration or exits the process on
// validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens and initializes the SQLite ledger or exits the process
// on failure.
func InitStore(ctx context.Context, logger *applog.Logger, dbPath string) *storage.SQLiteStore {
	store := storage.NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		logger.Error("Failed to initialize ledger store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	slog.Info("Ledger store ready", "path", dbPath)
	return store
}
