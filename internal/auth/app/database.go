package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store/memory"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// OpenStore opens the configured store and applies its migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case DriverSQLite, "":
		db, err = sqlite.NewStore(cfg.DatabaseFile)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("AUTH_DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL, postgres.Options{
			MaxConns:        cfg.DatabaseMaxConns,
			MaxConnIdleTime: cfg.DatabaseIdleTime,
		})
	case DriverMemory:
		logger.Warn("using in-memory store, all data is lost on restart")
		db = memory.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}
