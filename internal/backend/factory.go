package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
	"bilancio/internal/storage/sqlstore"
)

// Open creates the store selected by config. The caller closes it.
func Open(ctx context.Context, config Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		logger.Warn("Using in-memory backend, data is lost on restart")
		return memory.New(), nil
	case SQLiteBackend, PostgresBackend:
		dialect, _ := sqlstore.DialectFor(config.Type.String())
		store, err := sqlstore.Open(ctx, dialect, config.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
		}
		logger.Info("Initialized SQL backend", "backend", config.Type)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Migrate applies pending migrations without keeping a store open.
func Migrate(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	dialect, ok := sqlstore.DialectFor(config.Type.String())
	if !ok {
		return fmt.Errorf("backend %s has no migrations", config.Type)
	}
	return sqlstore.RunMigrations(dialect, config.DSN())
}
