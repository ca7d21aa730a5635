package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agb-planner/planner/internal/config"
	"github.com/agb-planner/planner/internal/db/driver"
)

// Open builds the coordinator described by cfg.
//
// The demo store is always created and, when cfg.Fixtures is set, seeded.
// A persistent backend that cannot be opened is logged and the coordinator
// starts in fallback mode; only bad fixtures fail the call.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	demo := NewMemoryBackend()
	if cfg.Fixtures != "" {
		fx, err := LoadFixtures(cfg.Fixtures)
		if err != nil {
			return nil, err
		}
		res, err := Seed(ctx, demo, fx)
		if err != nil {
			return nil, fmt.Errorf("seed demo storage: %w", err)
		}
		logger.Info("demo storage seeded", "source", cfg.Fixtures,
			"teams", res.Teams, "projects", res.Projects,
			"milestones", res.Milestones, "tasks", res.Tasks)
	}

	primary, err := OpenPrimary(ctx, cfg)
	if err != nil {
		logger.Warn("persistent storage unavailable, using demo storage",
			"driver", cfg.Driver, "error", err)
		return NewCoordinator(nil, demo, logger), nil
	}
	if primary == nil {
		logger.Info("no persistent storage configured, using demo storage")
	} else {
		logger.Info("persistent storage ready", "backend", primary.Name())
	}
	return NewCoordinator(primary, demo, logger), nil
}

// OpenPrimary opens the persistent backend named by cfg.Driver. It returns
// nil without error for the memory driver.
func OpenPrimary(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return nil, nil
	case config.DriverSQLite:
		return OpenDatabaseBackend(ctx, driver.DialectSQLite, cfg.DSN, cfg.OperationTimeout)
	case config.DriverPostgres:
		return OpenDatabaseBackend(ctx, driver.DialectPostgres, cfg.DSN, cfg.OperationTimeout)
	case config.DriverMongo:
		return OpenMongoBackend(ctx, cfg.DSN, cfg.Mongo.Database, cfg.OperationTimeout)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
