// Package bootstrap opens the configured store for the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/library/internal/config"
	boltInfra "github.com/fastygo/library/internal/infrastructure/boltdb"
	pgInfra "github.com/fastygo/library/internal/infrastructure/postgres"
	"github.com/fastygo/library/repository"
	"github.com/fastygo/library/repository/boltdb"
	"github.com/fastygo/library/repository/postgres"
)

// OpenStore opens the store selected by STORAGE_DRIVER. For Postgres it
// applies pending migrations first when they are enabled.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return postgres.NewStore(pool), nil
	case config.DriverBolt:
		db, err := boltInfra.OpenWithTimeout(cfg.Bolt.Path, cfg.Bolt.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("boltdb: %w", err)
		}
		return boltdb.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
