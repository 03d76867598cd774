package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/pricecast/internal/config"
	"github.com/aristath/pricecast/internal/database"
	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the configured price store and returns a container holding it
func InitializeDatabases(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	switch cfg.Prices.Source {
	case config.PriceSourcePostgres:
		pool, err := prices.NewPool(ctx, cfg.Prices.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres price store: %w", err)
		}
		repo := prices.NewPostgresRepository(pool, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		container.PricePool = pool
		container.Prices = repo

	default:
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, PriceDBFile),
			Profile: database.ProfileStandard,
			Name:    priceStoreDBName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open price store: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate price store: %w", err)
		}
		container.PriceDB = db
		container.Prices = prices.NewSQLiteRepository(db.Conn(), log)
	}

	log.Info().Str("source", cfg.Prices.Source).Msg("Price store initialized")
	return container, nil
}
