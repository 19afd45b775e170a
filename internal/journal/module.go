package journal

import (
	"context"
	"fmt"

	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/runner"
	"github.com/mitin111/stock-dashboard-sub000/pkg/db"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (runner.Journal, error) {
				if cfg.DB == "" {
					logger.Info("journal disabled, no database dsn")
					return nil, nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, err
				}
				return New(ctx, db.NewPgTxManager(pool))
			},
		),
	)
}
