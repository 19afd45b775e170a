package runner

import (
	"context"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/pipeline"
	"github.com/mitin111/stock-dashboard-sub000/internal/strategy"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewManager, // *Manager
			func(cfg *config.Config, client broker.Client, engine *strategy.Engine, store *pipeline.Store, manager *Manager) *Runner {
				return New(client, engine, store, manager, cfg.SignalEvery, cfg.TrailEvery)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go r.RunSignals(ctx)
					go r.RunTrailing(ctx)
					return nil
				},
			})
		}),
	)
}
