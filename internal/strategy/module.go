package strategy

import (
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(cfg *config.Config) (*Engine, error) {
				set, err := config.LoadTRMSettings(cfg.TRMSettingsFile)
				if err != nil {
					return nil, err
				}
				qty, err := config.LoadQuantityMap(cfg.QuantityMapFile)
				if err != nil {
					return nil, err
				}
				return NewEngine(set, qty), nil
			},
		),
	)
}
