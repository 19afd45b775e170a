package notify

import (
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/runner"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) runner.Notifier {
				if cfg.Telegram.Token == "" {
					logger.Info("telegram disabled, trade events go to the log")
					return Log{}
				}
				t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Error("telegram init: %v, falling back to the log", err)
					return Log{}
				}
				return t
			},
		),
	)
}
