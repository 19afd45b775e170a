package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mitin111/stock-dashboard-sub000/internal/journal"
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/api"
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/notify"
	"github.com/mitin111/stock-dashboard-sub000/internal/pipeline"
	"github.com/mitin111/stock-dashboard-sub000/internal/runner"
	"github.com/mitin111/stock-dashboard-sub000/internal/strategy"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"
	"github.com/mitin111/stock-dashboard-sub000/pkg/tracing"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init("trader"); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		api.Module(),
		strategy.Module(),
		notify.Module(),
		journal.Module(),
		runner.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, ctx context.Context) {
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Warn("tracing disabled: %v", err)
			}
			sup := pipeline.NewSupervisor(cfg.TickWorkerBin, cfg.WorkerBackoff,
				"BASE_URL="+cfg.BaseURL,
				"WS_URL="+cfg.WSURL,
				"BACKEND_URL="+fmt.Sprintf("http://127.0.0.1:%d", cfg.Service.PublicPort),
				"SAVE_PATH="+cfg.SavePath,
				"TICK_BUFFER_SIZE="+strconv.Itoa(cfg.TickBufferSize),
			)
			supCtx, stopSup := context.WithCancel(ctx)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go sup.Run(supCtx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					stopSup()
					if closeTracer != nil {
						closeTracer()
					}
					return nil
				},
			})
		}),
	)
	app.Run()
}
