package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/pipeline"
	"github.com/mitin111/stock-dashboard-sub000/internal/session"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			NewHub,
			NewServer,
			func(cfg *config.Config) broker.Client {
				return broker.NewNorenClient(cfg.BaseURL, cfg.WSURL, cfg.RestTimeout)
			},
			func(cfg *config.Config) *session.Store {
				return session.NewStore(cfg.SessionFile)
			},
			func(cfg *config.Config) (*pipeline.Store, error) {
				return pipeline.NewStore(cfg.SavePath)
			},
			func(cfg *config.Config) *redis.Client {
				if cfg.RedisAddr == "" {
					return nil
				}
				return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *Server) {
			srv := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort),
				Handler: s,
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("control api listening on %s", srv.Addr)
						if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							logger.Fatal("control api: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
