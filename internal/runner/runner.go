package runner

import (
	"context"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/candles"
	"github.com/mitin111/stock-dashboard-sub000/internal/indicators"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/internal/pipeline"
	"github.com/mitin111/stock-dashboard-sub000/internal/strategy"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/pkg/errors"
)

// Runner drives the two long-lived loops of the position side: the signal
// loop on the 5-minute cadence and the trail/exit loop every few seconds.
// Both read the merged per-symbol files the tick worker maintains; either
// file-missing or file-empty is a normal transient state.
type Runner struct {
	client  broker.Client
	engine  *strategy.Engine
	store   *pipeline.Store
	manager *Manager

	signalEvery time.Duration
	trailEvery  time.Duration
}

func New(client broker.Client, engine *strategy.Engine, store *pipeline.Store, manager *Manager, signalEvery, trailEvery time.Duration) *Runner {
	if signalEvery <= 0 {
		signalEvery = 5 * time.Minute
	}
	if trailEvery <= 0 {
		trailEvery = 5 * time.Second
	}
	return &Runner{
		client:      client,
		engine:      engine,
		store:       store,
		manager:     manager,
		signalEvery: signalEvery,
		trailEvery:  trailEvery,
	}
}

// watchlist is whatever the attached session provisioned; empty until /init.
func (r *Runner) watchlist() map[string]string {
	sess := r.client.Session()
	if sess == nil {
		return nil
	}
	return sess.TokensMap
}

// RunSignals evaluates the watchlist once per bar. The first evaluation is
// held back to the next wall-clock boundary so the loop always sees a
// just-closed bar instead of a partial one.
func (r *Runner) RunSignals(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(untilNextTick(time.Now(), r.signalEvery)):
	}
	r.evaluateAll(ctx)

	t := time.NewTicker(r.signalEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.evaluateAll(ctx)
		}
	}
}

func untilNextTick(now time.Time, every time.Duration) time.Duration {
	return now.Truncate(every).Add(every).Sub(now)
}

func (r *Runner) evaluateAll(ctx context.Context) {
	for tsym := range r.watchlist() {
		if err := r.evaluateOne(ctx, tsym); err != nil {
			logger.Error("signal %s: %v", tsym, err)
		}
	}
}

func (r *Runner) evaluateOne(ctx context.Context, tsym string) error {
	series, err := r.store.Read(tsym)
	if err != nil {
		return errors.Wrap(err, "read series")
	}
	if len(series) == 0 {
		return nil
	}

	five := candles.Resample(series, models.Interval5m)
	rows := indicators.Enrich(five, r.engine.Settings())
	last := series[len(series)-1].Close

	sig := r.engine.Evaluate(tsym, five, rows, last)
	if sig.Side == models.SideNone {
		logger.Info("skip %s: %s", tsym, sig.Reason)
		return nil
	}

	err = r.manager.HandleSignal(ctx, sig, exchangeOf(tsym))
	if errors.Is(err, ErrCycleBlocked) {
		logger.Info("blocked %s: %v", tsym, err)
		return nil
	}
	return err
}

func (r *Runner) RunTrailing(ctx context.Context) {
	t := time.NewTicker(r.trailEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.trailAll(ctx)
		}
	}
}

// squareOff is when intraday positions stop being trailed and get flattened.
const squareOff = 15*60 + 10 // minutes since midnight IST

func (r *Runner) trailAll(ctx context.Context) {
	now := time.Now().In(models.IST)
	if now.Hour()*60+now.Minute() >= squareOff {
		r.manager.FlattenAll(ctx, func(symbol string) float64 {
			series, err := r.store.Read(symbol)
			if err != nil || len(series) == 0 {
				return 0
			}
			return series[len(series)-1].Close
		})
		return
	}
	for _, pos := range r.manager.OpenPositions() {
		series, err := r.store.Read(pos.Symbol)
		if err != nil || len(series) == 0 {
			continue
		}
		last := series[len(series)-1].Close
		r.manager.Trail(ctx, pos.Symbol, last)
		r.manager.CheckExit(ctx, pos.Symbol, last)
	}
}

func exchangeOf(tsym string) string {
	for i := 0; i < len(tsym); i++ {
		if tsym[i] == ':' {
			return tsym[:i]
		}
	}
	return "NSE"
}
