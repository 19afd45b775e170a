package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/candles"
	"github.com/mitin111/stock-dashboard-sub000/internal/metrics"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/pkg/errors"
)

// ErrDataQuality marks empty or unusable candle data.
var ErrDataQuality = errors.New("pipeline: bad candle data")

// Pipeline owns the per-symbol merged series: a once-per-session historical
// backfill spliced with the builder's live 1-minute tail, persisted to
// <save_path>/<SYMBOL>.json for downstream consumers.
type Pipeline struct {
	client   broker.Client
	builder  *candles.Builder
	store    *Store
	exchange map[string]string // tsym -> exchange
	tokens   map[string]string // tsym -> token

	days       int
	mergeEvery time.Duration

	mu sync.RWMutex
	tp map[string][]models.Candle // tsym -> cached 1m history
}

func New(client broker.Client, builder *candles.Builder, store *Store, tokens map[string]string, days int, mergeEvery time.Duration) *Pipeline {
	if days <= 0 {
		days = 60
	}
	if mergeEvery <= 0 {
		mergeEvery = 3 * time.Second
	}
	ex := make(map[string]string, len(tokens))
	tk := make(map[string]string, len(tokens))
	for tsym, token := range tokens {
		ex[tsym] = exchangeOf(tsym)
		tk[tsym] = token
	}
	return &Pipeline{
		client:     client,
		builder:    builder,
		store:      store,
		exchange:   ex,
		tokens:     tk,
		days:       days,
		mergeEvery: mergeEvery,
		tp:         make(map[string][]models.Candle),
	}
}

// tokens_map keys arrive as "NSE:XYZ-EQ" or bare "XYZ-EQ" (NSE default).
func exchangeOf(tsym string) string {
	for i := 0; i < len(tsym); i++ {
		if tsym[i] == ':' {
			return tsym[:i]
		}
	}
	return "NSE"
}

// Backfill fetches up to p.days calendar days of 1-minute history for every
// watchlist symbol. Run once per session; per-symbol failures are logged and
// the symbol starts with an empty history.
func (p *Pipeline) Backfill(ctx context.Context) {
	to := time.Now().In(models.IST)
	from := to.AddDate(0, 0, -p.days)

	for tsym, token := range p.tokens {
		series, err := p.client.TPSeries(ctx, p.exchange[tsym], token, models.Interval1m, from, to)
		if err != nil {
			logger.Error("backfill %s: %v", tsym, err)
			continue
		}
		if len(series) == 0 {
			logger.Warn("backfill %s: %v", tsym, ErrDataQuality)
		}
		p.mu.Lock()
		p.tp[tsym] = series
		p.mu.Unlock()
		logger.Info("backfill %s: %d bars", tsym, len(series))
	}
}

// Run drives the merge loop: wake every second, do the work on the merge
// cadence. Per-symbol errors are counted and logged; the loop never dies on
// one bad symbol.
func (p *Pipeline) Run(ctx context.Context) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			if now.Sub(last) < p.mergeEvery {
				continue
			}
			last = now
			p.mergeOnce()
		}
	}
}

func (p *Pipeline) mergeOnce() {
	for tsym, token := range p.tokens {
		if err := p.mergeSymbol(tsym, token); err != nil {
			metrics.MergeErrors.Inc()
			logger.Error("merge %s: %v", tsym, err)
		}
	}
}

func (p *Pipeline) mergeSymbol(tsym, token string) error {
	p.mu.RLock()
	hist := p.tp[tsym]
	p.mu.RUnlock()

	var live *models.Candle
	if c, ok := p.builder.Latest(token, models.Interval1m); ok {
		live = &c
	}

	merged := candles.MergeLive(hist, live)
	return p.store.Write(tsym, merged)
}

// Merged returns the current merged series for one symbol (for handlers/tests).
func (p *Pipeline) Merged(tsym string) []models.Candle {
	p.mu.RLock()
	hist := p.tp[tsym]
	p.mu.RUnlock()

	var live *models.Candle
	if c, ok := p.builder.Latest(p.tokens[tsym], models.Interval1m); ok {
		live = &c
	}
	return candles.MergeLive(hist, live)
}
