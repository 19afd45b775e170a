package candles

import (
	"sort"
	"sync"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/pkg/errors"
)

type key struct {
	token    string
	interval models.Interval
}

// Builder aggregates live ticks into per-token per-interval OHLCV bars.
// A single logical writer (the stream callback) mutates it; readers get
// copies under a short critical section. The tail bar of each key stays open
// until its interval ends.
type Builder struct {
	mu        sync.Mutex
	intervals []models.Interval
	buckets   map[key]map[int64]*models.Candle
}

func NewBuilder(intervals ...models.Interval) *Builder {
	if len(intervals) == 0 {
		intervals = models.Intervals
	}
	return &Builder{
		intervals: intervals,
		buckets:   make(map[key]map[int64]*models.Candle),
	}
}

// Update folds one tick into every maintained interval. OHLC math is
// order-independent so the occasional out-of-order tick only updates the
// bucket it lands in; volume accumulates.
func (b *Builder) Update(t models.Tick) error {
	if !t.Valid() {
		return errors.New("candles: invalid tick")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, iv := range b.intervals {
		k := key{token: t.Token, interval: iv}
		m := b.buckets[k]
		if m == nil {
			m = make(map[int64]*models.Candle)
			b.buckets[k] = m
		}

		start := iv.Bucket(t.Time)
		c := m[start.Unix()]
		if c == nil {
			m[start.Unix()] = &models.Candle{
				Time: start,
				Open: t.LastPrice, High: t.LastPrice, Low: t.LastPrice, Close: t.LastPrice,
				Volume:   t.Volume,
				Interval: iv,
			}
			continue
		}
		if t.LastPrice > c.High {
			c.High = t.LastPrice
		}
		if t.LastPrice < c.Low {
			c.Low = t.LastPrice
		}
		c.Close = t.LastPrice
		c.Volume += t.Volume
	}
	return nil
}

// Latest returns a copy of the bar with the greatest bucket for the key.
func (b *Builder) Latest(token string, iv models.Interval) (models.Candle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.buckets[key{token: token, interval: iv}]
	if len(m) == 0 {
		return models.Candle{}, false
	}
	var best int64 = -1
	for ts := range m {
		if ts > best {
			best = ts
		}
	}
	return *m[best], true
}

// Series returns all bars for the key, ascending.
func (b *Builder) Series(token string, iv models.Interval) []models.Candle {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.buckets[key{token: token, interval: iv}]
	out := make([]models.Candle, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Trim drops bars older than the cutoff; the builder only keeps a short
// rolling window in memory.
func (b *Builder) Trim(before int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.buckets {
		for ts := range m {
			if ts < before {
				delete(m, ts)
			}
		}
	}
}
