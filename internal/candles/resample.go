package candles

import (
	"sort"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

// Resample re-buckets a series to a coarser interval by flooring each bar's
// time to the target boundary and aggregating OHLCV. Resampling a series to
// its own interval is the identity.
func Resample(series []models.Candle, iv models.Interval) []models.Candle {
	if len(series) == 0 {
		return nil
	}

	agg := make(map[int64]*models.Candle, len(series))
	for _, c := range series {
		start := iv.Bucket(c.Time)
		b := agg[start.Unix()]
		if b == nil {
			cp := c
			cp.Time = start
			cp.Interval = iv
			agg[start.Unix()] = &cp
			continue
		}
		// source bars arrive ascending, so Close tracking is last-wins
		if c.High > b.High {
			b.High = c.High
		}
		if c.Low < b.Low {
			b.Low = c.Low
		}
		b.Close = c.Close
		b.Volume += c.Volume
	}

	out := make([]models.Candle, 0, len(agg))
	for _, c := range agg {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// MergeLive splices the latest live bar onto a historical series: every
// historical row at or after the live bar's time is dropped, then the live
// bar is appended. The result is strictly time-ordered with no duplicates.
func MergeLive(hist []models.Candle, live *models.Candle) []models.Candle {
	if live == nil {
		out := make([]models.Candle, len(hist))
		copy(out, hist)
		return out
	}

	cut := len(hist)
	for cut > 0 && !hist[cut-1].Time.Before(live.Time) {
		cut--
	}
	out := make([]models.Candle, 0, cut+1)
	out = append(out, hist[:cut]...)
	out = append(out, *live)
	return out
}
