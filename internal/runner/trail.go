package runner

import (
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

type trailBucket struct {
	minProfitPct float64
	buyMult      float64
	sellMult     float64
}

// Thresholds checked top-down, first match wins.
var (
	morningTrail = []trailBucket{
		{5.0, 0.98, 1.02},
		{3.0, 0.985, 1.015},
		{1.0, 0.99, 1.01},
	}
	afternoonTrail = []trailBucket{
		{5.0, 0.99, 1.01},
		{2.0, 0.995, 1.005},
		{0.75, 0.9925, 1.0075},
	}
)

// TrailLevel computes a candidate protective stop from the live price by
// time-of-day rules keyed on the position's entry time (IST wall clock).
// Outside the windows or below the lowest threshold there is no move.
func TrailLevel(side models.Side, entryPrice float64, entryTime time.Time, lastPrice float64) (float64, bool) {
	if entryPrice <= 0 || lastPrice <= 0 {
		return 0, false
	}

	profitPct := models.PctChange(entryPrice, lastPrice)
	if side == models.SideSell {
		profitPct = -profitPct
	}

	buckets, ok := trailBucketsFor(entryTime)
	if !ok {
		return 0, false
	}

	for _, b := range buckets {
		if profitPct >= b.minProfitPct {
			if side == models.SideSell {
				return entryPrice * b.sellMult, true
			}
			return entryPrice * b.buyMult, true
		}
	}
	return 0, false
}

func trailBucketsFor(entryTime time.Time) ([]trailBucket, bool) {
	t := entryTime.In(models.IST)
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= 9*60+15 && minutes <= 12*60:
		return morningTrail, true
	case minutes > 12*60 && minutes <= 14*60+50:
		return afternoonTrail, true
	}
	return nil, false
}

// tighter reports whether candidate improves the stop strictly in the
// position's favour: a BUY trail never decreases, a SELL trail never
// increases.
func tighter(side models.Side, current, candidate float64) bool {
	if current <= 0 {
		return candidate > 0
	}
	if side == models.SideSell {
		return candidate < current
	}
	return candidate > current
}
