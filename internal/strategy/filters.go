package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/indicators"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

const (
	maxBarRangePct  = 1.3
	maxTwoBarMovPct = 2.0
)

// intradayVolVeto scans the same-day bars ending at i: any bar range ≥ 1.3%
// or any rolling 2-bar absolute close-change sum ≥ 2.0% kills the signal.
func intradayVolVeto(rows []indicators.Row, series []models.Candle, i int) (string, bool) {
	for j := i; j >= 0 && models.SameDay(series[j].Time, series[i].Time); j-- {
		if !math.IsNaN(rows[j].RangePct) && rows[j].RangePct >= maxBarRangePct {
			return fmt.Sprintf("Bar range %.2f%% >= %.1f", rows[j].RangePct, maxBarRangePct), true
		}
		if !math.IsNaN(rows[j].Move2Sum) && rows[j].Move2Sum >= maxTwoBarMovPct {
			return fmt.Sprintf("2-bar move %.2f%% >= %.1f", rows[j].Move2Sum, maxTwoBarMovPct), true
		}
	}
	return "", false
}

// yesterdayGate: BUY must clear yesterday's high, SELL must break yesterday's
// low. Unknown previous-session levels veto conservatively.
func yesterdayGate(row indicators.Row, side models.Side, lastPrice float64) (string, bool) {
	switch side {
	case models.SideBuy:
		if math.IsNaN(row.HighYest) {
			return "Yesterday high unknown", true
		}
		if lastPrice <= row.HighYest {
			return fmt.Sprintf("Price %.2f below yesterday high %.2f", lastPrice, row.HighYest), true
		}
	case models.SideSell:
		if math.IsNaN(row.LowYest) {
			return "Yesterday low unknown", true
		}
		if lastPrice >= row.LowYest {
			return fmt.Sprintf("Price %.2f above yesterday low %.2f", lastPrice, row.LowYest), true
		}
	}
	return "", false
}

type volWindow struct {
	fromMin int // minutes since midnight IST, inclusive
	toMin   int // exclusive
	minVol  float64
}

var volFloors = []volWindow{
	{9*60 + 15, 9*60 + 20, 1.60},
	{9*60 + 20, 10 * 60, 1.80},
	{10 * 60, 11 * 60, 2.00},
	{11 * 60, 12 * 60, 2.20},
	{12 * 60, 13 * 60, 2.40},
	{13 * 60, 14 * 60, 2.80},
	{14 * 60, 14*60 + 45, 2.80},
	{14*60 + 45, 15*60 + 25, 2.60},
}

// minVolFor returns the session-volatility floor for a bar wall-clock time.
// Outside the table there is no trading window.
func minVolFor(t time.Time) (float64, bool) {
	minutes := t.In(models.IST).Hour()*60 + t.In(models.IST).Minute()
	for _, w := range volFloors {
		if minutes >= w.fromMin && minutes < w.toMin {
			return w.minVol, true
		}
	}
	return 0, false
}

// volatilityFloor emits NEUTRAL below the time-of-day minimum session range.
func volatilityFloor(barTime time.Time, sessionVol float64) (string, bool) {
	floor, ok := minVolFor(barTime)
	if !ok {
		return "Outside trading window", true
	}
	if math.IsNaN(sessionVol) || sessionVol < floor {
		return fmt.Sprintf("Volatility %.2f%% < %.1f", sessionVol, floor), true
	}
	return "", false
}
