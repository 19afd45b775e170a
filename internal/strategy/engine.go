// Package strategy evaluates the indicator-enriched 5-minute series once per
// bar and emits at most one BUY/SELL decision with its protective levels. A
// vetoed bar comes back as SideNone with the veto reason spelled out.
package strategy

import (
	"fmt"
	"math"
	"sync"

	"github.com/mitin111/stock-dashboard-sub000/internal/indicators"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

type Engine struct {
	mu  sync.RWMutex
	set models.TRMSettings
	qty models.QuantityMap
}

func NewEngine(set models.TRMSettings, qty models.QuantityMap) *Engine {
	return &Engine{set: set.Normalize(), qty: qty}
}

func (e *Engine) Settings() models.TRMSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set
}

// Apply swaps the strategy knobs in place; the next evaluation uses them.
func (e *Engine) Apply(set models.TRMSettings) {
	e.mu.Lock()
	e.set = set.Normalize()
	e.mu.Unlock()
}

// Evaluate runs the confluence rule and the veto filters against the last
// bar of the enriched series. lastPrice is the reference price (live close).
func (e *Engine) Evaluate(symbol string, series []models.Candle, rows []indicators.Row, lastPrice float64) models.Signal {
	e.mu.RLock()
	set, qty := e.set, e.qty
	e.mu.RUnlock()

	out := models.Signal{Symbol: symbol, LastPrice: lastPrice}
	if len(series) == 0 || len(rows) != len(series) {
		out.Reason = "no data"
		return out
	}
	i := len(series) - 1
	row := rows[i]
	out.BarTime = series[i].Time
	if lastPrice <= 0 {
		lastPrice = series[i].Close
		out.LastPrice = lastPrice
	}

	side := confluence(row, lastPrice)
	if side == models.SideNone {
		out.Reason = "no confluence"
		return out
	}

	// vetoes, first to fire wins
	if reason, vetoed := intradayVolVeto(rows, series, i); vetoed {
		out.Reason = reason
		return out
	}
	if reason, vetoed := yesterdayGate(row, side, lastPrice); vetoed {
		out.Reason = reason
		return out
	}

	sessionVol := indicators.SessionRangePct(series, i)
	out.Volatility = sessionVol
	if reason, vetoed := volatilityFloor(series[i].Time, sessionVol); vetoed {
		out.Reason = reason
		return out
	}

	if row.SkipDayMove {
		out.Reason = fmt.Sprintf("Day move %.2f%% beyond limit", row.DayMovePct)
		return out
	}
	if row.SkipGap {
		out.Reason = fmt.Sprintf("Gap %.2f%% beyond limit", row.GapPct)
		return out
	}

	pacBand := row.PACL
	if side == models.SideSell {
		pacBand = row.PACU
	}
	sl, tp := SafeSLTP(lastPrice, pacBand, side, set.RR, set.MaxSLPct/100, set.MinSLPct/100, row.ATR)

	out.Side = side
	out.Reason = fmt.Sprintf("TRM %s confluence @ %.2f", side, lastPrice)
	out.StopLoss = sl
	out.Target = tp
	out.Qty = qty.QtyFor(lastPrice)
	return out
}

// confluence: BUY needs TRM Buy, positive MACD histogram and price above the
// PAC centre when the centre exists; SELL mirrors. A missing pacC is neutral
// and does not veto.
func confluence(row indicators.Row, lastPrice float64) models.Side {
	switch row.TRM {
	case indicators.TrendBuy:
		if row.MACDHist > 0 && (math.IsNaN(row.PACC) || lastPrice > row.PACC) {
			return models.SideBuy
		}
	case indicators.TrendSell:
		if row.MACDHist < 0 && (math.IsNaN(row.PACC) || lastPrice < row.PACC) {
			return models.SideSell
		}
	}
	return models.SideNone
}
