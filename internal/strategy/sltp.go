package strategy

import (
	"math"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

// SafeSLTP derives the protective stop and target for a signal.
//
// The protective-side PAC band, when it exists on the protective side of
// price, gives the raw stop; its distance is clamped to
// [minSLPct, maxSLPct] × price. Without a usable band the distance falls back
// to the ATR, then to maxSLPct. Target distance is rr × stop distance.
// Post-condition: BUY stop < price < target; SELL target < price < stop.
func SafeSLTP(lastPrice, pacBand float64, side models.Side, rr, maxSLPct, minSLPct float64, atr float64) (sl, tp float64) {
	if rr <= 0 {
		rr = 2.0
	}
	if maxSLPct <= 0 {
		maxSLPct = 0.03
	}
	if minSLPct <= 0 {
		minSLPct = 0.001
	}

	var dist float64
	switch {
	case bandProtective(lastPrice, pacBand, side):
		dist = math.Abs(lastPrice - pacBand)
	case !math.IsNaN(atr) && atr > 0:
		dist = atr
	default:
		dist = maxSLPct * lastPrice
	}

	dist = clamp(dist, minSLPct*lastPrice, maxSLPct*lastPrice)
	if dist <= 0 {
		// degenerate input, fall back to the widest allowed stop
		dist = maxSLPct * lastPrice
	}

	tpDist := round2(rr * dist)

	if side == models.SideSell {
		sl = round2(lastPrice + dist)
		tp = round2(lastPrice - tpDist)
		if !(tp < lastPrice && lastPrice < sl) {
			dist = maxSLPct * lastPrice
			sl = round2(lastPrice + dist)
			tp = round2(lastPrice - rr*dist)
		}
		return sl, tp
	}

	sl = round2(lastPrice - dist)
	tp = round2(lastPrice + tpDist)
	if !(sl < lastPrice && lastPrice < tp) {
		dist = maxSLPct * lastPrice
		sl = round2(lastPrice - dist)
		tp = round2(lastPrice + rr*dist)
	}
	return sl, tp
}

// bandProtective: the band exists and sits on the protective side of price.
func bandProtective(lastPrice, band float64, side models.Side) bool {
	if math.IsNaN(band) || band <= 0 {
		return false
	}
	if side == models.SideSell {
		return band > lastPrice
	}
	return band < lastPrice
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
