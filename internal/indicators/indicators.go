// Package indicators computes the derived per-bar view the signal engine
// reads: momentum (TRM/TSI), MACD histogram, price-action channel, ATR stop
// distance, previous-session levels and the gap/day-move flags. Everything is
// a pure function of the input series; NaN means "not yet computable" and is
// treated as neutral downstream.
package indicators

import (
	"math"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

type Trend int8

const (
	TrendNeutral Trend = iota
	TrendBuy
	TrendSell
)

func (t Trend) String() string {
	switch t {
	case TrendBuy:
		return "Buy"
	case TrendSell:
		return "Sell"
	}
	return "Neutral"
}

// Row is the indicator snapshot appended to one candle.
type Row struct {
	TRM       Trend
	TSI       float64
	TSISignal float64

	MACDHist float64

	PACU float64
	PACL float64
	PACC float64

	// ATR already scaled by the configured multiplier: a stop distance.
	ATR float64

	HighYest float64
	LowYest  float64

	GapPct      float64
	DayMovePct  float64
	SkipGap     bool
	SkipDayMove bool

	RangePct float64
	Move2Sum float64
}

// Enrich computes every indicator column for the series. Deterministic on a
// given input; computing on a prefix and extending one bar gives the same
// rows (warm-up aside).
func Enrich(series []models.Candle, set models.TRMSettings) []Row {
	set = set.Normalize()
	n := len(series)
	rows := make([]Row, n)
	if n == 0 {
		return rows
	}

	close := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	for i, c := range series {
		close[i], high[i], low[i] = c.Close, c.High, c.Low
	}

	tsi, tsiSig := tsiSeries(close, set.TSILong, set.TSIShort, set.TSISignal)

	macdFast := emaSeries(close, set.MACDFast)
	macdSlow := emaSeries(close, set.MACDSlow)
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = macdFast[i] - macdSlow[i] // NaN propagates
	}
	macdSig := emaSeries(macdLine, set.MACDSignal)

	pacU := emaSeries(high, set.PACPeriod)
	pacL := emaSeries(low, set.PACPeriod)
	pacC := emaSeries(close, set.PACPeriod)

	atr := atrSeries(series, set.ATRPeriod)

	for i := 0; i < n; i++ {
		rows[i].TSI = tsi[i]
		rows[i].TSISignal = tsiSig[i]
		rows[i].TRM = trendOf(tsi[i], tsiSig[i])

		rows[i].MACDHist = macdLine[i] - macdSig[i]

		rows[i].PACU = pacU[i]
		rows[i].PACL = pacL[i]
		rows[i].PACC = pacC[i]

		if math.IsNaN(atr[i]) {
			rows[i].ATR = math.NaN()
		} else {
			rows[i].ATR = atr[i] * set.ATRMult
		}
	}

	applyDaily(series, rows, set)
	return rows
}
