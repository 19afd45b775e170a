package indicators

import (
	"math"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

type dayStats struct {
	highYest, lowYest, closeYest float64
	todayOpen                    float64
}

// applyDaily walks the series once, carrying the previous trading session's
// high/low/close into every intraday row and deriving the gap and day-move
// flags against the configured thresholds.
func applyDaily(series []models.Candle, rows []Row, set models.TRMSettings) {
	var (
		curDay                 int
		dayHigh, dayLow, dayCl float64
		st                     dayStats
		haveYest               bool
	)
	st.highYest, st.lowYest, st.closeYest = math.NaN(), math.NaN(), math.NaN()

	for i, c := range series {
		y, m, d := c.Time.In(models.IST).Date()
		dk := y*10000 + int(m)*100 + d

		if dk != curDay {
			if curDay != 0 {
				st.highYest, st.lowYest, st.closeYest = dayHigh, dayLow, dayCl
				haveYest = true
			}
			curDay = dk
			dayHigh, dayLow = c.High, c.Low
			st.todayOpen = c.Open
		} else {
			if c.High > dayHigh {
				dayHigh = c.High
			}
			if c.Low < dayLow {
				dayLow = c.Low
			}
		}
		dayCl = c.Close

		rows[i].HighYest = st.highYest
		rows[i].LowYest = st.lowYest

		if haveYest {
			rows[i].GapPct = models.PctChange(st.closeYest, st.todayOpen)
			rows[i].SkipGap = math.Abs(rows[i].GapPct) > set.GapPctMax
		} else {
			rows[i].GapPct = math.NaN()
		}

		rows[i].DayMovePct = models.PctChange(st.todayOpen, c.Close)
		if !math.IsNaN(rows[i].DayMovePct) {
			rows[i].SkipDayMove = math.Abs(rows[i].DayMovePct) > set.DayMovePctMax
		}

		if c.Low > 0 {
			rows[i].RangePct = (c.High - c.Low) / c.Low * 100
		} else {
			rows[i].RangePct = math.NaN()
		}

		// rolling 2-bar absolute close-change sum, same day only
		rows[i].Move2Sum = math.NaN()
		if i >= 2 &&
			models.SameDay(series[i].Time, series[i-1].Time) &&
			models.SameDay(series[i-1].Time, series[i-2].Time) {
			m1 := math.Abs(models.PctChange(series[i-1].Close, series[i].Close))
			m2 := math.Abs(models.PctChange(series[i-2].Close, series[i-1].Close))
			rows[i].Move2Sum = m1 + m2
		}
	}
}

// SessionRangePct is the high-low range of the current IST day up to and
// including bar i, as a percent of the session low. NaN when undefined.
func SessionRangePct(series []models.Candle, i int) float64 {
	if i < 0 || i >= len(series) {
		return math.NaN()
	}
	hi, lo := series[i].High, series[i].Low
	for j := i - 1; j >= 0 && models.SameDay(series[j].Time, series[i].Time); j-- {
		if series[j].High > hi {
			hi = series[j].High
		}
		if series[j].Low < lo {
			lo = series[j].Low
		}
	}
	if lo <= 0 {
		return math.NaN()
	}
	return (hi - lo) / lo * 100
}
