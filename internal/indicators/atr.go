package indicators

import (
	"math"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

// atrSeries is the Wilder ATR: true range smoothed with an SMA seed and
// Wilder's recurrence afterwards. NaN until `period` bars exist.
func atrSeries(series []models.Candle, period int) []float64 {
	n := len(series)
	out := make([]float64, n)
	if period <= 0 {
		period = 14
	}

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := series[i].High - series[i].Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		pc := series[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(series[i].High-pc), math.Abs(series[i].Low-pc)))
	}

	var atr float64
	for i := 0; i < n; i++ {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		if i == period-1 {
			sum := 0.0
			for j := 0; j < period; j++ {
				sum += tr[j]
			}
			atr = sum / float64(period)
		} else {
			atr = (atr*float64(period-1) + tr[i]) / float64(period)
		}
		out[i] = atr
	}
	return out
}
