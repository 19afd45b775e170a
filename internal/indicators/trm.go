package indicators

import "math"

// tsiSeries computes the True Strength Momentum oscillator: double-smoothed
// close-to-close deltas over double-smoothed absolute deltas, with a signal
// EMA. Values are NaN through warm-up.
func tsiSeries(close []float64, long, short, signal int) (tsi, sig []float64) {
	n := len(close)
	delta := make([]float64, n)
	absDelta := make([]float64, n)
	delta[0], absDelta[0] = math.NaN(), math.NaN()
	for i := 1; i < n; i++ {
		d := close[i] - close[i-1]
		delta[i] = d
		absDelta[i] = math.Abs(d)
	}

	num := emaSeries(emaSeries(delta, long), short)
	den := emaSeries(emaSeries(absDelta, long), short)

	tsi = make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(num[i]) || math.IsNaN(den[i]) || den[i] == 0 {
			tsi[i] = math.NaN()
			continue
		}
		tsi[i] = 100 * num[i] / den[i]
	}
	sig = emaSeries(tsi, signal)
	return tsi, sig
}

// trendOf classifies one bar by signal-line crossover.
func trendOf(tsi, sig float64) Trend {
	if math.IsNaN(tsi) || math.IsNaN(sig) {
		return TrendNeutral
	}
	switch {
	case tsi > sig:
		return TrendBuy
	case tsi < sig:
		return TrendSell
	}
	return TrendNeutral
}
