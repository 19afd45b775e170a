package indicators

import "math"

// emaSeries is a causal EMA over vals. The state seeds on the first real
// value; outputs stay NaN until `period` samples have been folded in, so a
// prefix computation extended one bar equals the full-series computation.
// NaN inputs leave the state untouched.
func emaSeries(vals []float64, period int) []float64 {
	if period <= 1 {
		period = 1
	}
	alpha := 2.0 / (float64(period) + 1)

	out := make([]float64, len(vals))
	warm := 0
	var v float64
	for i, x := range vals {
		if math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		if warm == 0 {
			v = x
		} else {
			v = alpha*x + (1-alpha)*v
		}
		warm++
		if warm >= period {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
