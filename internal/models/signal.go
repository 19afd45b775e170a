package models

import "time"

type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is the outcome of one bar evaluation for one symbol. A vetoed bar
// still produces a Signal with SideNone and a human-readable Reason so the
// dashboard can render the skip.
type Signal struct {
	Symbol     string
	Side       Side
	Reason     string
	LastPrice  float64
	StopLoss   float64
	Target     float64
	Qty        int
	Volatility float64
	BarTime    time.Time
}
