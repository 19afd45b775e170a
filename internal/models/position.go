package models

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is one open trade per symbol. Mutated only by the position
// manager; trailing only ever tightens the stop.
type Position struct {
	Symbol      string
	Exchange    string
	Side        Side
	EntryPrice  float64
	EntryTime   time.Time
	Qty         int
	StopLoss    float64
	Target      float64
	OrderID     string
	Status      PositionStatus
	LastTrailAt time.Time
	ExitPrice   float64
	ExitTime    time.Time
}

// CycleState is derived from the day's trade book. One BUY+SELL round trip
// per symbol per day; a completed SELL then BUY round trip locks the day.
type CycleState struct {
	BuyCycleDone  bool
	SellCycleDone bool
	FullLock      bool
	LastSide      Side
}

// OrderSpec is what the position manager sends to the broker: a bracket-style
// entry with protective stop and target.
type OrderSpec struct {
	Exchange  string
	Symbol    string
	Side      Side
	Qty       int
	Price     float64 // 0 = market
	StopLoss  float64
	Target    float64
	Product   string // "I" intraday
	Remarks   string
}

// Order is a row from the broker order book.
type Order struct {
	OrderID string
	Symbol  string
	Side    Side
	Qty     int
	Price   float64
	Status  string
	Time    time.Time
}

// Trade is a fill from the broker trade book.
type Trade struct {
	OrderID  string
	Symbol   string
	Side     Side
	Qty      int
	Price    float64
	FillTime time.Time
}
