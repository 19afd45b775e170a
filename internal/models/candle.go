package models

import (
	"math"
	"time"
)

// IST is the exchange timezone. All business timestamps are kept in it;
// naive wall-clock compares are never allowed.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Interval is a candle interval in minutes.
type Interval int

const (
	Interval1m  Interval = 1
	Interval3m  Interval = 3
	Interval5m  Interval = 5
	Interval15m Interval = 15
	Interval30m Interval = 30
	Interval60m Interval = 60
)

// Intervals the candle builder maintains.
var Intervals = []Interval{Interval1m, Interval3m, Interval5m, Interval15m, Interval30m, Interval60m}

func (i Interval) Valid() bool {
	switch i {
	case Interval1m, Interval3m, Interval5m, Interval15m, Interval30m, Interval60m:
		return true
	}
	return false
}

func (i Interval) Seconds() int64 { return int64(i) * 60 }

func (i Interval) Duration() time.Duration { return time.Duration(i) * time.Minute }

// Bucket floors t to the interval boundary. Boundaries are anchored to IST
// midnight so hourly bars open on the hour despite the :30 UTC offset.
// A tick on the exact boundary belongs to the new bucket.
func (i Interval) Bucket(t time.Time) time.Time {
	lt := t.In(IST)
	midnight := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, IST)
	sec := int64(lt.Sub(midnight) / time.Second)
	sec -= sec % i.Seconds()
	return midnight.Add(time.Duration(sec) * time.Second)
}

// Tick is a single last-traded-price update, already normalised at the
// transport boundary: Volume is the per-tick delta, never the cumulative
// day volume the wire reports.
type Tick struct {
	Token     string
	Exchange  string
	LastPrice float64
	Volume    float64
	Time      time.Time
}

func (t Tick) Valid() bool {
	return t.Token != "" && t.LastPrice > 0 && !t.Time.IsZero()
}

// Candle is one OHLCV bar. Time is the interval start, floored to the
// interval boundary, in IST.
type Candle struct {
	Time     time.Time `json:"datetime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Interval Interval  `json:"interval"`
}

// SameDay reports whether both timestamps fall on the same IST calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(IST).Date()
	by, bm, bd := b.In(IST).Date()
	return ay == by && am == bm && ad == bd
}

// PctChange is (b-a)/a*100, NaN when a is zero.
func PctChange(a, b float64) float64 {
	if a == 0 {
		return math.NaN()
	}
	return (b - a) / a * 100
}
