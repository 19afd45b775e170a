package models

import "sort"

// TRMSettings holds the indicator periods and strategy knobs, loaded from the
// dashboard's JSON settings file or pushed over /init.
type TRMSettings struct {
	TSILong   int `json:"tsi_long" mapstructure:"tsi_long"`
	TSIShort  int `json:"tsi_short" mapstructure:"tsi_short"`
	TSISignal int `json:"tsi_signal" mapstructure:"tsi_signal"`

	MACDFast   int `json:"macd_fast" mapstructure:"macd_fast"`
	MACDSlow   int `json:"macd_slow" mapstructure:"macd_slow"`
	MACDSignal int `json:"macd_signal" mapstructure:"macd_signal"`

	PACPeriod int `json:"pac_period" mapstructure:"pac_period"`

	ATRPeriod int     `json:"atr_period" mapstructure:"atr_period"`
	ATRMult   float64 `json:"atr_mult" mapstructure:"atr_mult"`

	RR       float64 `json:"rr" mapstructure:"rr"`
	MaxSLPct float64 `json:"max_sl_pct" mapstructure:"max_sl_pct"`
	MinSLPct float64 `json:"min_sl_pct" mapstructure:"min_sl_pct"`

	GapPctMax     float64 `json:"gap_pct_max" mapstructure:"gap_pct_max"`
	DayMovePctMax float64 `json:"day_move_pct_max" mapstructure:"day_move_pct_max"`
}

// DefaultTRMSettings mirror the dashboard defaults.
func DefaultTRMSettings() TRMSettings {
	return TRMSettings{
		TSILong: 25, TSIShort: 13, TSISignal: 13,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		PACPeriod: 34,
		ATRPeriod: 14, ATRMult: 1.0,
		RR: 2.0, MaxSLPct: 3.0, MinSLPct: 0.1,
		GapPctMax: 1.0, DayMovePctMax: 1.5,
	}
}

// Normalize fills zero fields with defaults so partial settings files work.
func (s TRMSettings) Normalize() TRMSettings {
	d := DefaultTRMSettings()
	if s.TSILong <= 0 {
		s.TSILong = d.TSILong
	}
	if s.TSIShort <= 0 {
		s.TSIShort = d.TSIShort
	}
	if s.TSISignal <= 0 {
		s.TSISignal = d.TSISignal
	}
	if s.MACDFast <= 0 {
		s.MACDFast = d.MACDFast
	}
	if s.MACDSlow <= 0 {
		s.MACDSlow = d.MACDSlow
	}
	if s.MACDSignal <= 0 {
		s.MACDSignal = d.MACDSignal
	}
	if s.PACPeriod <= 0 {
		s.PACPeriod = d.PACPeriod
	}
	if s.ATRPeriod <= 0 {
		s.ATRPeriod = d.ATRPeriod
	}
	if s.ATRMult <= 0 {
		s.ATRMult = d.ATRMult
	}
	if s.RR <= 0 {
		s.RR = d.RR
	}
	if s.MaxSLPct <= 0 {
		s.MaxSLPct = d.MaxSLPct
	}
	if s.MinSLPct <= 0 {
		s.MinSLPct = d.MinSLPct
	}
	if s.GapPctMax <= 0 {
		s.GapPctMax = d.GapPctMax
	}
	if s.DayMovePctMax <= 0 {
		s.DayMovePctMax = d.DayMovePctMax
	}
	return s
}

// QuantityBand maps a price ceiling to a lot size.
type QuantityBand struct {
	UpTo float64 `json:"upto" mapstructure:"upto"`
	Qty  int     `json:"qty" mapstructure:"qty"`
}

// QuantityMap is a step function of last price. Bands are kept sorted by
// ceiling; a price above every band gets the top band's qty.
type QuantityMap struct {
	Bands []QuantityBand `json:"bands" mapstructure:"bands"`
}

func NewQuantityMap(bands []QuantityBand) QuantityMap {
	sorted := make([]QuantityBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UpTo < sorted[j].UpTo })
	return QuantityMap{Bands: sorted}
}

// QtyFor returns the lot size for a price, 0 when the map is empty.
func (m QuantityMap) QtyFor(price float64) int {
	if len(m.Bands) == 0 {
		return 0
	}
	for _, b := range m.Bands {
		if price <= b.UpTo {
			return b.Qty
		}
	}
	return m.Bands[len(m.Bands)-1].Qty
}

// QtyForValue sizes a nominal rupee exposure: max(1, floor(value/price)).
func QtyForValue(value, price float64) int {
	if price <= 0 {
		return 1
	}
	q := int(value / price)
	if q < 1 {
		q = 1
	}
	return q
}
