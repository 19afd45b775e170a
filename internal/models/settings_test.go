package models

import "testing"

func TestQuantityMapStepFunction(t *testing.T) {
	m := NewQuantityMap([]QuantityBand{
		{UpTo: 500, Qty: 25},
		{UpTo: 100, Qty: 100}, // out of order on purpose
		{UpTo: 2500, Qty: 5},
	})

	cases := []struct {
		price float64
		want  int
	}{
		{50, 100},
		{100, 100}, // ceiling is inclusive
		{101, 25},
		{500, 25},
		{2000, 5},
		{99999, 5}, // above every band: top band's qty
	}
	for _, c := range cases {
		if got := m.QtyFor(c.price); got != c.want {
			t.Fatalf("QtyFor(%v) = %d, want %d", c.price, got, c.want)
		}
	}
}

func TestQuantityMapEmpty(t *testing.T) {
	var m QuantityMap
	if got := m.QtyFor(100); got != 0 {
		t.Fatalf("empty map must size zero, got %d", got)
	}
}

func TestQtyForValue(t *testing.T) {
	if got := QtyForValue(10000, 150); got != 66 {
		t.Fatalf("got %d, want 66", got)
	}
	if got := QtyForValue(100, 150); got != 1 {
		t.Fatalf("value below one share still buys one, got %d", got)
	}
	if got := QtyForValue(100, 0); got != 1 {
		t.Fatalf("zero price guards to one, got %d", got)
	}
}

func TestNormalizeFillsZeroFields(t *testing.T) {
	s := TRMSettings{TSILong: 30}.Normalize()
	if s.TSILong != 30 {
		t.Fatal("explicit value must survive")
	}
	d := DefaultTRMSettings()
	if s.MACDFast != d.MACDFast || s.RR != d.RR || s.PACPeriod != d.PACPeriod {
		t.Fatalf("zero fields must pick up defaults: %+v", s)
	}
}
