package candles

import (
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

func at(h, m, s int) time.Time {
	return time.Date(2026, 8, 28, h, m, s, 0, models.IST)
}

func tick(price, vol float64, ts time.Time) models.Tick {
	return models.Tick{Token: "2885", Exchange: "NSE", LastPrice: price, Volume: vol, Time: ts}
}

func TestUpdateOHLCInvariants(t *testing.T) {
	b := NewBuilder(models.Interval1m)
	prices := []float64{100, 102.5, 99.1, 101.3, 100.7}
	for i, p := range prices {
		if err := b.Update(tick(p, 10, at(9, 15, i*10))); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	c, ok := b.Latest("2885", models.Interval1m)
	if !ok {
		t.Fatal("expected a bar")
	}
	if c.Open != 100 || c.Close != 100.7 {
		t.Fatalf("open/close wrong: o=%v c=%v", c.Open, c.Close)
	}
	if c.High != 102.5 || c.Low != 99.1 {
		t.Fatalf("high/low wrong: h=%v l=%v", c.High, c.Low)
	}
	if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
		t.Fatalf("l <= o,c <= h violated: %+v", c)
	}
	if c.Volume != 50 {
		t.Fatalf("volume should accumulate, got %v", c.Volume)
	}
}

func TestUpdateRejectsInvalidTick(t *testing.T) {
	b := NewBuilder(models.Interval1m)
	bad := []models.Tick{
		{},
		{Token: "2885", LastPrice: 0, Time: at(9, 15, 0)},
		{Token: "2885", LastPrice: 100},
	}
	for _, bt := range bad {
		if err := b.Update(bt); err == nil {
			t.Fatalf("expected rejection for %+v", bt)
		}
	}
	if _, ok := b.Latest("2885", models.Interval1m); ok {
		t.Fatal("no bar should exist after rejected ticks")
	}
}

func TestBoundaryTickOpensNewBucket(t *testing.T) {
	b := NewBuilder(models.Interval5m)
	if err := b.Update(tick(100, 1, at(9, 19, 59))); err != nil {
		t.Fatal(err)
	}
	// exactly on the 09:20 boundary
	if err := b.Update(tick(105, 1, at(9, 20, 0))); err != nil {
		t.Fatal(err)
	}

	series := b.Series("2885", models.Interval5m)
	if len(series) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(series))
	}
	if !series[1].Time.Equal(at(9, 20, 0)) {
		t.Fatalf("boundary tick should open %v, got %v", at(9, 20, 0), series[1].Time)
	}
	if series[1].Open != 105 {
		t.Fatalf("new bucket should open at the boundary price, got %v", series[1].Open)
	}
}

func TestSeriesStepsByInterval(t *testing.T) {
	b := NewBuilder(models.Interval1m)
	for i := 0; i < 10; i++ {
		ts := at(9, 15, 0).Add(time.Duration(i) * time.Minute)
		if err := b.Update(tick(100+float64(i), 1, ts)); err != nil {
			t.Fatal(err)
		}
	}
	series := b.Series("2885", models.Interval1m)
	if len(series) != 10 {
		t.Fatalf("expected 10 bars, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		step := series[i].Time.Sub(series[i-1].Time)
		if step != time.Minute {
			t.Fatalf("bar %d: step %v, want 1m", i, step)
		}
	}
}

func TestOutOfOrderTickUpdatesItsBucket(t *testing.T) {
	b := NewBuilder(models.Interval1m)
	if err := b.Update(tick(100, 1, at(9, 16, 30))); err != nil {
		t.Fatal(err)
	}
	// late tick for the previous minute
	if err := b.Update(tick(95, 2, at(9, 15, 40))); err != nil {
		t.Fatal(err)
	}

	series := b.Series("2885", models.Interval1m)
	if len(series) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series))
	}
	if series[0].Close != 95 || series[0].Volume != 2 {
		t.Fatalf("late tick should land in its own bucket: %+v", series[0])
	}
	if series[1].Close != 100 {
		t.Fatalf("current bar must be untouched: %+v", series[1])
	}
}

func TestTrimDropsOldBars(t *testing.T) {
	b := NewBuilder(models.Interval1m)
	for i := 0; i < 5; i++ {
		if err := b.Update(tick(100, 1, at(9, 15+i, 0))); err != nil {
			t.Fatal(err)
		}
	}
	b.Trim(at(9, 18, 0).Unix())
	series := b.Series("2885", models.Interval1m)
	if len(series) != 2 {
		t.Fatalf("expected 2 bars after trim, got %d", len(series))
	}
}
