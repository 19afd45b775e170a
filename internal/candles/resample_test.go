package candles

import (
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

func oneMinSeries(start time.Time, n int) []models.Candle {
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		p := 100 + float64(i)
		out = append(out, models.Candle{
			Time: start.Add(time.Duration(i) * time.Minute),
			Open: p, High: p + 0.5, Low: p - 0.5, Close: p + 0.2,
			Volume:   10,
			Interval: models.Interval1m,
		})
	}
	return out
}

func TestResampleAggregates(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 15, 0, 0, models.IST)
	five := Resample(oneMinSeries(start, 10), models.Interval5m)
	if len(five) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(five))
	}

	first := five[0]
	if !first.Time.Equal(start) {
		t.Fatalf("first bar time %v, want %v", first.Time, start)
	}
	if first.Open != 100 || first.Close != 104.2 {
		t.Fatalf("open/close wrong: %+v", first)
	}
	if first.High != 104.5 || first.Low != 99.5 {
		t.Fatalf("high/low wrong: %+v", first)
	}
	if first.Volume != 50 {
		t.Fatalf("volume wrong: %v", first.Volume)
	}
	if first.Interval != models.Interval5m {
		t.Fatalf("interval wrong: %v", first.Interval)
	}
}

func TestResampleSameIntervalIsIdentity(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 15, 0, 0, models.IST)
	five := Resample(oneMinSeries(start, 10), models.Interval5m)
	again := Resample(five, models.Interval5m)
	if len(again) != len(five) {
		t.Fatalf("length changed: %d vs %d", len(again), len(five))
	}
	for i := range five {
		if again[i] != five[i] {
			t.Fatalf("bar %d changed: %+v vs %+v", i, again[i], five[i])
		}
	}
}

func TestMergeLiveReplacesTail(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 15, 0, 0, models.IST)
	hist := oneMinSeries(start, 5)

	live := hist[4]
	live.Close = 200
	merged := MergeLive(hist, &live)
	if len(merged) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(merged))
	}
	if merged[4].Close != 200 {
		t.Fatalf("last row must be the live bar, got %+v", merged[4])
	}
	for i := 1; i < len(merged); i++ {
		if !merged[i-1].Time.Before(merged[i].Time) {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestMergeLiveAppendsNewBar(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 15, 0, 0, models.IST)
	hist := oneMinSeries(start, 5)
	live := models.Candle{Time: start.Add(5 * time.Minute), Open: 200, High: 200, Low: 200, Close: 200, Interval: models.Interval1m}

	merged := MergeLive(hist, &live)
	if len(merged) != 6 {
		t.Fatalf("expected 6 bars, got %d", len(merged))
	}
	if !merged[5].Time.Equal(live.Time) {
		t.Fatalf("live bar should be appended last")
	}
}

func TestMergeLiveEmptyHistory(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 15, 0, 0, models.IST)
	live := models.Candle{Time: start, Open: 100, High: 100, Low: 100, Close: 100, Interval: models.Interval1m}

	merged := MergeLive(nil, &live)
	if len(merged) != 1 || merged[0].Close != 100 {
		t.Fatalf("first live bar should start the series, got %+v", merged)
	}
	if got := MergeLive(nil, nil); len(got) != 0 {
		t.Fatalf("no history and no live bar should stay empty, got %+v", got)
	}
}
