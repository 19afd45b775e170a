package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/candles"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

type fakeClient struct {
	broker.Client
	hist []models.Candle
}

func (f *fakeClient) TPSeries(context.Context, string, string, models.Interval, time.Time, time.Time) ([]models.Candle, error) {
	return f.hist, nil
}

func TestPipelineMergeAppendsLiveTail(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hist := testSeries(5)
	client := &fakeClient{hist: hist}
	builder := candles.NewBuilder(models.Interval1m)
	tokens := map[string]string{"NSE:RELIANCE-EQ": "2885"}

	p := New(client, builder, store, tokens, 60, time.Second)
	p.Backfill(context.Background())

	liveTime := hist[len(hist)-1].Time.Add(time.Minute)
	err = builder.Update(models.Tick{
		Token: "2885", Exchange: "NSE",
		LastPrice: 120, Volume: 3, Time: liveTime.Add(10 * time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.mergeSymbol("NSE:RELIANCE-EQ", "2885"); err != nil {
		t.Fatal(err)
	}

	out, err := store.Read("NSE:RELIANCE-EQ")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 6 {
		t.Fatalf("expected history plus live tail, got %d rows", len(out))
	}
	last := out[len(out)-1]
	if !last.Time.Equal(liveTime) || last.Close != 120 {
		t.Fatalf("last row must be the live candle: %+v", last)
	}
	for i := 1; i < len(out); i++ {
		if !out[i-1].Time.Before(out[i].Time) {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestPipelineMergeLiveReplacesSameMinute(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hist := testSeries(5)
	client := &fakeClient{hist: hist}
	builder := candles.NewBuilder(models.Interval1m)
	tokens := map[string]string{"NSE:RELIANCE-EQ": "2885"}

	p := New(client, builder, store, tokens, 60, time.Second)
	p.Backfill(context.Background())

	// live tick inside the last historical minute
	lastHist := hist[len(hist)-1].Time
	err = builder.Update(models.Tick{
		Token: "2885", Exchange: "NSE",
		LastPrice: 150, Volume: 1, Time: lastHist.Add(30 * time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}

	merged := p.Merged("NSE:RELIANCE-EQ")
	if len(merged) != 5 {
		t.Fatalf("live bar must replace the stale row, got %d rows", len(merged))
	}
	if merged[4].Close != 150 {
		t.Fatalf("tail must be the live bar: %+v", merged[4])
	}
}

func TestPipelineFirstTickWithoutHistory(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{}
	builder := candles.NewBuilder(models.Interval1m)
	tokens := map[string]string{"NSE:NEW-EQ": "999"}

	p := New(client, builder, store, tokens, 60, time.Second)
	p.Backfill(context.Background())

	ts := time.Date(2026, 8, 28, 9, 15, 10, 0, models.IST)
	if err := builder.Update(models.Tick{Token: "999", LastPrice: 42, Volume: 1, Time: ts}); err != nil {
		t.Fatal(err)
	}
	if err := p.mergeSymbol("NSE:NEW-EQ", "999"); err != nil {
		t.Fatal(err)
	}
	out, err := store.Read("NSE:NEW-EQ")
	if err != nil || len(out) != 1 {
		t.Fatalf("expected a single live row, got %d, %v", len(out), err)
	}
	if out[0].Close != 42 {
		t.Fatalf("unexpected row: %+v", out[0])
	}
}
