package runner

import (
	"math"
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

func entryAt(h, m int) time.Time {
	return time.Date(2026, 8, 28, h, m, 0, 0, models.IST)
}

func TestTrailMorningBuyAtThreePct(t *testing.T) {
	// entry 09:30 at 100.0, live 103.2 at 10:15: stop moves to 98.5
	sl, ok := TrailLevel(models.SideBuy, 100.0, entryAt(9, 30), 103.2)
	if !ok {
		t.Fatal("expected a trail level")
	}
	if math.Abs(sl-98.5) > 1e-9 {
		t.Fatalf("stop = %v, want 98.5", sl)
	}
}

func TestTrailNeverLoosens(t *testing.T) {
	entry := entryAt(9, 30)
	sl, ok := TrailLevel(models.SideBuy, 100.0, entry, 103.2)
	if !ok {
		t.Fatal("expected a level at +3.2%")
	}

	// price falls back to 101.0: the candidate is looser and must not apply
	candidate, ok := TrailLevel(models.SideBuy, 100.0, entry, 101.0)
	if !ok {
		t.Fatal("expected a level at +1%")
	}
	if tighter(models.SideBuy, sl, candidate) && candidate < sl {
		t.Fatalf("loosening accepted: current %v candidate %v", sl, candidate)
	}
	if candidate > sl {
		t.Fatalf("a lower profit bucket cannot raise the stop: %v > %v", candidate, sl)
	}
}

func TestTrailBelowThresholdNoMove(t *testing.T) {
	if _, ok := TrailLevel(models.SideBuy, 100.0, entryAt(9, 30), 100.5); ok {
		t.Fatal("+0.5% in the morning must not trail")
	}
}

func TestTrailAfternoonTighterLadder(t *testing.T) {
	// +0.8% after noon already trails, at a tighter multiplier
	sl, ok := TrailLevel(models.SideBuy, 200.0, entryAt(13, 0), 201.6)
	if !ok {
		t.Fatal("expected a level at +0.8% in the afternoon")
	}
	if math.Abs(sl-198.5) > 1e-9 {
		t.Fatalf("stop = %v, want 198.5", sl)
	}
}

func TestTrailSellSide(t *testing.T) {
	// SELL profits when price falls; stop trails downward from above
	sl, ok := TrailLevel(models.SideSell, 100.0, entryAt(9, 30), 96.8)
	if !ok {
		t.Fatal("expected a level at +3.2% on the short side")
	}
	if math.Abs(sl-101.5) > 1e-9 {
		t.Fatalf("stop = %v, want 101.5", sl)
	}
	if !tighter(models.SideSell, 102, sl) {
		t.Fatal("101.5 tightens a 102 stop for a SELL")
	}
	if tighter(models.SideSell, 101, sl) {
		t.Fatal("101.5 must not loosen a 101 stop")
	}
}

func TestTrailOutsideWindows(t *testing.T) {
	if _, ok := TrailLevel(models.SideBuy, 100.0, entryAt(15, 0), 105); ok {
		t.Fatal("entries after 14:50 never trail")
	}
	if _, ok := TrailLevel(models.SideBuy, 100.0, entryAt(9, 0), 105); ok {
		t.Fatal("entries before the open never trail")
	}
}

func TestTighter(t *testing.T) {
	if !tighter(models.SideBuy, 0, 98) {
		t.Fatal("first stop always applies")
	}
	if !tighter(models.SideBuy, 98, 99) {
		t.Fatal("BUY stop may rise")
	}
	if tighter(models.SideBuy, 99, 98) {
		t.Fatal("BUY stop must not fall")
	}
	if tighter(models.SideBuy, 99, 99) {
		t.Fatal("equal stop is not an improvement")
	}
}

func TestLocalExit(t *testing.T) {
	buy := models.Position{Side: models.SideBuy, StopLoss: 98, Target: 104}
	if p, hit := localExit(buy, 97.5); !hit || p != 98 {
		t.Fatalf("stop hit: %v %v", p, hit)
	}
	if p, hit := localExit(buy, 104.2); !hit || p != 104 {
		t.Fatalf("target hit: %v %v", p, hit)
	}
	if _, hit := localExit(buy, 100); hit {
		t.Fatal("inside the bracket must not exit")
	}

	sell := models.Position{Side: models.SideSell, StopLoss: 102, Target: 96}
	if p, hit := localExit(sell, 102.5); !hit || p != 102 {
		t.Fatalf("short stop hit: %v %v", p, hit)
	}
	if p, hit := localExit(sell, 95.0); !hit || p != 96 {
		t.Fatalf("short target hit: %v %v", p, hit)
	}
}
