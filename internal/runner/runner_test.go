package runner

import (
	"testing"
	"time"
)

func TestUntilNextTickAlignsToBoundary(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 23, 42, 0, time.UTC)
	got := untilNextTick(now, 5*time.Minute)
	if got != time.Minute+18*time.Second {
		t.Fatalf("wait %v", got)
	}
	if !now.Add(got).Equal(time.Date(2026, 8, 28, 9, 25, 0, 0, time.UTC)) {
		t.Fatalf("lands at %v", now.Add(got))
	}
}

func TestUntilNextTickOnBoundaryWaitsFullInterval(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 25, 0, 0, time.UTC)
	if got := untilNextTick(now, 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("wait %v", got)
	}
}

func TestExchangeOf(t *testing.T) {
	if got := exchangeOf("BSE:XYZ-EQ"); got != "BSE" {
		t.Fatalf("got %q", got)
	}
	if got := exchangeOf("RELIANCE-EQ"); got != "NSE" {
		t.Fatalf("bare symbol defaults to NSE, got %q", got)
	}
}
