package broker

import (
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

func testClient() *NorenClient {
	return NewNorenClient("http://example.invalid", "ws://example.invalid", time.Second)
}

func TestNormalizeTickVolumeDelta(t *testing.T) {
	c := testClient()

	tick, ok := c.normalizeTick(wsFrame{T: "tk", Tk: "2885", E: "NSE", Lp: "100.50", V: "1000", Ft: "1756350000"})
	if !ok {
		t.Fatal("valid frame rejected")
	}
	if tick.Volume != 0 {
		t.Fatalf("first observation has no previous cumulative, delta = %v", tick.Volume)
	}

	tick, ok = c.normalizeTick(wsFrame{T: "tf", Tk: "2885", Lp: "100.60", V: "1400"})
	if !ok {
		t.Fatal("update rejected")
	}
	if tick.Volume != 400 {
		t.Fatalf("delta = %v, want 400", tick.Volume)
	}
}

func TestNormalizeTickNegativeDeltaClampsToZero(t *testing.T) {
	c := testClient()
	if _, ok := c.normalizeTick(wsFrame{T: "tk", Tk: "2885", Lp: "100", V: "5000"}); !ok {
		t.Fatal("seed frame rejected")
	}
	// cumulative went backwards (resubscribe replay)
	tick, ok := c.normalizeTick(wsFrame{T: "tf", Tk: "2885", Lp: "100", V: "3000"})
	if !ok {
		t.Fatal("frame rejected")
	}
	if tick.Volume != 0 {
		t.Fatalf("negative delta must clamp to zero, got %v", tick.Volume)
	}
	// and the new baseline is the replayed cumulative
	tick, _ = c.normalizeTick(wsFrame{T: "tf", Tk: "2885", Lp: "100", V: "3100"})
	if tick.Volume != 100 {
		t.Fatalf("baseline not reset: delta = %v", tick.Volume)
	}
}

func TestNormalizeTickPerTokenBaselines(t *testing.T) {
	c := testClient()
	c.normalizeTick(wsFrame{T: "tk", Tk: "2885", Lp: "100", V: "1000"})
	c.normalizeTick(wsFrame{T: "tk", Tk: "11536", Lp: "50", V: "200"})

	tick, _ := c.normalizeTick(wsFrame{T: "tf", Tk: "11536", Lp: "50", V: "250"})
	if tick.Volume != 50 {
		t.Fatalf("tokens must not share volume state: %v", tick.Volume)
	}
}

func TestNormalizeTickRejectsMalformed(t *testing.T) {
	c := testClient()
	bad := []wsFrame{
		{T: "tk", Lp: "100"},               // no token
		{T: "tk", Tk: "2885"},              // no price
		{T: "tk", Tk: "2885", Lp: "zero"},  // unparseable price
		{T: "tk", Tk: "2885", Lp: "-1.5"},  // negative price
	}
	for _, f := range bad {
		if _, ok := c.normalizeTick(f); ok {
			t.Fatalf("frame %+v must be rejected", f)
		}
	}
}

func TestNormalizeTickFeedTime(t *testing.T) {
	c := testClient()
	tick, ok := c.normalizeTick(wsFrame{T: "tk", Tk: "2885", Lp: "100", Ft: "1756350000"})
	if !ok {
		t.Fatal("frame rejected")
	}
	if tick.Time.Unix() != 1756350000 {
		t.Fatalf("feed time not honoured: %v", tick.Time.Unix())
	}
	if tick.Time.Location() != models.IST {
		t.Fatalf("tick time must be IST, got %v", tick.Time.Location())
	}

	before := time.Now().Add(-time.Minute)
	tick, _ = c.normalizeTick(wsFrame{T: "tk", Tk: "2885", Lp: "100", Ft: "garbage"})
	if tick.Time.Before(before) {
		t.Fatalf("unparseable ft must fall back to now: %v", tick.Time)
	}
}
