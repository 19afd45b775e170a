package broker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// splitBody parses the wire form "jData=<json>&jKey=<token>".
func splitBody(t *testing.T, r *http.Request) (map[string]any, string) {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if !strings.HasPrefix(body, "jData=") {
		t.Fatalf("body must start with jData=: %q", body)
	}
	body = strings.TrimPrefix(body, "jData=")
	jKey := ""
	if i := strings.Index(body, "&jKey="); i >= 0 {
		jKey = body[i+len("&jKey="):]
		body = body[:i]
	}
	var jData map[string]any
	if err := sonic.Unmarshal([]byte(body), &jData); err != nil {
		t.Fatalf("jData not json: %v", err)
	}
	return jData, jKey
}

func attachedClient(baseURL string) *NorenClient {
	c := NewNorenClient(baseURL, "ws://unused.invalid", time.Second)
	c.AttachSession(&models.Session{Token: "tok123", UserID: "FA0001"})
	return c
}

func TestLoginHashesCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/QuickAuth" {
			t.Fatalf("path %s", r.URL.Path)
		}
		jData, jKey := splitBody(t, r)
		if jKey != "" {
			t.Fatalf("QuickAuth must not carry jKey, got %q", jKey)
		}
		if jData["pwd"] == "secret" {
			t.Fatal("password must be hashed before it leaves the process")
		}
		if jData["pwd"] != sha256Hex("secret") {
			t.Fatalf("pwd = %v", jData["pwd"])
		}
		if jData["appkey"] != sha256Hex("FA0001|apikey") {
			t.Fatalf("appkey = %v", jData["appkey"])
		}
		_, _ = w.Write([]byte(`{"stat":"Ok","susertoken":"tok123"}`))
	}))
	defer srv.Close()

	c := NewNorenClient(srv.URL, "ws://unused.invalid", time.Second)
	sess, err := c.Login(context.Background(), Credentials{
		UserID: "FA0001", Password: "secret", Factor2: "x", VC: "FA0001_U", APIKey: "apikey", IMEI: "imei",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token != "tok123" || sess.UserID != "FA0001" {
		t.Fatalf("session wrong: %+v", sess)
	}
	if got := c.Session(); got == nil || got.Token != "tok123" {
		t.Fatal("session must be attached after login")
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"Not_Ok","emsg":"Invalid Input : user or password wrong"}`))
	}))
	defer srv.Close()

	c := NewNorenClient(srv.URL, "ws://unused.invalid", time.Second)
	_, err := c.Login(context.Background(), Credentials{UserID: "FA0001", Password: "bad"})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("want ErrAuth, got %v", err)
	}
}

func TestTPSeriesParsesAndSortsAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jData, jKey := splitBody(t, r)
		if jKey != "tok123" {
			t.Fatalf("jKey = %q", jKey)
		}
		if jData["uid"] != "FA0001" || jData["intrv"] != "1" {
			t.Fatalf("jData: %v", jData)
		}
		// newest-first, as the broker sends it
		_, _ = w.Write([]byte(`[
			{"stat":"Ok","time":"28-08-2026 09:16:00","into":"101","inth":"102","intl":"100.5","intc":"101.5","intv":"200"},
			{"stat":"Ok","time":"28-08-2026 09:15:00","into":"100","inth":"101","intl":"99.5","intc":"101","intv":"150"}
		]`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	out, err := c.TPSeries(context.Background(), "NSE", "2885", models.Interval1m,
		time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d rows", len(out))
	}
	if !out[0].Time.Before(out[1].Time) {
		t.Fatal("rows must be ascending")
	}
	if out[0].Open != 100 || out[0].Volume != 150 {
		t.Fatalf("row 0: %+v", out[0])
	}
}

func TestTPSeriesErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"Not_Ok","emsg":"Session Expired"}`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	_, err := c.TPSeries(context.Background(), "NSE", "2885", models.Interval1m,
		time.Now().Add(-time.Hour), time.Now())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("want ErrAuth for session expiry, got %v", err)
	}
}

func TestPlaceOrderBracketFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jData, _ := splitBody(t, r)
		if jData["prd"] != "B" {
			t.Fatalf("bracket product expected, got %v", jData["prd"])
		}
		if jData["blprc"] != "98.50" || jData["bpprc"] != "104.00" {
			t.Fatalf("protective legs wrong: %v", jData)
		}
		if jData["prctyp"] != "MKT" || jData["trantype"] != "B" {
			t.Fatalf("order shape wrong: %v", jData)
		}
		_, _ = w.Write([]byte(`{"stat":"Ok","norenordno":"26082800001"}`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	id, err := c.PlaceOrder(context.Background(), models.OrderSpec{
		Exchange: "NSE", Symbol: "RELIANCE-EQ", Side: models.SideBuy,
		Qty: 10, StopLoss: 98.5, Target: 104, Product: "I", Remarks: "trm-test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "26082800001" {
		t.Fatalf("order id %q", id)
	}
}

func TestPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"Not_Ok","emsg":"RED:Margin Shortfall"}`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	_, err := c.PlaceOrder(context.Background(), models.OrderSpec{
		Exchange: "NSE", Symbol: "RELIANCE-EQ", Side: models.SideBuy, Qty: 10,
	})
	if err == nil {
		t.Fatal("rejection must surface")
	}
}

func TestTradeBookEmptyDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"Not_Ok","emsg":"no data"}`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	trades, err := c.TradeBook(context.Background())
	if err != nil {
		t.Fatalf("empty book is not an error: %v", err)
	}
	if trades != nil {
		t.Fatalf("expected no trades, got %v", trades)
	}
}

func TestTradeBookAscendingFills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"norenordno":"2","tsym":"RELIANCE-EQ","trantype":"S","fillshares":"10","flprc":"102.5","norentm":"10:05:00 28-08-2026"},
			{"norenordno":"1","tsym":"RELIANCE-EQ","trantype":"B","fillshares":"10","flprc":"100.0","norentm":"09:40:00 28-08-2026"}
		]`))
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	trades, err := c.TradeBook(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d fills", len(trades))
	}
	if trades[0].OrderID != "1" || trades[0].Side != models.SideBuy {
		t.Fatalf("fills not ascending: %+v", trades)
	}
}

func TestRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := attachedClient(srv.URL)
	_, err := c.OrderBook(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}
