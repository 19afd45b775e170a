package broker

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const tpTimeLayout = "02-01-2006 15:04:05"

// TPSeries fetches historical candles for a token, ascending. The wire
// returns newest-first with string-typed numbers; missing bars are tolerated.
func (c *NorenClient) TPSeries(ctx context.Context, exchange, token string, interval models.Interval, from, to time.Time) ([]models.Candle, error) {
	if !interval.Valid() {
		return nil, errors.Errorf("TPSeries: unsupported interval %d", interval)
	}

	raw, err := c.authedCall(ctx, "/TPSeries", map[string]string{
		"exch":  exchange,
		"token": token,
		"st":    strconv.FormatInt(from.Unix(), 10),
		"et":    strconv.FormatInt(to.Unix(), 10),
		"intrv": strconv.Itoa(int(interval)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "TPSeries")
	}

	// error shape is an object, data shape is an array
	if len(raw) > 0 && raw[0] == '{' {
		var e struct {
			Stat string `json:"stat"`
			Emsg string `json:"emsg"`
		}
		if err := sonic.Unmarshal(raw, &e); err != nil {
			return nil, protocolErr(err, "TPSeries decode")
		}
		return nil, errors.Wrap(classifyEmsg(e.Emsg), "TPSeries")
	}

	var rows []struct {
		Stat  string `json:"stat"`
		Time  string `json:"time"`
		Open  string `json:"into"`
		High  string `json:"inth"`
		Low   string `json:"intl"`
		Close string `json:"intc"`
		Vol   string `json:"intv"`
	}
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, protocolErr(err, "TPSeries decode")
	}

	out := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		if r.Stat != "Ok" {
			continue
		}
		ts, err := time.ParseInLocation(tpTimeLayout, r.Time, models.IST)
		if err != nil {
			continue
		}
		o, err1 := strconv.ParseFloat(r.Open, 64)
		h, err2 := strconv.ParseFloat(r.High, 64)
		l, err3 := strconv.ParseFloat(r.Low, 64)
		cl, err4 := strconv.ParseFloat(r.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		v, _ := strconv.ParseFloat(r.Vol, 64)
		out = append(out, models.Candle{
			Time: ts, Open: o, High: h, Low: l, Close: cl, Volume: v,
			Interval: interval,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
