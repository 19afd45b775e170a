package broker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/metrics"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// wsFrame covers every message shape the stream sends: connect ack (t="ck"),
// tick snapshots (t="tk") and tick updates (t="tf"). Prices and volumes come
// as strings; ft is the exchange feed time in epoch seconds.
type wsFrame struct {
	T    string `json:"t"`
	S    string `json:"s,omitempty"`
	Tk   string `json:"tk,omitempty"`
	E    string `json:"e,omitempty"`
	Lp   string `json:"lp,omitempty"`
	V    string `json:"v,omitempty"`
	Ft   string `json:"ft,omitempty"`
	Emsg string `json:"emsg,omitempty"`
}

// Subscribe adds tokens ("EXCH|TOKEN") to the live set and pushes the
// subscription when the socket is up.
func (c *NorenClient) Subscribe(tokens []string) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, t := range tokens {
		c.subscribed[t] = struct{}{}
	}
	if c.conn == nil {
		return nil
	}
	return c.sendSubLocked("t", tokens)
}

func (c *NorenClient) Unsubscribe(tokens []string) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, t := range tokens {
		delete(c.subscribed, t)
	}
	if c.conn == nil {
		return nil
	}
	return c.sendSubLocked("u", tokens)
}

func (c *NorenClient) sendSubLocked(op string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	msg := map[string]string{"t": op, "k": strings.Join(tokens, "#")}
	if err := c.conn.WriteJSON(msg); err != nil {
		return transportErr(err, "subscribe write")
	}
	return nil
}

// Stream runs the tick transport until ctx is cancelled. It reconnects on
// read errors with a short sleep; handler callbacks run on this goroutine and
// must not block. Per-message failures are counted and swallowed; one bad
// frame must never kill the stream.
func (c *NorenClient) Stream(ctx context.Context, h StreamHandlers) error {
	sess := c.sess.Load()
	if !sess.Valid() {
		return errors.Wrap(wrap(ErrAuth, nil), "Stream: no session")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.streamOnce(ctx, sess, h); err != nil {
			if errors.Is(err, ErrAuth) {
				return err
			}
			logger.Error("stream: %v", err)
			if h.OnClose != nil {
				h.OnClose(err)
			}
		}

		metrics.StreamReconnects.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (c *NorenClient) streamOnce(ctx context.Context, sess *models.Session, h StreamHandlers) error {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return transportErr(err, "dial")
	}
	defer conn.Close()

	login := map[string]string{
		"t":          "c",
		"uid":        sess.UserID,
		"actid":      sess.UserID,
		"susertoken": sess.Token,
		"source":     "API",
	}
	if err := conn.WriteJSON(login); err != nil {
		return transportErr(err, "login write")
	}

	// first frame must be the connect ack
	var ack wsFrame
	if err := conn.ReadJSON(&ack); err != nil {
		return transportErr(err, "ack read")
	}
	if ack.T != "ck" || ack.S != "OK" {
		return authErr(errors.Errorf("ack t=%s s=%s emsg=%s", ack.T, ack.S, ack.Emsg), "stream login")
	}

	c.subMu.Lock()
	c.conn = conn
	tokens := make([]string, 0, len(c.subscribed))
	for t := range c.subscribed {
		tokens = append(tokens, t)
	}
	err = c.sendSubLocked("t", tokens)
	c.subMu.Unlock()
	if err != nil {
		return err
	}

	if h.OnOpen != nil {
		h.OnOpen()
	}
	defer func() {
		c.subMu.Lock()
		c.conn = nil
		c.subMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return transportErr(err, "read")
		}

		var frame wsFrame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			metrics.TicksMalformed.Inc()
			continue
		}
		if frame.T != "tk" && frame.T != "tf" {
			continue
		}

		tick, ok := c.normalizeTick(frame)
		if !ok {
			metrics.TicksMalformed.Inc()
			continue
		}
		metrics.TicksTotal.WithLabelValues(tick.Exchange).Inc()
		if h.OnTick != nil {
			h.OnTick(tick)
		}
	}
}

// normalizeTick validates a raw frame and converts the wire's cumulative day
// volume to a per-tick delta. A negative delta (day rollover, resubscribe
// replay) clamps to zero rather than corrupting the bar.
func (c *NorenClient) normalizeTick(f wsFrame) (models.Tick, bool) {
	if f.Tk == "" || f.Lp == "" {
		return models.Tick{}, false
	}
	lp, err := strconv.ParseFloat(f.Lp, 64)
	if err != nil || lp <= 0 {
		return models.Tick{}, false
	}

	ts := time.Now().In(models.IST)
	if f.Ft != "" {
		if sec, err := strconv.ParseInt(f.Ft, 10, 64); err == nil && sec > 0 {
			ts = time.Unix(sec, 0).In(models.IST)
		}
	}

	var delta float64
	if f.V != "" {
		if cum, err := strconv.ParseFloat(f.V, 64); err == nil {
			c.subMu.Lock()
			prev, seen := c.lastVol[f.Tk]
			if seen && cum >= prev {
				delta = cum - prev
			}
			c.lastVol[f.Tk] = cum
			c.subMu.Unlock()
		}
	}

	return models.Tick{
		Token:     f.Tk,
		Exchange:  f.E,
		LastPrice: lp,
		Volume:    delta,
		Time:      ts,
	}, true
}
