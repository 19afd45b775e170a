package broker

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const bookTimeLayout = "15:04:05 02-01-2006"

func tranTypeFor(side models.Side) (string, error) {
	switch side {
	case models.SideBuy:
		return "B", nil
	case models.SideSell:
		return "S", nil
	}
	return "", errors.Errorf("unknown side %q", side)
}

// PlaceOrder submits the entry. With both protective legs set it goes out as
// a bracket product so the exchange carries the stop and target.
func (c *NorenClient) PlaceOrder(ctx context.Context, spec models.OrderSpec) (string, error) {
	tt, err := tranTypeFor(spec.Side)
	if err != nil {
		return "", errors.Wrap(err, "PlaceOrder")
	}
	if spec.Qty <= 0 {
		return "", errors.New("PlaceOrder: qty <= 0")
	}

	sess := c.sess.Load()
	if !sess.Valid() {
		return "", errors.Wrap(wrap(ErrAuth, nil), "PlaceOrder: no session")
	}

	jData := map[string]string{
		"actid":    sess.UserID,
		"exch":     spec.Exchange,
		"tsym":     spec.Symbol,
		"qty":      strconv.Itoa(spec.Qty),
		"trantype": tt,
		"ret":      "DAY",
		"remarks":  spec.Remarks,
	}

	if spec.Price > 0 {
		jData["prctyp"] = "LMT"
		jData["prc"] = formatPrice(spec.Price)
	} else {
		jData["prctyp"] = "MKT"
		jData["prc"] = "0"
	}

	if spec.StopLoss > 0 && spec.Target > 0 {
		jData["prd"] = "B" // bracket: entry + book-loss + book-profit as one unit
		jData["blprc"] = formatPrice(spec.StopLoss)
		jData["bpprc"] = formatPrice(spec.Target)
	} else {
		jData["prd"] = spec.Product
		if jData["prd"] == "" {
			jData["prd"] = "I"
		}
	}

	raw, err := c.authedCall(ctx, "/PlaceOrder", jData)
	if err != nil {
		return "", errors.Wrap(err, "PlaceOrder")
	}

	var resp struct {
		Stat       string `json:"stat"`
		NorenOrdNo string `json:"norenordno"`
		Emsg       string `json:"emsg"`
	}
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return "", protocolErr(err, "PlaceOrder decode")
	}
	if resp.Stat != "Ok" || resp.NorenOrdNo == "" {
		return "", errors.Wrap(classifyEmsg(resp.Emsg), "PlaceOrder")
	}
	return resp.NorenOrdNo, nil
}

// ModifyOrder re-points the protective trigger; used for trailing-stop moves.
func (c *NorenClient) ModifyOrder(ctx context.Context, orderID, exchange, symbol string, qty int, newTrigger float64) error {
	if newTrigger <= 0 {
		return errors.New("ModifyOrder: trigger <= 0")
	}
	raw, err := c.authedCall(ctx, "/ModifyOrder", map[string]string{
		"norenordno": orderID,
		"exch":       exchange,
		"tsym":       symbol,
		"qty":        strconv.Itoa(qty),
		"prctyp":     "SL-MKT",
		"trgprc":     formatPrice(newTrigger),
		"blprc":      formatPrice(newTrigger),
	})
	if err != nil {
		return errors.Wrap(err, "ModifyOrder")
	}
	return decodeStat(raw, "ModifyOrder")
}

func (c *NorenClient) CancelOrder(ctx context.Context, orderID string) error {
	raw, err := c.authedCall(ctx, "/CancelOrder", map[string]string{
		"norenordno": orderID,
	})
	if err != nil {
		return errors.Wrap(err, "CancelOrder")
	}
	return decodeStat(raw, "CancelOrder")
}

func decodeStat(raw []byte, op string) error {
	var resp struct {
		Stat string `json:"stat"`
		Emsg string `json:"emsg"`
	}
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return protocolErr(err, op+" decode")
	}
	if resp.Stat != "Ok" {
		return errors.Wrap(classifyEmsg(resp.Emsg), op)
	}
	return nil
}

// OrderBook returns the current-day order list.
func (c *NorenClient) OrderBook(ctx context.Context) ([]models.Order, error) {
	raw, err := c.authedCall(ctx, "/OrderBook", map[string]string{})
	if err != nil {
		return nil, errors.Wrap(err, "OrderBook")
	}
	if emptyBook(raw) {
		return nil, nil
	}

	var rows []struct {
		NorenOrdNo string `json:"norenordno"`
		TSym       string `json:"tsym"`
		TranType   string `json:"trantype"`
		Qty        string `json:"qty"`
		Prc        string `json:"prc"`
		Status     string `json:"status"`
		NorenTm    string `json:"norentm"`
	}
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, protocolErr(err, "OrderBook decode")
	}

	out := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		qty, _ := strconv.Atoi(r.Qty)
		prc, _ := strconv.ParseFloat(r.Prc, 64)
		ts, _ := time.ParseInLocation(bookTimeLayout, r.NorenTm, models.IST)
		out = append(out, models.Order{
			OrderID: r.NorenOrdNo,
			Symbol:  r.TSym,
			Side:    sideFromTranType(r.TranType),
			Qty:     qty,
			Price:   prc,
			Status:  r.Status,
			Time:    ts,
		})
	}
	return out, nil
}

// TradeBook returns the current-day fills, ascending by fill time.
func (c *NorenClient) TradeBook(ctx context.Context) ([]models.Trade, error) {
	raw, err := c.authedCall(ctx, "/TradeBook", map[string]string{})
	if err != nil {
		return nil, errors.Wrap(err, "TradeBook")
	}
	if emptyBook(raw) {
		return nil, nil
	}

	var rows []struct {
		NorenOrdNo string `json:"norenordno"`
		TSym       string `json:"tsym"`
		TranType   string `json:"trantype"`
		FillShares string `json:"fillshares"`
		FlPrc      string `json:"flprc"`
		FlTm       string `json:"norentm"`
	}
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, protocolErr(err, "TradeBook decode")
	}

	out := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		qty, _ := strconv.Atoi(r.FillShares)
		prc, _ := strconv.ParseFloat(r.FlPrc, 64)
		ts, err := time.ParseInLocation(bookTimeLayout, r.FlTm, models.IST)
		if err != nil {
			continue
		}
		out = append(out, models.Trade{
			OrderID:  r.NorenOrdNo,
			Symbol:   r.TSym,
			Side:     sideFromTranType(r.TranType),
			Qty:      qty,
			Price:    prc,
			FillTime: ts,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FillTime.Before(out[j].FillTime) })
	return out, nil
}

// emptyBook: the API answers {"stat":"Not_Ok","emsg":"no data"} for an empty
// day; that is a normal state, not an error.
func emptyBook(raw []byte) bool {
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var e struct {
		Stat string `json:"stat"`
	}
	_ = sonic.Unmarshal(raw, &e)
	return e.Stat == "Not_Ok"
}

func sideFromTranType(tt string) models.Side {
	switch tt {
	case "B":
		return models.SideBuy
	case "S":
		return models.SideSell
	}
	return models.SideNone
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
