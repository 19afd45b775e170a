// Package runner is the position manager: it turns admitted signals into
// broker orders, trails protective stops from live price and watches open
// positions for exits. One active position per symbol, at most one round
// trip per direction per day.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/metrics"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Notifier interface {
	Sendf(format string, args ...any)
}

type Journal interface {
	RecordEntry(ctx context.Context, p models.Position, reason string) error
	RecordExit(ctx context.Context, p models.Position) error
}

type Manager struct {
	client   broker.Client
	notifier Notifier // nil ok
	journal  Journal  // nil ok

	mu        sync.Mutex
	positions map[string]*models.Position
}

func NewManager(client broker.Client, notifier Notifier, journal Journal) *Manager {
	return &Manager{
		client:    client,
		notifier:  notifier,
		journal:   journal,
		positions: make(map[string]*models.Position),
	}
}

func (m *Manager) sendf(format string, args ...any) {
	if m.notifier != nil {
		m.notifier.Sendf(format, args...)
	}
}

// HandleSignal admits a signal against the day's cycle state and places the
// bracket order. Rejections are logged and surfaced; the bar is not retried.
func (m *Manager) HandleSignal(ctx context.Context, sig models.Signal, exchange string) error {
	if sig.Side == models.SideNone {
		return nil
	}
	if sig.Qty <= 0 {
		return errors.Errorf("runner: no quantity for %s @ %.2f", sig.Symbol, sig.LastPrice)
	}

	m.mu.Lock()
	_, open := m.positions[sig.Symbol]
	m.mu.Unlock()
	if open {
		return errors.Wrapf(ErrCycleBlocked, "%s: position already open", sig.Symbol)
	}

	trades, err := m.client.TradeBook(ctx)
	if err != nil {
		return errors.Wrap(err, "cycle state")
	}
	cs := DeriveCycle(trades, sig.Symbol, time.Now().In(models.IST))
	if err := Admit(cs, sig.Side); err != nil {
		return errors.Wrapf(err, "%s %s", sig.Symbol, sig.Side)
	}

	spec := models.OrderSpec{
		Exchange: exchange,
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Qty:      sig.Qty,
		Price:    0, // market entry
		StopLoss: sig.StopLoss,
		Target:   sig.Target,
		Product:  "I",
		Remarks:  "trm-" + uuid.NewString()[:8],
	}

	orderID, err := m.client.PlaceOrder(ctx, spec)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(sig.Symbol).Inc()
		return errors.Wrap(err, "place order")
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()

	pos := &models.Position{
		Symbol:     sig.Symbol,
		Exchange:   exchange,
		Side:       sig.Side,
		EntryPrice: sig.LastPrice,
		EntryTime:  time.Now().In(models.IST),
		Qty:        sig.Qty,
		StopLoss:   sig.StopLoss,
		Target:     sig.Target,
		OrderID:    orderID,
		Status:     models.PositionOpen,
	}

	m.mu.Lock()
	m.positions[sig.Symbol] = pos
	m.mu.Unlock()

	if m.journal != nil {
		if err := m.journal.RecordEntry(ctx, *pos, sig.Reason); err != nil {
			logger.Error("journal entry %s: %v", sig.Symbol, err)
		}
	}
	m.sendf("ENTRY %s %s qty=%d @ %.2f SL=%.2f TP=%.2f (%s)",
		sig.Side, sig.Symbol, sig.Qty, sig.LastPrice, sig.StopLoss, sig.Target, sig.Reason)
	logger.Info("entry %s %s qty=%d order=%s", sig.Side, sig.Symbol, sig.Qty, orderID)
	return nil
}

// Trail applies the time-of-day trailing rule to one open position. The stop
// only ever moves in the position's favour, and at most once per couple of
// seconds per position.
func (m *Manager) Trail(ctx context.Context, symbol string, lastPrice float64) {
	m.mu.Lock()
	pos, ok := m.positions[symbol]
	if !ok || pos.Status != models.PositionOpen {
		m.mu.Unlock()
		return
	}
	if !pos.LastTrailAt.IsZero() && time.Since(pos.LastTrailAt) < 2*time.Second {
		m.mu.Unlock()
		return
	}
	side, entry, entryTime, current := pos.Side, pos.EntryPrice, pos.EntryTime, pos.StopLoss
	qty, orderID, exchange := pos.Qty, pos.OrderID, pos.Exchange
	m.mu.Unlock()

	candidate, ok := TrailLevel(side, entry, entryTime, lastPrice)
	if !ok || !tighter(side, current, candidate) {
		return
	}

	if err := m.client.ModifyOrder(ctx, orderID, exchange, symbol, qty, candidate); err != nil {
		logger.Error("trail %s: %v", symbol, err)
		return
	}

	m.mu.Lock()
	if p := m.positions[symbol]; p != nil && tighter(p.Side, p.StopLoss, candidate) {
		p.StopLoss = candidate
		p.LastTrailAt = time.Now().In(models.IST)
	}
	m.mu.Unlock()

	metrics.TrailUpdates.WithLabelValues(symbol).Inc()
	m.sendf("TRAIL %s SL -> %.2f (last %.2f)", symbol, candidate, lastPrice)
	logger.Info("trail %s sl=%.2f last=%.2f", symbol, candidate, lastPrice)
}

// CheckExit closes the position when the stop or target is taken, either
// seen in the trade book as an opposite fill after entry or by local price
// compare against the protective levels.
func (m *Manager) CheckExit(ctx context.Context, symbol string, lastPrice float64) {
	m.mu.Lock()
	pos, ok := m.positions[symbol]
	if !ok || pos.Status != models.PositionOpen {
		m.mu.Unlock()
		return
	}
	snapshot := *pos
	m.mu.Unlock()

	exitPrice, hit := localExit(snapshot, lastPrice)

	if !hit {
		trades, err := m.client.TradeBook(ctx)
		if err != nil {
			logger.Error("exit monitor %s: %v", symbol, err)
			return
		}
		for _, t := range trades {
			if t.Symbol == symbol && t.Side == opposite(snapshot.Side) && t.FillTime.After(snapshot.EntryTime) {
				exitPrice, hit = t.Price, true
				break
			}
		}
	}
	if !hit {
		return
	}

	m.close(ctx, symbol, exitPrice)
}

func localExit(pos models.Position, last float64) (float64, bool) {
	if last <= 0 {
		return 0, false
	}
	if pos.Side == models.SideBuy {
		if pos.StopLoss > 0 && last <= pos.StopLoss {
			return pos.StopLoss, true
		}
		if pos.Target > 0 && last >= pos.Target {
			return pos.Target, true
		}
		return 0, false
	}
	if pos.StopLoss > 0 && last >= pos.StopLoss {
		return pos.StopLoss, true
	}
	if pos.Target > 0 && last <= pos.Target {
		return pos.Target, true
	}
	return 0, false
}

func (m *Manager) close(ctx context.Context, symbol string, exitPrice float64) {
	m.mu.Lock()
	pos, ok := m.positions[symbol]
	if !ok {
		m.mu.Unlock()
		return
	}
	pos.Status = models.PositionClosed
	pos.ExitPrice = exitPrice
	pos.ExitTime = time.Now().In(models.IST)
	closed := *pos
	delete(m.positions, symbol)
	m.mu.Unlock()

	if m.journal != nil {
		if err := m.journal.RecordExit(ctx, closed); err != nil {
			logger.Error("journal exit %s: %v", symbol, err)
		}
	}
	m.sendf("EXIT %s %s @ %.2f (entry %.2f)", closed.Side, symbol, exitPrice, closed.EntryPrice)
	logger.Info("exit %s %s @ %.2f", closed.Side, symbol, exitPrice)
}

// FlattenAll squares off every open position at market. Intraday product
// positions must not survive the session close.
func (m *Manager) FlattenAll(ctx context.Context, priceOf func(symbol string) float64) {
	for _, pos := range m.OpenPositions() {
		spec := models.OrderSpec{
			Exchange: pos.Exchange,
			Symbol:   pos.Symbol,
			Side:     opposite(pos.Side),
			Qty:      pos.Qty,
			Product:  "I",
			Remarks:  "trm-eod-" + uuid.NewString()[:8],
		}
		if _, err := m.client.PlaceOrder(ctx, spec); err != nil {
			logger.Error("flatten %s: %v", pos.Symbol, err)
			continue
		}
		exitPrice := pos.EntryPrice
		if priceOf != nil {
			if p := priceOf(pos.Symbol); p > 0 {
				exitPrice = p
			}
		}
		m.close(ctx, pos.Symbol, exitPrice)
	}
}

func (m *Manager) OpenPositions() []models.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out
}

func opposite(s models.Side) models.Side {
	if s == models.SideBuy {
		return models.SideSell
	}
	return models.SideBuy
}
