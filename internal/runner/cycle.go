package runner

import (
	"sort"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/pkg/errors"
)

// ErrCycleBlocked is the admitted rejection: the day's trade book already
// carries the round trip this order would extend.
var ErrCycleBlocked = errors.New("runner: cycle blocked for today")

// DeriveCycle scans the day's fills for one symbol in chronological order and
// derives the admission flags. A BUY eventually followed by a SELL completes
// the buy cycle; a completed SELL then BUY round trip locks the symbol for the
// rest of the day. An unbalanced last side blocks more orders on that side
// until the opposite fill balances it.
func DeriveCycle(trades []models.Trade, symbol string, day time.Time) models.CycleState {
	var cs models.CycleState

	var todays []models.Trade
	for _, t := range trades {
		if t.Symbol != symbol || !models.SameDay(t.FillTime, day) {
			continue
		}
		todays = append(todays, t)
	}
	sort.SliceStable(todays, func(i, j int) bool {
		return todays[i].FillTime.Before(todays[j].FillTime)
	})

	var buySellDone, sellBuyDone bool
	firstBuy, firstSell := -1, -1
	for i, t := range todays {
		switch t.Side {
		case models.SideBuy:
			if firstBuy < 0 {
				firstBuy = i
			}
			if firstSell >= 0 && i > firstSell {
				sellBuyDone = true
			}
		case models.SideSell:
			if firstSell < 0 {
				firstSell = i
			}
			if firstBuy >= 0 && i > firstBuy {
				buySellDone = true
			}
		}
		cs.LastSide = t.Side
	}

	cs.FullLock = sellBuyDone
	if !buySellDone && !sellBuyDone {
		switch cs.LastSide {
		case models.SideBuy:
			cs.BuyCycleDone = true
		case models.SideSell:
			cs.SellCycleDone = true
		}
	}
	return cs
}

// Admit checks a prospective order side against the cycle state.
func Admit(cs models.CycleState, side models.Side) error {
	if cs.FullLock {
		return errors.Wrap(ErrCycleBlocked, "full lock")
	}
	switch side {
	case models.SideBuy:
		if cs.BuyCycleDone {
			return errors.Wrap(ErrCycleBlocked, "buy cycle open")
		}
	case models.SideSell:
		if cs.SellCycleDone {
			return errors.Wrap(ErrCycleBlocked, "sell cycle open")
		}
	default:
		return errors.New("runner: no side")
	}
	return nil
}
