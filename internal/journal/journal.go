// Package journal persists entries and exits of every position into
// Postgres. The trader keeps running without a database: an empty DSN
// disables the journal and only the log carries the trade history.
package journal

import (
	"context"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const createTable = `
CREATE TABLE IF NOT EXISTS trade_journal (
    id          BIGSERIAL PRIMARY KEY,
    symbol      TEXT        NOT NULL,
    side        TEXT        NOT NULL,
    qty         BIGINT      NOT NULL,
    entry_price DOUBLE PRECISION NOT NULL,
    stop_loss   DOUBLE PRECISION NOT NULL,
    target      DOUBLE PRECISION NOT NULL,
    order_id    TEXT        NOT NULL,
    reason      TEXT        NOT NULL DEFAULT '',
    exit_price  DOUBLE PRECISION,
    exit_time   TIMESTAMPTZ,
    opened_at   TIMESTAMPTZ NOT NULL,
    closed      BOOLEAN     NOT NULL DEFAULT FALSE
)`

const insertEntry = `
INSERT INTO trade_journal (symbol, side, qty, entry_price, stop_loss, target, order_id, reason, opened_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const markExit = `
UPDATE trade_journal
SET exit_price = $1, exit_time = $2, closed = TRUE
WHERE order_id = $3 AND NOT closed`

type Journal struct {
	tm db.TxManager
}

func New(ctx context.Context, tm db.TxManager) (*Journal, error) {
	j := &Journal{tm: tm}
	err := tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createTable)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "journal: init schema")
	}
	return j, nil
}

func (j *Journal) RecordEntry(ctx context.Context, p models.Position, reason string) error {
	err := j.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertEntry,
			p.Symbol, string(p.Side), p.Qty, p.EntryPrice, p.StopLoss, p.Target,
			p.OrderID, reason, p.EntryTime)
		return err
	})
	return errors.Wrap(err, "journal: record entry")
}

func (j *Journal) RecordExit(ctx context.Context, p models.Position) error {
	err := j.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, markExit, p.ExitPrice, p.ExitTime, p.OrderID)
		return err
	})
	return errors.Wrap(err, "journal: record exit")
}
