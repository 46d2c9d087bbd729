package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries holds the hand written statements for the run tables.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Run struct {
	ID                 string              `db:"id"`
	SettlementCurrency string              `db:"settlement_currency"`
	StartingBalance    decimal.Decimal     `db:"starting_balance"`
	FinalBalance       decimal.Decimal     `db:"final_balance"`
	ClosePositions     bool                `db:"close_positions"`
	ReportedRealized   decimal.NullDecimal `db:"reported_realized"`
	ReportedUnrealized decimal.NullDecimal `db:"reported_unrealized"`
}

type RunFill struct {
	OrderID            string          `db:"order_id"`
	InstrumentID       string          `db:"instrument_id"`
	Side               string          `db:"side"`
	Price              decimal.Decimal `db:"price"`
	Quantity           decimal.Decimal `db:"quantity"`
	Commission         decimal.Decimal `db:"commission"`
	CommissionCurrency *string         `db:"commission_currency"`
	Ts                 time.Time       `db:"ts"`
}

type RunOrderEvent struct {
	OrderID      string          `db:"order_id"`
	InstrumentID string          `db:"instrument_id"`
	Side         string          `db:"side"`
	Status       string          `db:"status"`
	Price        decimal.Decimal `db:"price"`
	AvgPrice     decimal.Decimal `db:"avg_price"`
	Quantity     decimal.Decimal `db:"quantity"`
	FilledQty    decimal.Decimal `db:"filled_qty"`
	Reason       *string         `db:"reason"`
	Ts           time.Time       `db:"ts"`
}

type RunMark struct {
	InstrumentID string          `db:"instrument_id"`
	Price        decimal.Decimal `db:"price"`
}

const getRun = `SELECT id, settlement_currency, starting_balance, final_balance, close_positions,
       reported_realized, reported_unrealized
FROM runs
WHERE id = $1`

func (q *Queries) GetRun(ctx context.Context, id string) (Run, error) {
	rows, err := q.db.Query(ctx, getRun, id)
	if err != nil {
		return Run{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Run])
}

const listRunFills = `SELECT order_id, instrument_id, side, price, quantity, commission, commission_currency, ts
FROM run_fills
WHERE run_id = $1
ORDER BY ts, id`

func (q *Queries) ListRunFills(ctx context.Context, runID string) ([]RunFill, error) {
	rows, err := q.db.Query(ctx, listRunFills, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[RunFill])
}

const listRunOrderEvents = `SELECT order_id, instrument_id, side, status, price, avg_price, quantity, filled_qty, reason, ts
FROM run_order_events
WHERE run_id = $1
ORDER BY ts, id`

func (q *Queries) ListRunOrderEvents(ctx context.Context, runID string) ([]RunOrderEvent, error) {
	rows, err := q.db.Query(ctx, listRunOrderEvents, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[RunOrderEvent])
}

const listRunMarks = `SELECT instrument_id, price
FROM run_marks
WHERE run_id = $1
ORDER BY instrument_id`

func (q *Queries) ListRunMarks(ctx context.Context, runID string) ([]RunMark, error) {
	rows, err := q.db.Query(ctx, listRunMarks, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[RunMark])
}

const upsertRunSummary = `INSERT INTO run_summaries (run_id, net_pnl, summary, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (run_id) DO UPDATE
SET net_pnl = EXCLUDED.net_pnl, summary = EXCLUDED.summary, updated_at = now()`

type UpsertRunSummaryParams struct {
	RunID   string
	NetPnL  decimal.Decimal
	Summary []byte
}

func (q *Queries) UpsertRunSummary(ctx context.Context, arg UpsertRunSummaryParams) error {
	_, err := q.db.Exec(ctx, upsertRunSummary, arg.RunID, arg.NetPnL, arg.Summary)
	return err
}

const getRunSummary = `SELECT summary FROM run_summaries WHERE run_id = $1`

func (q *Queries) GetRunSummary(ctx context.Context, runID string) ([]byte, error) {
	var summary []byte
	err := q.db.QueryRow(ctx, getRunSummary, runID).Scan(&summary)
	return summary, err
}
