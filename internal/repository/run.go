package repository

import (
	"context"
	"errors"
	"fmt"
	"perfledger/types"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LoadRun assembles the engine input for a stored run. Fills and order events come back
// in timestamp order, ties broken by insertion order.
func (db *Database) LoadRun(ctx context.Context, runID string) (types.RunInput, error) {
	run, err := db.runs.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.RunInput{}, fmt.Errorf("run %s %w", runID, ErrRunNotFound)
		}
		return types.RunInput{}, fmt.Errorf("get run: %w", err)
	}
	fills, err := db.events.ListRunFills(ctx, runID)
	if err != nil {
		return types.RunInput{}, fmt.Errorf("list fills: %w", err)
	}
	events, err := db.events.ListRunOrderEvents(ctx, runID)
	if err != nil {
		return types.RunInput{}, fmt.Errorf("list order events: %w", err)
	}
	marks, err := db.runs.ListRunMarks(ctx, runID)
	if err != nil {
		return types.RunInput{}, fmt.Errorf("list marks: %w", err)
	}

	in := types.RunInput{
		RunID:              run.ID,
		SettlementCurrency: strings.ToUpper(run.SettlementCurrency),
		StartingBalance:    run.StartingBalance,
		FinalBalance:       run.FinalBalance,
		ClosePositions:     run.ClosePositions,
		Fills:              convertFills(fills),
		OrderEvents:        convertOrderEvents(events),
	}
	if run.ReportedRealized.Valid || run.ReportedUnrealized.Valid {
		in.Reported = &types.ReportedPnL{
			Realized:   nullToZero(run.ReportedRealized),
			Unrealized: nullToZero(run.ReportedUnrealized),
		}
	}
	if len(marks) > 0 {
		in.MarkPrices = make(map[string]decimal.Decimal, len(marks))
		for _, m := range marks {
			in.MarkPrices[m.InstrumentID] = m.Price
		}
	}
	return in, nil
}

func convertFills(rows []RunFill) []types.Fill {
	fills := make([]types.Fill, 0, len(rows))
	for _, row := range rows {
		side, _ := types.ParseSide(row.Side)
		fill := types.NewFill(row.OrderID, row.InstrumentID, side, row.Price, row.Quantity, row.Ts.UTC())
		fills = append(fills, fill.WithCommission(row.Commission, strings.ToUpper(deref(row.CommissionCurrency))))
	}
	return fills
}

func convertOrderEvents(rows []RunOrderEvent) []types.OrderEvent {
	events := make([]types.OrderEvent, 0, len(rows))
	for _, row := range rows {
		side, _ := types.ParseSide(row.Side)
		status, ok := types.ParseOrderStatus(row.Status)
		if !ok {
			status = types.OrderStatus(strings.ToUpper(row.Status))
		}
		events = append(events, types.OrderEvent{
			OrderID:      row.OrderID,
			InstrumentID: row.InstrumentID,
			Side:         side,
			Status:       status,
			Price:        row.Price,
			AvgPrice:     row.AvgPrice,
			Quantity:     row.Quantity,
			FilledQty:    row.FilledQty,
			Reason:       deref(row.Reason),
			Time:         row.Ts.UTC(),
		})
	}
	return events
}

func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
