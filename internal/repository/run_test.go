package repository

import (
	"context"
	"errors"
	"perfledger/types"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var fillTime = time.UnixMilli(0).UTC()

type mockRunsRepository struct {
	sqlError error
	run      Run
	marks    []RunMark
}

type mockEventsRepository struct {
	sqlError error
	fills    []RunFill
	events   []RunOrderEvent
}

func (m mockRunsRepository) GetRun(_ context.Context, id string) (Run, error) {
	if m.sqlError != nil {
		return Run{}, m.sqlError
	}
	r := m.run
	r.ID = id
	return r, nil
}

func (m mockRunsRepository) ListRunMarks(_ context.Context, _ string) ([]RunMark, error) {
	return m.marks, nil
}

func (m mockEventsRepository) ListRunFills(_ context.Context, _ string) ([]RunFill, error) {
	if m.sqlError != nil {
		return nil, m.sqlError
	}
	return m.fills, nil
}

func (m mockEventsRepository) ListRunOrderEvents(_ context.Context, _ string) ([]RunOrderEvent, error) {
	if m.sqlError != nil {
		return nil, m.sqlError
	}
	return m.events, nil
}

func TestDatabase_LoadRun(t *testing.T) {
	usd := "usd"
	reason := "insufficient margin"
	storedRun := Run{
		SettlementCurrency: "usd",
		StartingBalance:    decimal.RequireFromString("1000"),
		FinalBalance:       decimal.RequireFromString("1099"),
		ReportedRealized:   decimal.NewNullDecimal(decimal.RequireFromString("100")),
	}
	fills := []RunFill{
		{OrderID: "o1", InstrumentID: "AAPL", Side: "BUY", Price: decimal.RequireFromString("100"), Quantity: decimal.RequireFromString("10"), Commission: decimal.RequireFromString("0.5"), CommissionCurrency: &usd, Ts: fillTime},
		{OrderID: "o2", InstrumentID: "AAPL", Side: "sell", Price: decimal.RequireFromString("110"), Quantity: decimal.RequireFromString("10"), Commission: decimal.RequireFromString("0.5"), Ts: fillTime.Add(time.Minute)},
	}
	events := []RunOrderEvent{
		{OrderID: "o3", InstrumentID: "AAPL", Side: "BUY", Status: "ORDER_DENIED", Reason: &reason, Ts: fillTime},
	}

	tests := []struct {
		name      string
		runErr    error
		eventsErr error
		wantErr   error
	}{
		{"should throw ErrRunNotFound", pgx.ErrNoRows, nil, ErrRunNotFound},
		{"should pass through fill errors", nil, errors.New("connection reset"), nil},
		{"should return run", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{
				runs: mockRunsRepository{
					sqlError: tt.runErr,
					run:      storedRun,
					marks:    []RunMark{{InstrumentID: "AAPL", Price: decimal.RequireFromString("111")}},
				},
				events: mockEventsRepository{sqlError: tt.eventsErr, fills: fills, events: events},
			}
			got, err := db.LoadRun(context.Background(), "run-1")
			if tt.runErr != nil || tt.eventsErr != nil {
				if err == nil {
					t.Fatal("LoadRun() expected error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadRun() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadRun() unexpected error = %v", err)
			}
			if got.RunID != "run-1" || got.SettlementCurrency != "USD" {
				t.Errorf("LoadRun() run = %q %q", got.RunID, got.SettlementCurrency)
			}
			if len(got.Fills) != 2 || got.Fills[1].Side != types.SideTypeSell {
				t.Errorf("LoadRun() fills = %+v", got.Fills)
			}
			if got.Fills[0].CommissionCurrency != "USD" || got.Fills[1].CommissionCurrency != "" {
				t.Errorf("LoadRun() commission currencies = %q %q", got.Fills[0].CommissionCurrency, got.Fills[1].CommissionCurrency)
			}
			if len(got.OrderEvents) != 1 || got.OrderEvents[0].Status != types.OrderDenied || got.OrderEvents[0].Reason != reason {
				t.Errorf("LoadRun() events = %+v", got.OrderEvents)
			}
			if got.Reported == nil || !got.Reported.Realized.Equal(decimal.NewFromInt(100)) || !got.Reported.Unrealized.IsZero() {
				t.Errorf("LoadRun() reported = %+v", got.Reported)
			}
			if !got.MarkPrices["AAPL"].Equal(decimal.NewFromInt(111)) {
				t.Errorf("LoadRun() mark = %s", got.MarkPrices["AAPL"])
			}
		})
	}
}
