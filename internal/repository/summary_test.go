package repository

import (
	"context"
	"errors"
	"perfledger/types"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type mockSummariesRepository struct {
	sqlError error
	stored   map[string]UpsertRunSummaryParams
}

func (m *mockSummariesRepository) UpsertRunSummary(_ context.Context, arg UpsertRunSummaryParams) error {
	if m.sqlError != nil {
		return m.sqlError
	}
	m.stored[arg.RunID] = arg
	return nil
}

func (m *mockSummariesRepository) GetRunSummary(_ context.Context, runID string) ([]byte, error) {
	arg, ok := m.stored[runID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return arg.Summary, nil
}

func TestDatabase_SaveSummary(t *testing.T) {
	summary := types.RunSummary{
		RunID:              "run-1",
		SettlementCurrency: "USD",
		PnL: types.PnLSummary{
			Realized: decimal.RequireFromString("150"),
			Net:      decimal.RequireFromString("149.5"),
		},
		TradeStats: types.TradeStats{ProfitFactor: types.InfiniteRatio()},
	}

	tests := []struct {
		name    string
		sqlErr  error
		wantErr bool
	}{
		{"should store and read back summary", nil, false},
		{"should wrap upsert errors", errors.New("conn closed"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSummariesRepository{sqlError: tt.sqlErr, stored: map[string]UpsertRunSummaryParams{}}
			db := &Database{summaries: repo}

			err := db.SaveSummary(context.Background(), summary)
			if tt.wantErr {
				if err == nil || !errors.Is(err, tt.sqlErr) {
					t.Errorf("SaveSummary() error = %v, want wrapped %v", err, tt.sqlErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveSummary() unexpected error = %v", err)
			}
			if !repo.stored["run-1"].NetPnL.Equal(summary.PnL.Net) {
				t.Errorf("SaveSummary() net = %s, want %s", repo.stored["run-1"].NetPnL, summary.PnL.Net)
			}

			got, err := db.GetSummary(context.Background(), "run-1")
			if err != nil {
				t.Fatalf("GetSummary() unexpected error = %v", err)
			}
			if !got.PnL.Realized.Equal(summary.PnL.Realized) || !got.TradeStats.ProfitFactor.Infinite {
				t.Errorf("GetSummary() = %+v", got.PnL)
			}
		})
	}

	t.Run("should throw ErrSummaryNotFound", func(t *testing.T) {
		db := &Database{summaries: &mockSummariesRepository{stored: map[string]UpsertRunSummaryParams{}}}
		if _, err := db.GetSummary(context.Background(), "missing"); !errors.Is(err, ErrSummaryNotFound) {
			t.Errorf("GetSummary() error = %v, want ErrSummaryNotFound", err)
		}
	})
}

func TestNewDatabase_EmptyURL(t *testing.T) {
	if _, err := NewDatabase(context.Background(), ""); !errors.Is(err, ErrNoDatabaseURL) {
		t.Errorf("NewDatabase() error = %v, want ErrNoDatabaseURL", err)
	}
}
