package repository

import (
	"context"
	"errors"
	"fmt"
	"perfledger/types"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
)

// SaveSummary stores the summary as a jsonb document, replacing any earlier analysis of
// the same run.
func (db *Database) SaveSummary(ctx context.Context, summary types.RunSummary) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Database.SaveSummary: %w", err)
		}
	}()

	var data []byte
	data, err = sonic.Marshal(summary)
	if err != nil {
		return err
	}
	return db.summaries.UpsertRunSummary(ctx, UpsertRunSummaryParams{
		RunID:   summary.RunID,
		NetPnL:  summary.PnL.Net,
		Summary: data,
	})
}

func (db *Database) GetSummary(ctx context.Context, runID string) (summary types.RunSummary, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Database.GetSummary: %w", err)
		}
	}()

	data, err := db.summaries.GetRunSummary(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.RunSummary{}, fmt.Errorf("run %s %w", runID, ErrSummaryNotFound)
		}
		return types.RunSummary{}, err
	}
	err = sonic.Unmarshal(data, &summary)
	return summary, err
}
