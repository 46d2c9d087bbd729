package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"perfledger/types"
	"strconv"
	"time"
)

// WriteCyclesCSVFile writes cycles to a CSV file at the given path.
func WriteCyclesCSVFile(path string, cycles []types.Cycle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cycles file: %w", err)
	}
	defer f.Close()

	return WriteCyclesCSV(f, cycles)
}

// WriteCyclesCSV writes cycles to any io.Writer as CSV.
func WriteCyclesCSV(w io.Writer, cycles []types.Cycle) error {
	cw := csv.NewWriter(w)

	header := []string{
		"cycle_id",
		"instrument",
		"direction",
		"entry_price",
		"exit_price",
		"closed_qty",
		"partial_qty",
		"realized_pnl",
		"opened_at", // RFC3339
		"closed_at", // RFC3339
		"synthetic",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range cycles {
		if err := writeCycleRow(cw, i, c); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeCycleRow(cw *csv.Writer, id int, c types.Cycle) error {
	record := []string{
		strconv.Itoa(id),
		c.InstrumentID,
		string(c.DirectionBefore),
		c.EntryPrice.String(),
		c.ExitPrice.String(),
		c.ClosedQuantity.String(),
		c.PartialQuantity.String(),
		c.RealizedPnL.String(),
		formatTime(c.OpenedAt),
		formatTime(c.ClosedAt),
		strconv.FormatBool(c.Synthetic),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
