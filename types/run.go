package types

import "github.com/shopspring/decimal"

// RunInput is everything the accounting engine needs for one run. All amounts are in
// SettlementCurrency.
type RunInput struct {
	RunID              string
	SettlementCurrency string
	Fills              []Fill
	OrderEvents        []OrderEvent
	StartingBalance    decimal.Decimal
	FinalBalance       decimal.Decimal
	// MarkPrices values positions still open at the end of the run, keyed by
	// instrument. Instruments without a mark fall back to their last fill price.
	MarkPrices map[string]decimal.Decimal
	// ClosePositions folds unrealized PnL into realized PnL at the end of the run.
	ClosePositions bool
	// Reported holds figures pre-aggregated by the execution engine, used when
	// the fill ledger cannot produce them.
	Reported *ReportedPnL
	// EquityCurve is an optional caller supplied equity series for drawdown.
	EquityCurve []EquityPoint
}

type ReportedPnL struct {
	Realized   decimal.Decimal `json:"realized"`
	Unrealized decimal.Decimal `json:"unrealized"`
}
