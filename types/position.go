package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is the netted position of one instrument during a run.
type PositionState struct {
	InstrumentID  string
	Side          PositionSide
	NetQuantity   decimal.Decimal
	AvgEntryPrice decimal.Decimal
	// RealizedPnL holds PnL realized by partial reductions of the current
	// cycle that has not yet been credited to a Cycle.
	RealizedPnL   decimal.Decimal
	LastMarkPrice decimal.Decimal
	OpenedAt      time.Time
}

// PositionSnapshot is the end-of-run view of one instrument's position.
type PositionSnapshot struct {
	InstrumentID  string          `json:"instrumentId"`
	Side          PositionSide    `json:"side"`
	NetQuantity   decimal.Decimal `json:"netQuantity"`
	AvgEntryPrice decimal.Decimal `json:"avgEntryPrice"`
	MarkPrice     decimal.Decimal `json:"markPrice"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
	RealizedPnL   decimal.Decimal `json:"realizedPnl"`
	Fills         int             `json:"fills"`
}

// EquityPoint is one sample of account equity.
type EquityPoint struct {
	Time   time.Time       `json:"time"`
	Equity decimal.Decimal `json:"equity"`
}
