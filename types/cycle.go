package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cycle is one round trip of a netted position: from opening (or a flip) until the
// position returns to flat or flips sign again.
type Cycle struct {
	InstrumentID string          `json:"instrumentId"`
	RealizedPnL  decimal.Decimal `json:"realizedPnl"`
	// ClosedQuantity is the absolute position size at the fill that closed the cycle.
	ClosedQuantity decimal.Decimal `json:"closedQuantity"`
	// PartialQuantity is the size already reduced earlier in the cycle.
	PartialQuantity decimal.Decimal `json:"partialQuantity"`
	DirectionBefore PositionSide    `json:"directionBefore"`
	EntryPrice      decimal.Decimal `json:"entryPrice"`
	ExitPrice       decimal.Decimal `json:"exitPrice"`
	OpenedAt        time.Time       `json:"openedAt"`
	ClosedAt        time.Time       `json:"closedAt"`
	// Synthetic cycles are produced by the end-of-run close, not by a fill.
	Synthetic bool `json:"synthetic,omitempty"`
}

func (c Cycle) IsWin() bool  { return c.RealizedPnL.IsPositive() }
func (c Cycle) IsLoss() bool { return c.RealizedPnL.IsNegative() }
