package engine

import (
	"perfledger/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// detectCycles walks fills in order through a fresh ledger.
func detectCycles(fills []types.Fill, log *zap.Logger) *ledger {
	l := newLedger()
	for _, f := range fills {
		if c, ok := l.apply(f); ok {
			log.Debug("cycle closed",
				zap.String("instrument", c.InstrumentID),
				zap.String("direction", string(c.DirectionBefore)),
				zap.Stringer("realized", c.RealizedPnL),
				zap.Time("closed_at", c.ClosedAt),
			)
		}
	}
	return l
}

// pseudoTrades treats every fill that meets an existing position as a trade, priced with
// the close arithmetic against the running average entry. Same-direction adds therefore
// produce PnL that was never realized. Only used for statistics when a run never closed
// or flipped a position, and always reported as an approximation.
func pseudoTrades(fills []types.Fill) []types.Cycle {
	l := newLedger()
	var trades []types.Cycle
	for _, f := range fills {
		pos := l.position(f.InstrumentID)
		if pos.Side.IsOpen() {
			qty := decimal.Min(f.Quantity, pos.NetQuantity.Abs())
			trades = append(trades, types.Cycle{
				InstrumentID:    f.InstrumentID,
				RealizedPnL:     closingPnL(pos.Side, pos.AvgEntryPrice, f.Price, qty),
				ClosedQuantity:  qty,
				PartialQuantity: decimal.Zero,
				DirectionBefore: pos.Side,
				EntryPrice:      pos.AvgEntryPrice,
				ExitPrice:       f.Price,
				OpenedAt:        pos.OpenedAt,
				ClosedAt:        f.Time,
			})
		}
		l.apply(f)
	}
	return trades
}
