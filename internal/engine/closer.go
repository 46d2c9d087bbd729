package engine

import (
	"perfledger/types"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// closePositions simulates flattening every open position at its mark when the run ends.
// Unrealized PnL moves into realized PnL; the pre-close figure stays in
// UnrealizedBeforeClose. Each open position also yields a synthetic cycle so that trade
// statistics see the same realized figure.
func (r *run) closePositions() error {
	if !r.in.ClosePositions {
		return nil
	}
	before := r.summary.PnL.Unrealized

	if r.ledger != nil && r.summary.Meta.Sources.PnL == sourceLedger {
		closedAt := r.lastFillTime()
		for _, pos := range r.ledger.openPositions() {
			mark := markPrice(pos, r.in.MarkPrices[pos.InstrumentID])
			c := types.Cycle{
				InstrumentID:    pos.InstrumentID,
				RealizedPnL:     pos.RealizedPnL.Add(unrealizedPnL(pos, mark)),
				ClosedQuantity:  pos.NetQuantity.Abs(),
				PartialQuantity: r.ledger.partialQty[pos.InstrumentID],
				DirectionBefore: pos.Side,
				EntryPrice:      pos.AvgEntryPrice,
				ExitPrice:       mark,
				OpenedAt:        pos.OpenedAt,
				ClosedAt:        closedAt,
				Synthetic:       true,
			}
			r.cycles = append(r.cycles, c)
			r.log.Debug("position closed at end of run",
				zap.String("instrument", c.InstrumentID),
				zap.Stringer("mark", mark),
				zap.Stringer("realized", c.RealizedPnL),
			)
		}
	}

	r.summary.PnL.UnrealizedBeforeClose = before
	r.summary.PnL.Realized = r.summary.PnL.Realized.Add(before)
	r.summary.PnL.Unrealized = decimal.Zero
	r.summary.Meta.PositionsClosed = true
	return nil
}

func (r *run) lastFillTime() time.Time {
	if len(r.norm.Fills) == 0 {
		return time.Time{}
	}
	return r.norm.Fills[len(r.norm.Fills)-1].Time
}
