package engine

import (
	"perfledger/types"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ledger folds fills into one netted position per instrument and records a Cycle every
// time a position returns to flat or flips sign.
type ledger struct {
	positions  map[string]*types.PositionState
	fillCounts map[string]int
	partialQty map[string]decimal.Decimal
	cycles     []types.Cycle
	// realizedTotal is the sum of closed cycles plus partials accrued on open positions.
	realizedTotal decimal.Decimal
}

func newLedger() *ledger {
	return &ledger{
		positions:     make(map[string]*types.PositionState),
		fillCounts:    make(map[string]int),
		partialQty:    make(map[string]decimal.Decimal),
		realizedTotal: decimal.Zero,
	}
}

func (l *ledger) position(instrumentID string) *types.PositionState {
	pos := l.positions[instrumentID]
	if pos == nil {
		pos = &types.PositionState{InstrumentID: instrumentID, Side: types.PositionFlat}
		l.positions[instrumentID] = pos
	}
	return pos
}

// apply folds one fill into its instrument's position. It returns the cycle closed by the
// fill, if any.
func (l *ledger) apply(fill types.Fill) (types.Cycle, bool) {
	pos := l.position(fill.InstrumentID)
	l.fillCounts[fill.InstrumentID]++

	qty := fill.Quantity.Abs()
	prevQty := pos.NetQuantity
	newQty := prevQty.Add(fill.SignedQuantity())
	prevSide := pos.Side
	curSide := types.SideOf(newQty)

	var closed types.Cycle
	var didClose bool

	switch {
	case prevSide.IsOpen() && curSide != prevSide:
		// Full close or flip.
		closedQty := prevQty.Abs()
		closing := closingPnL(prevSide, pos.AvgEntryPrice, fill.Price, closedQty)
		pnl := pos.RealizedPnL.Add(closing)
		l.realizedTotal = l.realizedTotal.Add(closing)
		closed = types.Cycle{
			InstrumentID:    fill.InstrumentID,
			RealizedPnL:     pnl,
			ClosedQuantity:  closedQty,
			PartialQuantity: l.partialQty[fill.InstrumentID],
			DirectionBefore: prevSide,
			EntryPrice:      pos.AvgEntryPrice,
			ExitPrice:       fill.Price,
			OpenedAt:        pos.OpenedAt,
			ClosedAt:        fill.Time,
		}
		didClose = true
		l.cycles = append(l.cycles, closed)

		pos.RealizedPnL = decimal.Zero
		delete(l.partialQty, fill.InstrumentID)
		if curSide.IsOpen() {
			pos.AvgEntryPrice = fill.Price
			pos.OpenedAt = fill.Time
		} else {
			pos.AvgEntryPrice = decimal.Zero
			pos.OpenedAt = time.Time{}
		}

	case prevSide.IsOpen() && curSide == prevSide:
		absOld := prevQty.Abs()
		absNew := newQty.Abs()
		if absNew.GreaterThan(absOld) {
			pos.AvgEntryPrice = weightedAvg(pos.AvgEntryPrice, absOld, fill.Price, qty)
		} else {
			// Scale-out: the average entry is unchanged and the reduced part is
			// credited to the cycle that eventually closes the position.
			partial := closingPnL(prevSide, pos.AvgEntryPrice, fill.Price, qty)
			pos.RealizedPnL = pos.RealizedPnL.Add(partial)
			l.realizedTotal = l.realizedTotal.Add(partial)
			l.partialQty[fill.InstrumentID] = l.partialQty[fill.InstrumentID].Add(qty)
		}

	case curSide.IsOpen():
		// Opening from flat.
		pos.AvgEntryPrice = fill.Price
		pos.OpenedAt = fill.Time
	}

	pos.NetQuantity = newQty
	pos.Side = curSide
	pos.LastMarkPrice = fill.Price
	return closed, didClose
}

// realized is the PnL of all closed cycles plus scale-outs of still open positions.
func (l *ledger) realized() decimal.Decimal {
	return l.realizedTotal
}

// unrealized marks every open position at marks, falling back to its last fill price.
func (l *ledger) unrealized(marks map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for id, pos := range l.positions {
		total = total.Add(unrealizedPnL(pos, markPrice(pos, marks[id])))
	}
	return total
}

// instruments returns the instrument ids in sorted order.
func (l *ledger) instruments() []string {
	ids := make([]string, 0, len(l.positions))
	for id := range l.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l *ledger) openPositions() []*types.PositionState {
	var open []*types.PositionState
	for _, id := range l.instruments() {
		if pos := l.positions[id]; pos.Side.IsOpen() {
			open = append(open, pos)
		}
	}
	return open
}

func markPrice(pos *types.PositionState, mark decimal.Decimal) decimal.Decimal {
	if mark.IsPositive() {
		return mark
	}
	return pos.LastMarkPrice
}

func unrealizedPnL(pos *types.PositionState, mark decimal.Decimal) decimal.Decimal {
	if !pos.Side.IsOpen() {
		return decimal.Zero
	}
	return mark.Sub(pos.AvgEntryPrice).Mul(pos.NetQuantity)
}

// closingPnL is the PnL of closing qty of a position on side at price.
func closingPnL(side types.PositionSide, avgEntry, price, qty decimal.Decimal) decimal.Decimal {
	switch side {
	case types.PositionLong:
		return price.Sub(avgEntry).Mul(qty)
	case types.PositionShort:
		return avgEntry.Sub(price).Mul(qty)
	}
	return decimal.Zero
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	total := existingQty.Add(newQty)
	if existingQty.IsZero() || total.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(total)
}
