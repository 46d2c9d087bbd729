package engine

import (
	"fmt"
	"perfledger/types"
	"sort"

	"github.com/shopspring/decimal"
)

// Normalized is the single chronological view of a run's order activity.
type Normalized struct {
	Fills      []types.Fill
	Rejections []types.Rejection
	Timeline   []types.TimelineEntry
	Orders     types.OrderStats
	// Dropped counts fills discarded for an unknown side or a non-positive
	// price or quantity.
	Dropped int
}

// Normalize merges explicit fills with fills inferred from order status updates and
// sorts them by time. Orders that have at least one explicit fill never get inferred
// fills. Timestamp ties keep arrival order. Rejected and denied orders are reported
// but never produce fills.
func Normalize(fills []types.Fill, events []types.OrderEvent) Normalized {
	var n Normalized

	explicit := make(map[string]bool)
	merged := make([]types.Fill, 0, len(fills))
	for _, f := range fills {
		if !validFill(f) {
			n.Dropped++
			continue
		}
		if f.OrderID != "" {
			explicit[f.OrderID] = true
		}
		merged = append(merged, f)
	}

	counter := newOrderCounter()
	for _, f := range merged {
		counter.seen(f.OrderID)
	}

	filledSoFar := make(map[string]decimal.Decimal)
	timeline := make([]types.TimelineEntry, 0, len(events)+len(merged))
	for _, ev := range events {
		counter.add(ev.OrderID, ev.Status)

		if ev.Status.IsRejection() {
			n.Rejections = append(n.Rejections, types.Rejection{
				OrderID:      ev.OrderID,
				InstrumentID: ev.InstrumentID,
				Status:       ev.Status,
				Reason:       ev.Reason,
				Time:         ev.Time,
			})
			timeline = append(timeline, types.TimelineEntry{
				Time:         ev.Time,
				Kind:         types.TimelineRejection,
				OrderID:      ev.OrderID,
				InstrumentID: ev.InstrumentID,
				Detail:       fmt.Sprintf("%s: %s", ev.Status, ev.Reason),
			})
			continue
		}

		if ev.Status.IsFill() && !explicit[ev.OrderID] {
			if f, ok := inferFill(ev, filledSoFar); ok {
				merged = append(merged, f)
			}
		}
		timeline = append(timeline, types.TimelineEntry{
			Time:         ev.Time,
			Kind:         types.TimelineOrder,
			OrderID:      ev.OrderID,
			InstrumentID: ev.InstrumentID,
			Detail:       orderDetail(ev),
		})
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })

	for _, f := range merged {
		timeline = append(timeline, types.TimelineEntry{
			Time:         f.Time,
			Kind:         types.TimelineFill,
			OrderID:      f.OrderID,
			InstrumentID: f.InstrumentID,
			Detail:       fmt.Sprintf("%s %s @ %s", f.Side, f.Quantity, f.Price),
		})
	}
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Time.Before(timeline[j].Time) })

	n.Fills = merged
	n.Timeline = timeline
	n.Orders = counter.stats()
	return n
}

// inferFill derives a fill from a FILLED or PARTIALLY_FILLED update. The fill quantity is
// the growth of the cumulative filled quantity since the last update of the same order.
func inferFill(ev types.OrderEvent, filledSoFar map[string]decimal.Decimal) (types.Fill, bool) {
	cumulative := ev.FilledQty
	if cumulative.IsZero() && ev.Status == types.OrderFilled {
		cumulative = ev.Quantity
	}
	prev := filledSoFar[ev.OrderID]
	qty := cumulative.Sub(prev)
	if !qty.IsPositive() {
		return types.Fill{}, false
	}

	price := ev.AvgPrice
	if price.IsZero() {
		price = ev.Price
	}
	if !price.IsPositive() {
		return types.Fill{}, false
	}
	if ev.Side != types.SideTypeBuy && ev.Side != types.SideTypeSell {
		return types.Fill{}, false
	}

	filledSoFar[ev.OrderID] = cumulative
	f := types.NewFill(ev.OrderID, ev.InstrumentID, ev.Side, price, qty, ev.Time)
	f.Inferred = true
	return f, true
}

func validFill(f types.Fill) bool {
	if f.Side != types.SideTypeBuy && f.Side != types.SideTypeSell {
		return false
	}
	return f.Price.IsPositive() && f.Quantity.IsPositive()
}

func orderDetail(ev types.OrderEvent) string {
	if ev.Status.IsFill() {
		return fmt.Sprintf("%s %s %s/%s", ev.Status, ev.Side, ev.FilledQty, ev.Quantity)
	}
	return fmt.Sprintf("%s %s %s", ev.Status, ev.Side, ev.Quantity)
}

// orderCounter counts distinct orders per status.
type orderCounter struct {
	all      map[string]struct{}
	byStatus map[types.OrderStatus]map[string]struct{}
}

func newOrderCounter() *orderCounter {
	return &orderCounter{
		all:      make(map[string]struct{}),
		byStatus: make(map[types.OrderStatus]map[string]struct{}),
	}
}

func (c *orderCounter) seen(orderID string) {
	if orderID == "" {
		return
	}
	c.all[orderID] = struct{}{}
}

func (c *orderCounter) add(orderID string, status types.OrderStatus) {
	c.seen(orderID)
	set := c.byStatus[status]
	if set == nil {
		set = make(map[string]struct{})
		c.byStatus[status] = set
	}
	set[orderID] = struct{}{}
}

func (c *orderCounter) stats() types.OrderStats {
	return types.OrderStats{
		Total:           len(c.all),
		Submitted:       len(c.byStatus[types.OrderSubmitted]),
		Accepted:        len(c.byStatus[types.OrderAccepted]),
		Filled:          len(c.byStatus[types.OrderFilled]),
		PartiallyFilled: len(c.byStatus[types.OrderPartiallyFilled]),
		Canceled:        len(c.byStatus[types.OrderCanceled]),
		Expired:         len(c.byStatus[types.OrderExpired]),
		Rejected:        len(c.byStatus[types.OrderRejected]),
		Denied:          len(c.byStatus[types.OrderDenied]),
	}
}
