package engine

import (
	"perfledger/types"
	"testing"

	"github.com/shopspring/decimal"
)

func orderEvent(orderID string, side types.Side, status types.OrderStatus, avgPrice, qty, filled string, minute int) types.OrderEvent {
	return types.OrderEvent{
		OrderID:      orderID,
		InstrumentID: "AAPL",
		Side:         side,
		Status:       status,
		AvgPrice:     d(avgPrice),
		Quantity:     d(qty),
		FilledQty:    d(filled),
		Time:         at(minute),
	}
}

func TestNormalize_InfersFillsFromCumulativeQuantity(t *testing.T) {
	events := []types.OrderEvent{
		orderEvent("o1", types.SideTypeBuy, types.OrderSubmitted, "0", "10", "0", 0),
		orderEvent("o1", types.SideTypeBuy, types.OrderAccepted, "0", "10", "0", 1),
		orderEvent("o1", types.SideTypeBuy, types.OrderPartiallyFilled, "100", "10", "4", 2),
		orderEvent("o1", types.SideTypeBuy, types.OrderPartiallyFilled, "100", "10", "4", 3),
		orderEvent("o1", types.SideTypeBuy, types.OrderFilled, "101", "10", "10", 4),
	}

	n := Normalize(nil, events)

	if len(n.Fills) != 2 {
		t.Fatalf("fills: got %d, want 2 (%+v)", len(n.Fills), n.Fills)
	}
	want := []struct{ qty, price string }{{"4", "100"}, {"6", "101"}}
	for i, w := range want {
		if !n.Fills[i].Quantity.Equal(d(w.qty)) || !n.Fills[i].Price.Equal(d(w.price)) {
			t.Errorf("fill %d: got %s @ %s, want %s @ %s", i, n.Fills[i].Quantity, n.Fills[i].Price, w.qty, w.price)
		}
		if !n.Fills[i].Inferred {
			t.Errorf("fill %d should be marked inferred", i)
		}
	}

	wantOrders := types.OrderStats{Total: 1, Submitted: 1, Accepted: 1, PartiallyFilled: 1, Filled: 1}
	if n.Orders != wantOrders {
		t.Errorf("orders: got %+v, want %+v", n.Orders, wantOrders)
	}
}

func TestNormalize_FilledWithoutCumulativeUsesOrderQuantity(t *testing.T) {
	ev := orderEvent("o1", types.SideTypeSell, types.OrderFilled, "0", "3", "0", 0)
	ev.Price = d("50")

	n := Normalize(nil, []types.OrderEvent{ev})
	if len(n.Fills) != 1 {
		t.Fatalf("fills: got %d, want 1", len(n.Fills))
	}
	if !n.Fills[0].Quantity.Equal(d("3")) || !n.Fills[0].Price.Equal(d("50")) {
		t.Errorf("fill: got %s @ %s, want 3 @ 50", n.Fills[0].Quantity, n.Fills[0].Price)
	}
}

func TestNormalize_ExplicitFillsWin(t *testing.T) {
	fills := []types.Fill{newTestFill("o1", "AAPL", types.SideTypeBuy, "100", "10", 1)}
	events := []types.OrderEvent{orderEvent("o1", types.SideTypeBuy, types.OrderFilled, "100", "10", "10", 1)}

	n := Normalize(fills, events)
	if len(n.Fills) != 1 || n.Fills[0].Inferred {
		t.Fatalf("expected the single explicit fill, got %+v", n.Fills)
	}
	if n.Orders.Total != 1 || n.Orders.Filled != 1 {
		t.Errorf("orders: got %+v", n.Orders)
	}
}

func TestNormalize_OrderingAndTies(t *testing.T) {
	fills := []types.Fill{
		newTestFill("late", "AAPL", types.SideTypeBuy, "100", "1", 5),
		newTestFill("a", "AAPL", types.SideTypeBuy, "100", "1", 1),
		newTestFill("b", "AAPL", types.SideTypeSell, "100", "1", 1),
	}
	events := []types.OrderEvent{orderEvent("c", types.SideTypeBuy, types.OrderFilled, "100", "1", "1", 1)}

	n := Normalize(fills, events)

	want := []string{"a", "b", "c", "late"}
	if len(n.Fills) != len(want) {
		t.Fatalf("fills: got %d, want %d", len(n.Fills), len(want))
	}
	for i, id := range want {
		if n.Fills[i].OrderID != id {
			t.Errorf("fill %d: got order %s, want %s", i, n.Fills[i].OrderID, id)
		}
	}
	for i := 1; i < len(n.Timeline); i++ {
		if n.Timeline[i].Time.Before(n.Timeline[i-1].Time) {
			t.Fatalf("timeline out of order at %d", i)
		}
	}
}

func TestNormalize_RejectionsAndMalformedFills(t *testing.T) {
	rejected := orderEvent("r1", types.SideTypeBuy, types.OrderRejected, "0", "5", "0", 0)
	rejected.Reason = "insufficient margin"
	denied := orderEvent("r2", types.SideTypeSell, types.OrderDenied, "0", "5", "0", 1)

	fills := []types.Fill{
		newTestFill("x", "AAPL", types.SideTypeBuy, "100", "0", 0),
		newTestFill("y", "AAPL", types.Side("HOLD"), "100", "1", 0),
		types.NewFill("z", "AAPL", types.SideTypeBuy, decimal.Zero, d("1"), at(0)),
	}

	n := Normalize(fills, []types.OrderEvent{rejected, denied})

	if len(n.Fills) != 0 {
		t.Errorf("fills: got %d, want 0", len(n.Fills))
	}
	if n.Dropped != 3 {
		t.Errorf("dropped: got %d, want 3", n.Dropped)
	}
	if len(n.Rejections) != 2 || n.Rejections[0].Reason != "insufficient margin" {
		t.Errorf("rejections: got %+v", n.Rejections)
	}
	if n.Orders.Rejected != 1 || n.Orders.Denied != 1 {
		t.Errorf("orders: got %+v", n.Orders)
	}
	kinds := map[types.TimelineKind]int{}
	for _, e := range n.Timeline {
		kinds[e.Kind]++
	}
	if kinds[types.TimelineRejection] != 2 || kinds[types.TimelineFill] != 0 {
		t.Errorf("timeline kinds: got %v", kinds)
	}
}
