package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is a single execution against an order. Fills are immutable once recorded.
type Fill struct {
	OrderID            string          `json:"orderId"`
	InstrumentID       string          `json:"instrumentId"`
	Side               Side            `json:"side"`
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	Time               time.Time       `json:"time"`
	Commission         decimal.Decimal `json:"commission"`
	CommissionCurrency string          `json:"commissionCurrency,omitempty"`
	// Inferred is set when the fill was derived from an order status update
	// rather than reported directly.
	Inferred bool `json:"inferred,omitempty"`
}

func NewFill(orderID, instrumentID string, side Side, price, qty decimal.Decimal, ts time.Time) Fill {
	return Fill{
		OrderID:      orderID,
		InstrumentID: instrumentID,
		Side:         side,
		Price:        price,
		Quantity:     qty,
		Time:         ts,
	}
}

// WithCommission returns a copy of the fill carrying the given commission.
func (f Fill) WithCommission(amount decimal.Decimal, currency string) Fill {
	f.Commission = amount
	f.CommissionCurrency = currency
	return f
}

// SignedQuantity is positive for buys and negative for sells.
func (f Fill) SignedQuantity() decimal.Decimal {
	return f.Quantity.Mul(f.Side.Sign())
}

// OrderEvent is one order lifecycle update from the execution engine.
// FilledQty is cumulative for the order.
type OrderEvent struct {
	OrderID      string          `json:"orderId"`
	InstrumentID string          `json:"instrumentId"`
	Side         Side            `json:"side"`
	Status       OrderStatus     `json:"status"`
	Price        decimal.Decimal `json:"price"`
	AvgPrice     decimal.Decimal `json:"avgPrice"`
	Quantity     decimal.Decimal `json:"quantity"`
	FilledQty    decimal.Decimal `json:"filledQty"`
	Reason       string          `json:"reason,omitempty"`
	Time         time.Time       `json:"time"`
}

// Rejection is a rejected or denied order kept for reporting. It never affects PnL.
type Rejection struct {
	OrderID      string      `json:"orderId"`
	InstrumentID string      `json:"instrumentId"`
	Status       OrderStatus `json:"status"`
	Reason       string      `json:"reason"`
	Time         time.Time   `json:"time"`
}

type TimelineKind string

const (
	TimelineFill      TimelineKind = "fill"
	TimelineOrder     TimelineKind = "order"
	TimelineRejection TimelineKind = "rejection"
)

// TimelineEntry is one row of the merged order/fill/rejection display timeline.
type TimelineEntry struct {
	Time         time.Time    `json:"time"`
	Kind         TimelineKind `json:"kind"`
	OrderID      string       `json:"orderId"`
	InstrumentID string       `json:"instrumentId"`
	Detail       string       `json:"detail"`
}
