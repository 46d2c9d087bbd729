package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

type OrderStatus string

// PositionSide is the direction of a netted position, derived from the sign of its quantity.
type PositionSide string

const (
	OrderSubmitted       OrderStatus = "SUBMITTED"
	OrderAccepted        OrderStatus = "ACCEPTED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderDenied          OrderStatus = "DENIED"
	OrderExpired         OrderStatus = "EXPIRED"
	OrderCanceled        OrderStatus = "CANCELED"

	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	PositionFlat  PositionSide = "FLAT"
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// ParseSide accepts the usual spellings of an order side.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B", "LONG":
		return SideTypeBuy, true
	case "SELL", "S", "SHORT":
		return SideTypeSell, true
	}
	return "", false
}

// ParseOrderStatus maps status strings, including the ORDER_ prefixed forms, onto OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ORDER_")
	switch OrderStatus(s) {
	case OrderSubmitted, OrderAccepted, OrderPartiallyFilled, OrderFilled,
		OrderRejected, OrderDenied, OrderExpired, OrderCanceled:
		return OrderStatus(s), true
	case "CANCELLED":
		return OrderCanceled, true
	}
	return "", false
}

// Sign returns +1 for buys and -1 for sells.
func (s Side) Sign() decimal.Decimal {
	if s == SideTypeSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (s OrderStatus) IsFill() bool {
	return s == OrderFilled || s == OrderPartiallyFilled
}

func (s OrderStatus) IsRejection() bool {
	return s == OrderRejected || s == OrderDenied
}

// SideOf classifies a signed net quantity.
func SideOf(qty decimal.Decimal) PositionSide {
	switch qty.Sign() {
	case 1:
		return PositionLong
	case -1:
		return PositionShort
	}
	return PositionFlat
}

func (p PositionSide) IsOpen() bool {
	return p == PositionLong || p == PositionShort
}
