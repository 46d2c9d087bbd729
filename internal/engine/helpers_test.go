package engine

import (
	"perfledger/types"
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func newTestFill(orderID, instrument string, side types.Side, price, qty string, minute int) types.Fill {
	return types.NewFill(orderID, instrument, side, d(price), d(qty), at(minute))
}

func buy(instrument, price, qty string, minute int) types.Fill {
	return newTestFill("", instrument, types.SideTypeBuy, price, qty, minute)
}

func sell(instrument, price, qty string, minute int) types.Fill {
	return newTestFill("", instrument, types.SideTypeSell, price, qty, minute)
}

func withFee(f types.Fill, fee string) types.Fill {
	return f.WithCommission(d(fee), "")
}

func testEngine() *Engine {
	return NewEngine(nil, nil, nil, nil)
}

func anomalyCount(s types.RunSummary, kind types.AnomalyKind) int {
	n := 0
	for _, a := range s.Meta.Anomalies {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
