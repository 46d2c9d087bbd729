package engine

import (
	"perfledger/types"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	sourceSuppliedCurve      = "supplied"
	sourceReconstructedCurve = "reconstructed"
	sourceBalanceOnly        = "balance_only"
)

// equityCurve picks the equity series used for drawdown and returns: the caller's curve
// when given, else one rebuilt from the fills.
func equityCurve(r *run) ([]types.EquityPoint, string) {
	if len(r.in.EquityCurve) > 0 {
		curve := append([]types.EquityPoint(nil), r.in.EquityCurve...)
		sort.SliceStable(curve, func(i, j int) bool { return curve[i].Time.Before(curve[j].Time) })
		return curve, sourceSuppliedCurve
	}
	if len(r.norm.Fills) > 0 {
		return reconstructEquity(r.norm.Fills, r.in), sourceReconstructedCurve
	}
	return nil, sourceBalanceOnly
}

// reconstructEquity samples equity after every fill: starting balance plus realized PnL,
// plus open positions marked at their last fill price, less commissions paid so far. The
// curve starts at the starting balance and ends at the final balance, which already
// carries any unrealized PnL. Each fill only re-marks its own instrument.
func reconstructEquity(fills []types.Fill, in types.RunInput) []types.EquityPoint {
	l := newLedger()
	paid := decimal.Zero
	openPnL := make(map[string]decimal.Decimal)
	unrealized := decimal.Zero
	curve := make([]types.EquityPoint, 0, len(fills)+2)
	curve = append(curve, types.EquityPoint{Time: fills[0].Time, Equity: in.StartingBalance})

	for _, f := range fills {
		l.apply(f)
		if !f.Commission.IsZero() && (f.CommissionCurrency == "" || strings.EqualFold(f.CommissionCurrency, in.SettlementCurrency)) {
			paid = paid.Add(f.Commission.Abs())
		}
		pos := l.positions[f.InstrumentID]
		marked := unrealizedPnL(pos, pos.LastMarkPrice)
		unrealized = unrealized.Sub(openPnL[f.InstrumentID]).Add(marked)
		openPnL[f.InstrumentID] = marked

		equity := in.StartingBalance.Add(l.realized()).Add(unrealized).Sub(paid)
		curve = append(curve, types.EquityPoint{Time: f.Time, Equity: equity})
	}

	last := fills[len(fills)-1].Time
	curve = append(curve, types.EquityPoint{Time: last, Equity: in.FinalBalance})
	return curve
}
