package engine

import (
	"perfledger/types"
	"time"

	"github.com/shopspring/decimal"
)

// calcDrawdown walks a chronological equity curve keeping a running peak. The percentage
// is taken against the starting balance.
func calcDrawdown(curve []types.EquityPoint, startingBalance decimal.Decimal) types.DrawdownStats {
	if len(curve) == 0 {
		return types.DrawdownStats{MaxDrawdown: decimal.Zero, MaxDrawdownPct: decimal.Zero, PeakEquity: decimal.Zero}
	}

	peak := curve[0].Equity
	peakTime := curve[0].Time
	maxDD := decimal.Zero
	var maxDDDuration time.Duration

	for _, p := range curve {
		if p.Equity.GreaterThan(peak) {
			peak = p.Equity
			peakTime = p.Time
		}
		dd := peak.Sub(p.Equity)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
			maxDDDuration = p.Time.Sub(peakTime)
		}
	}

	return types.DrawdownStats{
		MaxDrawdown:         maxDD,
		MaxDrawdownPct:      pctOf(maxDD, startingBalance),
		PeakEquity:          peak,
		MaxDrawdownDuration: maxDDDuration,
	}
}

// balanceOnlyDrawdown is the single-point fallback when no curve exists.
func balanceOnlyDrawdown(startingBalance, finalBalance decimal.Decimal) types.DrawdownStats {
	dd := startingBalance.Sub(finalBalance)
	if dd.IsNegative() {
		dd = decimal.Zero
	}
	return types.DrawdownStats{
		MaxDrawdown:    dd,
		MaxDrawdownPct: pctOf(dd, startingBalance),
		PeakEquity:     decimal.Max(startingBalance, finalBalance),
	}
}
