package engine

import (
	"math"
	"perfledger/types"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func calcReturns(startingBalance, finalBalance, netPnL decimal.Decimal, curve []types.EquityPoint, annualRiskFree decimal.Decimal) types.ReturnStats {
	stats := types.ReturnStats{
		TotalReturn:    finalBalance.Sub(startingBalance),
		TotalReturnPct: decimal.Zero,
		NetPnLPct:      pctOf(netPnL, startingBalance),
		CAGR:           decimal.Zero,
		SharpeRatio:    decimal.Zero,
	}
	stats.TotalReturnPct = pctOf(stats.TotalReturn, startingBalance)

	if len(curve) == 0 {
		return stats
	}
	stats.PeriodStart = curve[0].Time
	stats.PeriodEnd = curve[len(curve)-1].Time
	stats.CAGR = calcCAGR(startingBalance, finalBalance, stats.PeriodEnd.Sub(stats.PeriodStart))
	stats.SharpeRatio = calcSharpeRatio(curve, annualRiskFree)
	return stats
}

func calcCAGR(startVal, endVal decimal.Decimal, duration time.Duration) decimal.Decimal {
	// If starting value is <= 0, CAGR is not well-defined
	if !startVal.IsPositive() || duration <= 0 {
		return decimal.Zero
	}
	// time difference in years (using 365.25 days to account for leap years)
	years := duration.Hours() / (24.0 * 365.25)
	if years <= 0 {
		return decimal.Zero
	}
	ratio := endVal.Div(startVal)
	if !ratio.IsPositive() {
		return decimal.Zero
	}
	return fromFloat(math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0)
}

// calcSharpeRatio annualises the Sharpe ratio of month-end equity returns.
func calcSharpeRatio(curve []types.EquityPoint, annualRiskFree decimal.Decimal) decimal.Decimal {
	monthlyReturns := getMonthlyReturns(curve)
	if len(monthlyReturns) < 2 {
		// Need at least 2 months to compute stddev
		return decimal.Zero
	}

	// rf_monthly = (1 + rf_annual)^(1/12) - 1
	rfMonthly := math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/12.0) - 1.0

	excess := make([]float64, 0, len(monthlyReturns))
	for _, r := range monthlyReturns {
		excess = append(excess, r.InexactFloat64()-rfMonthly)
	}

	var sum float64
	for _, x := range excess {
		sum += x
	}
	mean := sum / float64(len(excess))

	var varianceSum float64
	for _, x := range excess {
		diff := x - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(excess)-1))
	if std == 0 {
		return decimal.Zero
	}
	return fromFloat(mean / std * math.Sqrt(12.0))
}

// getMonthlyReturns returns the change between consecutive month-end equity values.
func getMonthlyReturns(curve []types.EquityPoint) []decimal.Decimal {
	if len(curve) == 0 {
		return nil
	}
	points := append([]types.EquityPoint(nil), curve...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	type monthKey struct {
		year  int
		month time.Month
	}

	var keys []monthKey
	monthEnd := make(map[monthKey]decimal.Decimal)
	for _, p := range points {
		y, m, _ := p.Time.UTC().Date()
		key := monthKey{year: y, month: m}
		if _, ok := monthEnd[key]; !ok {
			keys = append(keys, key)
		}
		monthEnd[key] = p.Equity
	}
	if len(keys) < 2 {
		return nil
	}

	returns := make([]decimal.Decimal, 0, len(keys)-1)
	prev := monthEnd[keys[0]]
	for _, k := range keys[1:] {
		curr := monthEnd[k]
		if !prev.IsPositive() {
			prev = curr
			continue
		}
		returns = append(returns, curr.Div(prev).Sub(decimal.NewFromInt(1)))
		prev = curr
	}
	return returns
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
