package engine

import (
	"perfledger/types"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	sourceCycles            = "cycles"
	sourceFillApproximation = "fill_approximation"
)

var hundred = decimal.NewFromInt(100)

func calcTradeStats(trades []types.Cycle, startingBalance decimal.Decimal) types.TradeStats {
	stats := types.TradeStats{
		TotalTrades:  len(trades),
		WinRate:      decimal.Zero,
		GrossProfit:  decimal.Zero,
		GrossLoss:    decimal.Zero,
		AvgWin:       decimal.Zero,
		AvgLoss:      decimal.Zero,
		LargestWin:   decimal.Zero,
		LargestLoss:  decimal.Zero,
		ProfitFactor: types.FiniteRatio(decimal.Zero),
		Expectancy:   decimal.Zero,
	}
	if len(trades) == 0 {
		stats.AvgWinPct = decimal.Zero
		stats.AvgLossPct = decimal.Zero
		stats.LargestWinPct = decimal.Zero
		stats.LargestLossPct = decimal.Zero
		stats.ExpectancyPct = decimal.Zero
		return stats
	}

	for _, tr := range trades {
		pnl := tr.RealizedPnL
		switch {
		case tr.IsWin():
			stats.Wins++
			stats.GrossProfit = stats.GrossProfit.Add(pnl)
			if pnl.GreaterThan(stats.LargestWin) {
				stats.LargestWin = pnl
			}
		case tr.IsLoss():
			stats.Losses++
			stats.GrossLoss = stats.GrossLoss.Add(pnl)
			if pnl.LessThan(stats.LargestLoss) {
				stats.LargestLoss = pnl
			}
		default:
			stats.Breakeven++
		}
	}

	total := decimal.NewFromInt(int64(stats.TotalTrades))
	stats.WinRate = decimal.NewFromInt(int64(stats.Wins)).Div(total).Mul(hundred)
	if stats.Wins > 0 {
		stats.AvgWin = stats.GrossProfit.Div(decimal.NewFromInt(int64(stats.Wins)))
	}
	if stats.Losses > 0 {
		stats.AvgLoss = stats.GrossLoss.Div(decimal.NewFromInt(int64(stats.Losses)))
	}
	stats.ProfitFactor = profitFactor(stats.GrossProfit, stats.GrossLoss)
	stats.Expectancy = stats.GrossProfit.Add(stats.GrossLoss).Div(total)

	stats.AvgWinPct = pctOf(stats.AvgWin, startingBalance)
	stats.AvgLossPct = pctOf(stats.AvgLoss, startingBalance)
	stats.LargestWinPct = pctOf(stats.LargestWin, startingBalance)
	stats.LargestLossPct = pctOf(stats.LargestLoss, startingBalance)
	stats.ExpectancyPct = pctOf(stats.Expectancy, startingBalance)

	stats.MaxConsecutiveLosses = maxConsecutiveLosses(trades)
	return stats
}

// profitFactor is gross profit over absolute gross loss: +Inf with wins and no losses,
// 0 with neither.
func profitFactor(grossProfit, grossLoss decimal.Decimal) types.Ratio {
	if grossLoss.IsZero() {
		if grossProfit.IsPositive() {
			return types.InfiniteRatio()
		}
		return types.FiniteRatio(decimal.Zero)
	}
	return types.FiniteRatio(grossProfit.Div(grossLoss.Abs()))
}

func maxConsecutiveLosses(trades []types.Cycle) int {
	ordered := append([]types.Cycle(nil), trades...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ClosedAt.Before(ordered[j].ClosedAt)
	})

	maxLossStreak := 0
	currentStreak := 0
	for _, tr := range ordered {
		if tr.IsLoss() {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxLossStreak
}

// pctOf expresses v as a percentage of base, or zero when base is not positive.
func pctOf(v, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return v.Div(base).Mul(hundred)
}
