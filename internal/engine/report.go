package engine

import (
	"bufio"
	"fmt"
	"io"
	"perfledger/types"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// WriteReport prints a human readable summary of a run to w.
func WriteReport(w io.Writer, s types.RunSummary) error {
	bw := bufio.NewWriter(w)
	cur := s.SettlementCurrency
	m := func(d decimal.Decimal) string { return formatMoney(d, cur) }
	pct := func(d decimal.Decimal) string { return d.StringFixed(2) + "%" }

	fmt.Fprintln(bw, "===== Performance Report =====")
	fmt.Fprintf(bw, "Run:                   %s\n", s.RunID)
	fmt.Fprintf(bw, "Currency:              %s\n", cur)
	if !s.Returns.PeriodStart.IsZero() {
		fmt.Fprintf(bw, "Period:                %s .. %s (%d days)\n",
			s.Returns.PeriodStart.Format("2006-01-02"),
			s.Returns.PeriodEnd.Format("2006-01-02"),
			s.Returns.PeriodEnd.Sub(s.Returns.PeriodStart)/(24*time.Hour))
	}
	fmt.Fprintf(bw, "Starting Balance:      %s\n", m(s.StartingBalance))
	fmt.Fprintf(bw, "Final Balance:         %s\n", m(s.FinalBalance))

	fmt.Fprintln(bw, "\n-- Orders & Fills --")
	fmt.Fprintf(bw, "Orders:                %d (filled %d, partial %d, canceled %d, expired %d)\n",
		s.Orders.Total, s.Orders.Filled, s.Orders.PartiallyFilled, s.Orders.Canceled, s.Orders.Expired)
	fmt.Fprintf(bw, "Rejected/Denied:       %d/%d\n", s.Orders.Rejected, s.Orders.Denied)
	fmt.Fprintf(bw, "Fills:                 %d (buys %d, sells %d, inferred %d)\n",
		s.Fills.Total, s.Fills.Buys, s.Fills.Sells, s.Fills.Inferred)
	fmt.Fprintf(bw, "Notional:              %s\n", m(s.Fills.Notional))

	fmt.Fprintln(bw, "\n-- Profit & Loss --")
	fmt.Fprintf(bw, "Realized:              %s\n", m(s.PnL.Realized))
	fmt.Fprintf(bw, "Unrealized:            %s\n", m(s.PnL.Unrealized))
	if s.Meta.PositionsClosed {
		fmt.Fprintf(bw, "Unrealized Pre-Close:  %s\n", m(s.PnL.UnrealizedBeforeClose))
	}
	fmt.Fprintf(bw, "Commissions:           %s\n", m(s.PnL.Commissions))
	fmt.Fprintf(bw, "Net PnL:               %s (%s)\n", m(s.PnL.Net), pct(s.Returns.NetPnLPct))
	fmt.Fprintf(bw, "Balance Change:        %s (%s)\n", m(s.PnL.Total), pct(s.Returns.TotalReturnPct))
	fmt.Fprintf(bw, "CAGR:                  %s\n", s.Returns.CAGR.StringFixed(4))
	fmt.Fprintf(bw, "Sharpe Ratio:          %s\n", s.Returns.SharpeRatio.StringFixed(4))

	ts := s.TradeStats
	fmt.Fprintln(bw, "\n-- Trade-Level Metrics --")
	if ts.Approximate {
		fmt.Fprintln(bw, "(approximated from individual fills)")
	}
	fmt.Fprintf(bw, "Total Trades:          %d (%d wins, %d losses, %d breakeven)\n",
		ts.TotalTrades, ts.Wins, ts.Losses, ts.Breakeven)
	fmt.Fprintf(bw, "Win Rate:              %s\n", pct(ts.WinRate))
	fmt.Fprintf(bw, "Avg Win:               %s (%s)\n", m(ts.AvgWin), pct(ts.AvgWinPct))
	fmt.Fprintf(bw, "Avg Loss:              %s (%s)\n", m(ts.AvgLoss), pct(ts.AvgLossPct))
	fmt.Fprintf(bw, "Largest Win:           %s\n", m(ts.LargestWin))
	fmt.Fprintf(bw, "Largest Loss:          %s\n", m(ts.LargestLoss))
	fmt.Fprintf(bw, "Profit Factor:         %s\n", ts.ProfitFactor)
	fmt.Fprintf(bw, "Expectancy:            %s (%s)\n", m(ts.Expectancy), pct(ts.ExpectancyPct))
	fmt.Fprintf(bw, "Max Consecutive Losses:%d\n", ts.MaxConsecutiveLosses)

	fmt.Fprintln(bw, "\n-- Drawdown Metrics --")
	fmt.Fprintf(bw, "Max Drawdown:          %s\n", m(s.Drawdown.MaxDrawdown))
	fmt.Fprintf(bw, "Max Drawdown %%:        %s\n", pct(s.Drawdown.MaxDrawdownPct))
	fmt.Fprintf(bw, "Max Drawdown Duration: %v\n", s.Drawdown.MaxDrawdownDuration)
	fmt.Fprintf(bw, "Peak Equity:           %s\n", m(s.Drawdown.PeakEquity))

	if s.Position.Open > 0 {
		fmt.Fprintln(bw, "\n-- Open Positions --")
		for _, p := range s.Position.Positions {
			if !p.Side.IsOpen() {
				continue
			}
			fmt.Fprintf(bw, "%-22s %-5s %s @ %s (mark %s, unrealized %s)\n",
				p.InstrumentID, p.Side, p.NetQuantity, p.AvgEntryPrice, p.MarkPrice, m(p.UnrealizedPnL))
		}
	}

	fmt.Fprintln(bw, "\n-- Sources --")
	fmt.Fprintf(bw, "PnL:                   %s\n", s.Meta.Sources.PnL)
	fmt.Fprintf(bw, "Commissions:           %s\n", s.Meta.Sources.Commissions)
	fmt.Fprintf(bw, "Trade Stats:           %s\n", s.Meta.Sources.TradeStats)
	fmt.Fprintf(bw, "Equity Curve:          %s\n", s.Meta.Sources.EquityCurve)

	if len(s.Meta.Anomalies) > 0 {
		fmt.Fprintln(bw, "\n-- Anomalies --")
		for _, a := range s.Meta.Anomalies {
			fmt.Fprintf(bw, "[%s] %s: %s\n", a.Kind, a.Metric, a.Message)
		}
	}

	fmt.Fprintln(bw, "==============================")
	return bw.Flush()
}

// WriteTimeline prints the merged order, fill and rejection timeline one event per line.
func WriteTimeline(w io.Writer, timeline []types.TimelineEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "===== Timeline =====")
	for _, e := range timeline {
		fmt.Fprintf(bw, "%s  %-9s %-12s %-10s %s\n",
			e.Time.Format(time.RFC3339Nano), e.Kind, e.OrderID, e.InstrumentID, e.Detail)
	}
	return bw.Flush()
}

// formatMoney renders amount in the currency's minor units, or as a plain decimal when the
// currency code is unknown.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}
