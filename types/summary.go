package types

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

// RunSummary is the result of analysing one run. It is built once and read-only after.
type RunSummary struct {
	RunID              string          `json:"runId"`
	SettlementCurrency string          `json:"settlementCurrency"`
	StartingBalance    decimal.Decimal `json:"startingBalance"`
	FinalBalance       decimal.Decimal `json:"finalBalance"`

	Orders     OrderStats      `json:"orders"`
	Fills      FillStats       `json:"fills"`
	PnL        PnLSummary      `json:"pnl"`
	Returns    ReturnStats     `json:"returns"`
	Position   PositionSummary `json:"position"`
	TradeStats TradeStats      `json:"tradeStats"`
	Drawdown   DrawdownStats   `json:"drawdown"`

	Cycles     []Cycle         `json:"cycles"`
	Rejections []Rejection     `json:"rejections"`
	Timeline   []TimelineEntry `json:"timeline"`
	Meta       SummaryMeta     `json:"meta"`
}

type OrderStats struct {
	Total           int `json:"total"`
	Submitted       int `json:"submitted"`
	Accepted        int `json:"accepted"`
	Filled          int `json:"filled"`
	PartiallyFilled int `json:"partiallyFilled"`
	Canceled        int `json:"canceled"`
	Expired         int `json:"expired"`
	Rejected        int `json:"rejected"`
	Denied          int `json:"denied"`
}

type FillStats struct {
	Total    int             `json:"total"`
	Buys     int             `json:"buys"`
	Sells    int             `json:"sells"`
	Inferred int             `json:"inferred"`
	Volume   decimal.Decimal `json:"volume"`
	Notional decimal.Decimal `json:"notional"`
}

type PnLSummary struct {
	Realized              decimal.Decimal `json:"realized"`
	Unrealized            decimal.Decimal `json:"unrealized"`
	UnrealizedBeforeClose decimal.Decimal `json:"unrealizedBeforeClose"`
	Commissions           decimal.Decimal `json:"commissions"`
	// Net is realized + unrealized - commissions.
	Net decimal.Decimal `json:"net"`
	// Total is the account balance change.
	Total decimal.Decimal `json:"total"`
}

type ReturnStats struct {
	TotalReturn    decimal.Decimal `json:"totalReturn"`
	TotalReturnPct decimal.Decimal `json:"totalReturnPct"`
	NetPnLPct      decimal.Decimal `json:"netPnlPct"`
	CAGR           decimal.Decimal `json:"cagr"`
	SharpeRatio    decimal.Decimal `json:"sharpeRatio"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
}

type PositionSummary struct {
	Open      int                `json:"open"`
	Positions []PositionSnapshot `json:"positions"`
}

type TradeStats struct {
	Source string `json:"source"`
	// Approximate is set when the figures come from per-fill pseudo trades
	// instead of genuine position cycles.
	Approximate bool `json:"approximate"`

	TotalTrades  int             `json:"totalTrades"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	Breakeven    int             `json:"breakeven"`
	WinRate      decimal.Decimal `json:"winRate"`
	GrossProfit  decimal.Decimal `json:"grossProfit"`
	GrossLoss    decimal.Decimal `json:"grossLoss"`
	AvgWin       decimal.Decimal `json:"avgWin"`
	AvgLoss      decimal.Decimal `json:"avgLoss"`
	LargestWin   decimal.Decimal `json:"largestWin"`
	LargestLoss  decimal.Decimal `json:"largestLoss"`
	ProfitFactor Ratio           `json:"profitFactor"`
	Expectancy   decimal.Decimal `json:"expectancy"`

	AvgWinPct      decimal.Decimal `json:"avgWinPct"`
	AvgLossPct     decimal.Decimal `json:"avgLossPct"`
	LargestWinPct  decimal.Decimal `json:"largestWinPct"`
	LargestLossPct decimal.Decimal `json:"largestLossPct"`
	ExpectancyPct  decimal.Decimal `json:"expectancyPct"`

	MaxConsecutiveLosses int `json:"maxConsecutiveLosses"`
}

type DrawdownStats struct {
	Source              string          `json:"source"`
	MaxDrawdown         decimal.Decimal `json:"maxDrawdown"`
	MaxDrawdownPct      decimal.Decimal `json:"maxDrawdownPct"`
	PeakEquity          decimal.Decimal `json:"peakEquity"`
	MaxDrawdownDuration time.Duration   `json:"maxDrawdownDuration"`
}

// Sources records which provider produced each figure.
type Sources struct {
	PnL         string `json:"pnl"`
	Commissions string `json:"commissions"`
	TradeStats  string `json:"tradeStats"`
	EquityCurve string `json:"equityCurve"`
}

type SummaryMeta struct {
	Sources         Sources   `json:"sources"`
	PositionsClosed bool      `json:"positionsClosed"`
	Anomalies       []Anomaly `json:"anomalies"`
}

// HasAnomaly reports whether an anomaly of the given kind was recorded.
func (m SummaryMeta) HasAnomaly(kind AnomalyKind) bool {
	for _, a := range m.Anomalies {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

type AnomalyKind string

const (
	AnomalyMissingData   AnomalyKind = "missing_data"
	AnomalyArithmetic    AnomalyKind = "arithmetic_inconsistency"
	AnomalyPartialData   AnomalyKind = "partial_data_fallback"
	AnomalyMetricFailure AnomalyKind = "metric_failure"
)

type Anomaly struct {
	Kind    AnomalyKind     `json:"kind"`
	Metric  string          `json:"metric"`
	Message string          `json:"message"`
	Value   decimal.Decimal `json:"value"`
}

// Ratio is a decimal that can also be positive infinity.
type Ratio struct {
	Value    decimal.Decimal
	Infinite bool
}

var infJSON = []byte(`"+Inf"`)

func FiniteRatio(v decimal.Decimal) Ratio { return Ratio{Value: v} }
func InfiniteRatio() Ratio                { return Ratio{Infinite: true} }

func (r Ratio) String() string {
	if r.Infinite {
		return "+Inf"
	}
	return r.Value.String()
}

func (r Ratio) Equal(o Ratio) bool {
	if r.Infinite || o.Infinite {
		return r.Infinite == o.Infinite
	}
	return r.Value.Equal(o.Value)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.Infinite {
		return infJSON, nil
	}
	return r.Value.MarshalJSON()
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, infJSON) {
		*r = InfiniteRatio()
		return nil
	}
	r.Infinite = false
	return r.Value.UnmarshalJSON(b)
}
