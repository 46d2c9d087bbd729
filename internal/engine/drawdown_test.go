package engine

import (
	"perfledger/types"
	"testing"
	"time"
)

func curveOf(values ...string) []types.EquityPoint {
	curve := make([]types.EquityPoint, 0, len(values))
	for i, v := range values {
		curve = append(curve, types.EquityPoint{Time: at(i * 60), Equity: d(v)})
	}
	return curve
}

func TestCalcDrawdown(t *testing.T) {
	tests := []struct {
		name         string
		curve        []types.EquityPoint
		start        string
		wantDD       string
		wantPct      string
		wantPeak     string
		wantDuration time.Duration
	}{
		{
			name:     "non-decreasing curve has no drawdown",
			curve:    curveOf("100", "100", "110", "130"),
			start:    "100",
			wantDD:   "0",
			wantPct:  "0",
			wantPeak: "130",
		},
		{
			name:         "deepest trough from the running peak",
			curve:        curveOf("100", "120", "90", "130", "110"),
			start:        "100",
			wantDD:       "30",
			wantPct:      "30",
			wantPeak:     "130",
			wantDuration: time.Hour,
		},
		{
			name:         "zero starting balance leaves pct at zero",
			curve:        curveOf("50", "40"),
			start:        "0",
			wantDD:       "10",
			wantPct:      "0",
			wantPeak:     "50",
			wantDuration: time.Hour,
		},
		{
			name:     "empty curve",
			start:    "100",
			wantDD:   "0",
			wantPct:  "0",
			wantPeak: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calcDrawdown(tt.curve, d(tt.start))
			if got.MaxDrawdown.IsNegative() {
				t.Fatalf("max drawdown must not be negative, got %s", got.MaxDrawdown)
			}
			if !got.MaxDrawdown.Equal(d(tt.wantDD)) {
				t.Errorf("max dd: got %s, want %s", got.MaxDrawdown, tt.wantDD)
			}
			if !got.MaxDrawdownPct.Equal(d(tt.wantPct)) {
				t.Errorf("max dd pct: got %s, want %s", got.MaxDrawdownPct, tt.wantPct)
			}
			if !got.PeakEquity.Equal(d(tt.wantPeak)) {
				t.Errorf("peak: got %s, want %s", got.PeakEquity, tt.wantPeak)
			}
			if got.MaxDrawdownDuration != tt.wantDuration {
				t.Errorf("duration: got %s, want %s", got.MaxDrawdownDuration, tt.wantDuration)
			}
		})
	}
}

func TestBalanceOnlyDrawdown(t *testing.T) {
	tests := []struct {
		name           string
		start, final   string
		wantDD, wantPc string
	}{
		{name: "loss", start: "1000", final: "900", wantDD: "100", wantPc: "10"},
		{name: "gain", start: "1000", final: "1100", wantDD: "0", wantPc: "0"},
		{name: "flat", start: "1000", final: "1000", wantDD: "0", wantPc: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := balanceOnlyDrawdown(d(tt.start), d(tt.final))
			if !got.MaxDrawdown.Equal(d(tt.wantDD)) || !got.MaxDrawdownPct.Equal(d(tt.wantPc)) {
				t.Fatalf("got %s (%s%%), want %s (%s%%)", got.MaxDrawdown, got.MaxDrawdownPct, tt.wantDD, tt.wantPc)
			}
		})
	}
}

func TestReconstructEquity(t *testing.T) {
	in := types.RunInput{
		SettlementCurrency: "USD",
		StartingBalance:    d("1000"),
		FinalBalance:       d("899"),
	}
	fills := []types.Fill{
		withFee(buy("AAPL", "100", "10", 0), "0.5"),
		withFee(sell("AAPL", "90", "10", 1), "0.5"),
	}

	curve := reconstructEquity(fills, in)

	want := []string{"1000", "999.5", "899", "899"}
	if len(curve) != len(want) {
		t.Fatalf("points: got %d, want %d", len(curve), len(want))
	}
	for i, w := range want {
		if !curve[i].Equity.Equal(d(w)) {
			t.Errorf("point %d: got %s, want %s", i, curve[i].Equity, w)
		}
	}

	dd := calcDrawdown(curve, in.StartingBalance)
	if !dd.MaxDrawdown.Equal(d("101")) {
		t.Errorf("max dd: got %s, want 101", dd.MaxDrawdown)
	}
}

func TestReconstructEquity_MatchesFullRemark(t *testing.T) {
	in := types.RunInput{
		SettlementCurrency: "USD",
		StartingBalance:    d("10000"),
		FinalBalance:       d("10000"),
	}
	fills := []types.Fill{
		buy("AAPL", "100", "10", 0),
		sell("MSFT", "300", "2", 1),
		buy("AAPL", "102", "5", 2),
		buy("MSFT", "295", "1", 3),
		sell("AAPL", "105", "20", 4),
		buy("MSFT", "310", "1", 5),
		buy("AAPL", "101", "5", 6),
	}

	curve := reconstructEquity(fills, in)

	if len(curve) != len(fills)+2 {
		t.Fatalf("points: got %d, want %d", len(curve), len(fills)+2)
	}
	for i := range fills {
		l := newLedger()
		for _, f := range fills[:i+1] {
			l.apply(f)
		}
		want := in.StartingBalance.Add(l.realized()).Add(l.unrealized(nil))
		if got := curve[i+1].Equity; !got.Equal(want) {
			t.Errorf("point %d: got %s, want %s", i+1, got, want)
		}
	}
}
