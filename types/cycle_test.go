package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCycleOutcome(t *testing.T) {
	tests := []struct {
		pnl      string
		wantWin  bool
		wantLoss bool
	}{
		{pnl: "12.5", wantWin: true},
		{pnl: "-0.01", wantLoss: true},
		{pnl: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.pnl, func(t *testing.T) {
			c := Cycle{RealizedPnL: decimal.RequireFromString(tt.pnl)}
			if c.IsWin() != tt.wantWin || c.IsLoss() != tt.wantLoss {
				t.Errorf("pnl %s: IsWin=%v IsLoss=%v, want %v %v", tt.pnl, c.IsWin(), c.IsLoss(), tt.wantWin, tt.wantLoss)
			}
		})
	}
}
