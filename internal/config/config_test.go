package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfledger.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SettlementCurrency != "USD" {
		t.Errorf("SettlementCurrency = %q, want USD", cfg.SettlementCurrency)
	}
	if !cfg.PseudoTradeFallback {
		t.Error("PseudoTradeFallback should default to true")
	}
	if !cfg.Epsilon.Equal(decimal.RequireFromString("0.000001")) {
		t.Errorf("Epsilon = %s, want 0.000001", cfg.Epsilon)
	}
	if !cfg.CommissionToleranceRatio.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("CommissionToleranceRatio = %s, want 0.05", cfg.CommissionToleranceRatio)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Batch.Workers)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
settlement_currency: eur
close_positions: true
epsilon: "0.01"
risk_free_rate: "0.02"
log:
  level: debug
batch:
  workers: 2
`)
	t.Setenv("PERFLEDGER_BATCH_WORKERS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SettlementCurrency != "EUR" {
		t.Errorf("SettlementCurrency = %q, want EUR", cfg.SettlementCurrency)
	}
	if !cfg.ClosePositions {
		t.Error("ClosePositions should be true")
	}
	if !cfg.Epsilon.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Epsilon = %s, want 0.01", cfg.Epsilon)
	}
	if !cfg.RiskFreeRate.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("RiskFreeRate = %s, want 0.02", cfg.RiskFreeRate)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("Workers = %d, want env override 8", cfg.Batch.Workers)
	}
	if cfg.NewEngine(nil) == nil {
		t.Error("NewEngine returned nil")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "unknown currency", body: "settlement_currency: XYZQ\n", wantErr: ErrUnknownCurrency},
		{name: "zero workers", body: "batch:\n  workers: 0\n", wantErr: ErrInvalidWorkers},
		{name: "negative epsilon", body: "epsilon: \"-1\"\n", wantErr: ErrNegativeEpsilon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("bad decimal", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "epsilon: abc\n")); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected read error")
		}
	})
}
