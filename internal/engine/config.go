package engine

import (
	"github.com/shopspring/decimal"
)

type ReconcileConfig struct {
	epsilon                  decimal.Decimal
	commissionToleranceRatio decimal.Decimal
}

func NewReconcileConfig(epsilon, commissionToleranceRatio decimal.Decimal) *ReconcileConfig {
	return &ReconcileConfig{
		epsilon:                  epsilon.Abs(),
		commissionToleranceRatio: commissionToleranceRatio.Abs(),
	}
}

type StatsConfig struct {
	pseudoTradeFallback bool
}

func NewStatsConfig(pseudoTradeFallback bool) *StatsConfig {
	return &StatsConfig{
		pseudoTradeFallback: pseudoTradeFallback,
	}
}

type ReportingConfig struct {
	sharpeRiskFreeRate decimal.Decimal
}

func NewReportingConfig(sharpeRiskFreeRate decimal.Decimal) *ReportingConfig {
	return &ReportingConfig{
		sharpeRiskFreeRate: sharpeRiskFreeRate,
	}
}

var (
	defaultEpsilon                  = decimal.RequireFromString("0.000001")
	defaultCommissionToleranceRatio = decimal.RequireFromString("0.05")
)

func DefaultReconcileConfig() *ReconcileConfig {
	return NewReconcileConfig(defaultEpsilon, defaultCommissionToleranceRatio)
}

func DefaultStatsConfig() *StatsConfig {
	return NewStatsConfig(true)
}

func DefaultReportingConfig() *ReportingConfig {
	return NewReportingConfig(decimal.Zero)
}
