package engine

import (
	"errors"
	"fmt"
	"perfledger/types"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	sourceLedger           = "ledger"
	sourceReported         = "reported"
	sourceFillCommissions  = "fill_commissions"
	sourceBalanceBackSolve = "balance_backsolve"
	sourceNone             = "none"
)

var (
	errNoFills        = errors.New("no fills to fold")
	errNoReportedPnL  = errors.New("execution engine reported no pnl")
	errNoPnL          = errors.New("no pnl provider succeeded")
	errNoCommissions  = errors.New("no commissions in settlement currency")
	errZeroBackSolve  = errors.New("balance equation yields zero commissions")
	errBackSolveNoPnL = errors.New("balance back-solve needs pnl figures")
)

type pnlFigures struct {
	realized   decimal.Decimal
	unrealized decimal.Decimal
}

// pnlProvider is one way of obtaining realized and unrealized PnL. Providers are tried in
// order and the name of the first one that succeeds is recorded in the summary.
type pnlProvider struct {
	name    string
	compute func(r *run) (pnlFigures, error)
}

var pnlProviders = []pnlProvider{
	{name: sourceLedger, compute: ledgerPnL},
	{name: sourceReported, compute: reportedPnL},
}

type commissionProvider struct {
	name    string
	compute func(r *run, pnl pnlFigures) (decimal.Decimal, error)
}

var commissionProviders = []commissionProvider{
	{name: sourceFillCommissions, compute: fillCommissions},
	{name: sourceBalanceBackSolve, compute: balanceBackSolve},
}

func ledgerPnL(r *run) (pnlFigures, error) {
	if r.ledger == nil || len(r.norm.Fills) == 0 {
		return pnlFigures{}, errNoFills
	}
	return pnlFigures{
		realized:   r.ledger.realized(),
		unrealized: r.ledger.unrealized(r.in.MarkPrices),
	}, nil
}

func reportedPnL(r *run) (pnlFigures, error) {
	if r.in.Reported == nil {
		return pnlFigures{}, errNoReportedPnL
	}
	return pnlFigures{
		realized:   r.in.Reported.Realized,
		unrealized: r.in.Reported.Unrealized,
	}, nil
}

func resolvePnL(r *run) (pnlFigures, string, error) {
	for _, p := range pnlProviders {
		fig, err := p.compute(r)
		if err != nil {
			r.log.Debug("pnl provider unavailable", zap.String("provider", p.name), zap.Error(err))
			continue
		}
		return fig, p.name, nil
	}
	return pnlFigures{}, sourceNone, errNoPnL
}

// fillCommissions sums the explicit per-fill commissions charged in the settlement currency.
func fillCommissions(r *run, _ pnlFigures) (decimal.Decimal, error) {
	total := decimal.Zero
	excluded := 0
	for _, f := range r.norm.Fills {
		if f.Commission.IsZero() {
			continue
		}
		if f.CommissionCurrency != "" && !strings.EqualFold(f.CommissionCurrency, r.in.SettlementCurrency) {
			excluded++
			continue
		}
		total = total.Add(f.Commission.Abs())
	}
	if excluded > 0 {
		r.anomaly(types.AnomalyPartialData, metricCommissions,
			fmt.Sprintf("%d fill commissions not in %s were ignored", excluded, r.in.SettlementCurrency),
			decimal.NewFromInt(int64(excluded)))
	}
	if total.IsZero() {
		return decimal.Zero, errNoCommissions
	}
	return total, nil
}

// balanceBackSolve derives commissions from realized + unrealized - commissions = balance delta.
func balanceBackSolve(r *run, pnl pnlFigures) (decimal.Decimal, error) {
	if r.summary.Meta.Sources.PnL == sourceNone {
		return decimal.Zero, errBackSolveNoPnL
	}
	delta := r.in.FinalBalance.Sub(r.in.StartingBalance)
	commissions := pnl.realized.Add(pnl.unrealized).Sub(delta)
	if commissions.Abs().LessThanOrEqual(r.reconcileConfig.epsilon) {
		return decimal.Zero, errZeroBackSolve
	}
	if commissions.IsNegative() {
		r.anomaly(types.AnomalyArithmetic, metricCommissions,
			"balance equation yields negative commissions; balance grew more than pnl explains",
			commissions)
		return decimal.Zero, nil
	}
	limit := r.in.StartingBalance.Abs().Mul(r.reconcileConfig.commissionToleranceRatio)
	if limit.IsPositive() && commissions.GreaterThan(limit) {
		r.anomaly(types.AnomalyArithmetic, metricCommissions,
			fmt.Sprintf("back-solved commissions exceed %s of starting balance", r.reconcileConfig.commissionToleranceRatio),
			commissions)
	}
	return commissions, nil
}

func resolveCommissions(r *run, pnl pnlFigures) (decimal.Decimal, string) {
	for _, p := range commissionProviders {
		c, err := p.compute(r, pnl)
		if err != nil {
			r.log.Debug("commission provider unavailable", zap.String("provider", p.name), zap.Error(err))
			continue
		}
		return c, p.name
	}
	return decimal.Zero, sourceNone
}

// balanceResidual is what the balance identity leaves unexplained.
func balanceResidual(r *run, pnl pnlFigures, commissions decimal.Decimal) decimal.Decimal {
	delta := r.in.FinalBalance.Sub(r.in.StartingBalance)
	return pnl.realized.Add(pnl.unrealized).Sub(commissions).Sub(delta)
}
