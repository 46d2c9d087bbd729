package engine

import (
	"fmt"
	"perfledger/types"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	metricEvents      = "events"
	metricPnL         = "pnl"
	metricCommissions = "commissions"
	metricClose       = "close"
	metricPositions   = "positions"
	metricTradeStats  = "trade_stats"
	metricDrawdown    = "drawdown"
	metricReturns     = "returns"
)

// Engine turns the order and fill events of one run into a RunSummary. An Engine holds
// only configuration, so a single instance can analyze independent runs concurrently.
type Engine struct {
	reconcileConfig *ReconcileConfig
	statsConfig     *StatsConfig
	reportingConfig *ReportingConfig
	log             *zap.Logger
}

func NewEngine(reconcileConfig *ReconcileConfig, statsConfig *StatsConfig, reportingConfig *ReportingConfig, log *zap.Logger) *Engine {
	if reconcileConfig == nil {
		reconcileConfig = DefaultReconcileConfig()
	}
	if statsConfig == nil {
		statsConfig = DefaultStatsConfig()
	}
	if reportingConfig == nil {
		reportingConfig = DefaultReportingConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		reconcileConfig: reconcileConfig,
		statsConfig:     statsConfig,
		reportingConfig: reportingConfig,
		log:             log,
	}
}

// run is the state of a single Analyze call. Nothing in it outlives the call.
type run struct {
	*Engine
	in      types.RunInput
	log     *zap.Logger
	norm    Normalized
	ledger  *ledger
	pnl     pnlFigures
	cycles  []types.Cycle
	curve   []types.EquityPoint
	summary types.RunSummary
}

// Analyze never fails: a metric that cannot be computed is left at zero and the reason is
// recorded in the summary's anomalies.
func (e *Engine) Analyze(in types.RunInput) types.RunSummary {
	r := &run{
		Engine: e,
		in:     in,
		log:    e.log.With(zap.String("run_id", in.RunID)),
	}
	r.summary = types.RunSummary{
		RunID:              in.RunID,
		SettlementCurrency: strings.ToUpper(in.SettlementCurrency),
		StartingBalance:    in.StartingBalance,
		FinalBalance:       in.FinalBalance,
		Meta: types.SummaryMeta{
			Sources: types.Sources{
				PnL:         sourceNone,
				Commissions: sourceNone,
				TradeStats:  sourceNone,
				EquityCurve: sourceNone,
			},
		},
	}

	r.guard(metricEvents, r.normalize, r.resetEvents)
	r.guard(metricPnL, r.calcPnL, r.resetPnL)
	r.guard(metricCommissions, r.calcCommissions, r.resetCommissions)
	r.guard(metricClose, r.closePositions, r.resetClose)
	r.settle()
	r.guard(metricPositions, r.calcPositions, r.resetPositions)
	r.guard(metricTradeStats, r.calcTradeStats, r.resetTradeStats)
	r.guard(metricDrawdown, r.calcDrawdown, r.resetDrawdown)
	r.guard(metricReturns, r.calcReturns, r.resetReturns)

	return r.finish()
}

// guard runs one metric behind its own failure boundary. When fn fails or panics, reset
// puts whatever fn already wrote back to its neutral zero.
func (r *run) guard(metric string, fn func() error, reset func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("metric panicked", zap.String("metric", metric), zap.Any("panic", rec))
			reset()
			r.anomaly(types.AnomalyMetricFailure, metric, fmt.Sprintf("recovered: %v", rec), decimal.Zero)
		}
	}()
	if err := fn(); err != nil {
		r.log.Warn("metric failed", zap.String("metric", metric), zap.Error(err))
		reset()
		r.anomaly(types.AnomalyMetricFailure, metric, err.Error(), decimal.Zero)
	}
}

func (r *run) resetEvents() {
	r.norm = Normalized{}
	r.ledger = nil
	r.cycles = nil
	r.summary.Orders = types.OrderStats{}
	r.summary.Fills = fillStats(nil)
	r.summary.Rejections = nil
	r.summary.Timeline = nil
}

func (r *run) resetPnL() {
	r.pnl = pnlFigures{realized: decimal.Zero, unrealized: decimal.Zero}
	r.summary.Meta.Sources.PnL = sourceNone
	r.summary.PnL.Realized = decimal.Zero
	r.summary.PnL.Unrealized = decimal.Zero
	r.summary.PnL.UnrealizedBeforeClose = decimal.Zero
}

func (r *run) resetCommissions() {
	r.summary.Meta.Sources.Commissions = sourceNone
	r.summary.PnL.Commissions = decimal.Zero
}

// resetClose restores the pre-close figures and drops any synthetic cycles.
func (r *run) resetClose() {
	if r.ledger != nil {
		r.cycles = append([]types.Cycle(nil), r.ledger.cycles...)
	} else {
		r.cycles = nil
	}
	r.summary.PnL.Realized = r.pnl.realized
	r.summary.PnL.Unrealized = r.pnl.unrealized
	r.summary.PnL.UnrealizedBeforeClose = r.pnl.unrealized
	r.summary.Meta.PositionsClosed = false
}

func (r *run) resetPositions() {
	r.summary.Position = types.PositionSummary{}
}

func (r *run) resetTradeStats() {
	stats := calcTradeStats(nil, decimal.Zero)
	stats.Source = sourceNone
	r.summary.TradeStats = stats
	r.summary.Meta.Sources.TradeStats = sourceNone
}

func (r *run) resetDrawdown() {
	r.curve = nil
	r.summary.Meta.Sources.EquityCurve = sourceNone
	r.summary.Drawdown = types.DrawdownStats{
		Source:         sourceNone,
		MaxDrawdown:    decimal.Zero,
		MaxDrawdownPct: decimal.Zero,
		PeakEquity:     decimal.Zero,
	}
}

func (r *run) resetReturns() {
	r.summary.Returns = calcReturns(decimal.Zero, decimal.Zero, decimal.Zero, nil, decimal.Zero)
}

func (r *run) anomaly(kind types.AnomalyKind, metric, msg string, value decimal.Decimal) {
	r.log.Debug("anomaly", zap.String("kind", string(kind)), zap.String("metric", metric), zap.String("message", msg))
	r.summary.Meta.Anomalies = append(r.summary.Meta.Anomalies, types.Anomaly{
		Kind:    kind,
		Metric:  metric,
		Message: msg,
		Value:   value,
	})
}

func (r *run) normalize() error {
	n := Normalize(r.in.Fills, r.in.OrderEvents)
	r.norm = n
	r.summary.Orders = n.Orders
	r.summary.Rejections = n.Rejections
	r.summary.Timeline = n.Timeline
	r.summary.Fills = fillStats(n.Fills)
	if n.Dropped > 0 {
		r.anomaly(types.AnomalyPartialData, metricEvents,
			fmt.Sprintf("%d malformed fills dropped", n.Dropped), decimal.NewFromInt(int64(n.Dropped)))
	}
	if len(n.Fills) > 0 {
		r.ledger = detectCycles(n.Fills, r.log)
		r.cycles = append([]types.Cycle(nil), r.ledger.cycles...)
	}
	return nil
}

func (r *run) calcPnL() error {
	fig, source, err := resolvePnL(r)
	r.summary.Meta.Sources.PnL = source
	if err != nil {
		r.anomaly(types.AnomalyMissingData, metricPnL, "no fills or reported pnl to analyze", decimal.Zero)
		return nil
	}
	if source != sourceLedger {
		r.anomaly(types.AnomalyPartialData, metricPnL,
			fmt.Sprintf("pnl taken from %s figures instead of the fill ledger", source), decimal.Zero)
	}
	r.pnl = fig
	r.summary.PnL.Realized = fig.realized
	r.summary.PnL.Unrealized = fig.unrealized
	r.summary.PnL.UnrealizedBeforeClose = fig.unrealized
	return nil
}

func (r *run) calcCommissions() error {
	commissions, source := resolveCommissions(r, r.pnl)
	r.summary.Meta.Sources.Commissions = source
	r.summary.PnL.Commissions = commissions

	if source == sourceFillCommissions {
		residual := balanceResidual(r, r.pnl, commissions)
		if residual.Abs().GreaterThan(r.reconcileConfig.epsilon) {
			r.anomaly(types.AnomalyArithmetic, metricCommissions,
				"realized + unrealized - commissions does not match the balance change", residual)
		}
	}
	return nil
}

// settle derives the figures that only add up other sections.
func (r *run) settle() {
	p := &r.summary.PnL
	p.Net = p.Realized.Add(p.Unrealized).Sub(p.Commissions)
	p.Total = r.in.FinalBalance.Sub(r.in.StartingBalance)
}

func (r *run) calcPositions() error {
	if r.ledger == nil {
		return nil
	}
	realizedByInstrument := make(map[string]decimal.Decimal)
	for _, c := range r.ledger.cycles {
		realizedByInstrument[c.InstrumentID] = realizedByInstrument[c.InstrumentID].Add(c.RealizedPnL)
	}

	var summary types.PositionSummary
	for _, id := range r.ledger.instruments() {
		pos := r.ledger.positions[id]
		snap := types.PositionSnapshot{
			InstrumentID:  id,
			Side:          pos.Side,
			NetQuantity:   pos.NetQuantity,
			AvgEntryPrice: pos.AvgEntryPrice,
			MarkPrice:     markPrice(pos, r.in.MarkPrices[id]),
			UnrealizedPnL: unrealizedPnL(pos, markPrice(pos, r.in.MarkPrices[id])),
			RealizedPnL:   realizedByInstrument[id].Add(pos.RealizedPnL),
			Fills:         r.ledger.fillCounts[id],
		}
		if pos.Side.IsOpen() {
			summary.Open++
		}
		summary.Positions = append(summary.Positions, snap)
	}
	r.summary.Position = summary
	return nil
}

func (r *run) calcTradeStats() error {
	trades := r.cycles
	source := sourceCycles
	approximate := false
	if len(trades) == 0 {
		switch {
		case r.statsConfig.pseudoTradeFallback && len(r.norm.Fills) > 0:
			trades = pseudoTrades(r.norm.Fills)
			source = sourceFillApproximation
			approximate = true
			r.anomaly(types.AnomalyPartialData, metricTradeStats,
				"no position closed or flipped; trade statistics approximated from individual fills",
				decimal.NewFromInt(int64(len(trades))))
		default:
			source = sourceNone
		}
	}

	stats := calcTradeStats(trades, r.in.StartingBalance)
	stats.Source = source
	stats.Approximate = approximate
	r.summary.TradeStats = stats
	r.summary.Meta.Sources.TradeStats = source
	return nil
}

func (r *run) calcDrawdown() error {
	curve, source := equityCurve(r)
	r.curve = curve
	r.summary.Meta.Sources.EquityCurve = source

	var dd types.DrawdownStats
	if len(curve) == 0 {
		dd = balanceOnlyDrawdown(r.in.StartingBalance, r.in.FinalBalance)
		r.anomaly(types.AnomalyPartialData, metricDrawdown,
			"no equity curve; drawdown computed from starting and final balance only", decimal.Zero)
	} else {
		dd = calcDrawdown(curve, r.in.StartingBalance)
	}
	dd.Source = source
	r.summary.Drawdown = dd
	return nil
}

func (r *run) calcReturns() error {
	r.summary.Returns = calcReturns(r.in.StartingBalance, r.in.FinalBalance, r.summary.PnL.Net, r.curve, r.reportingConfig.sharpeRiskFreeRate)
	return nil
}

func (r *run) finish() types.RunSummary {
	s := r.summary
	s.Cycles = r.cycles
	if s.Cycles == nil {
		s.Cycles = []types.Cycle{}
	}
	if s.Rejections == nil {
		s.Rejections = []types.Rejection{}
	}
	if s.Timeline == nil {
		s.Timeline = []types.TimelineEntry{}
	}
	if s.Position.Positions == nil {
		s.Position.Positions = []types.PositionSnapshot{}
	}
	if s.Meta.Anomalies == nil {
		s.Meta.Anomalies = []types.Anomaly{}
	}
	r.log.Info("run analyzed",
		zap.Int("fills", s.Fills.Total),
		zap.Int("cycles", len(s.Cycles)),
		zap.String("pnl_source", s.Meta.Sources.PnL),
		zap.String("commission_source", s.Meta.Sources.Commissions),
		zap.Int("anomalies", len(s.Meta.Anomalies)),
	)
	return s
}

func fillStats(fills []types.Fill) types.FillStats {
	stats := types.FillStats{Total: len(fills), Volume: decimal.Zero, Notional: decimal.Zero}
	for _, f := range fills {
		switch f.Side {
		case types.SideTypeBuy:
			stats.Buys++
		case types.SideTypeSell:
			stats.Sells++
		}
		if f.Inferred {
			stats.Inferred++
		}
		stats.Volume = stats.Volume.Add(f.Quantity)
		stats.Notional = stats.Notional.Add(f.Quantity.Mul(f.Price))
	}
	return stats
}
