package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jax-backtester/internal/config"
	"jax-backtester/internal/execution"
	"jax-backtester/internal/marketdata"
	"jax-backtester/internal/risk"
	"jax-backtester/internal/strategy"
	"jax-backtester/internal/telemetry"
)

// RunResult wraps Result with the bookkeeping a caller needs to reproduce
// or audit the run: a run ID, the symbol it replayed, the seed its execution
// model drew randomness from, when it started, and how long the replay took.
type RunResult struct {
	Result
	RunID      string
	Symbol     string
	Seed       int64
	RunAt      time.Time
	DurationMs int64
}

// Run validates request, loads its CSV, wires a TrendPullbackStrategy
// against a risk.Manager and execution.Model built from request's fields,
// and replays the resulting series through a fresh Engine. It is the single
// entry point cmd/backtest and any embedder should call.
func Run(ctx context.Context, logger zerolog.Logger, request config.BacktestRequest) (*RunResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	series, err := marketdata.LoadCSV(request.CSVPath, request.Symbol)
	if err != nil {
		return nil, err
	}

	strat := strategy.NewTrendPullbackStrategy(strategy.DefaultTrendPullbackConfig())

	riskCfg := risk.DefaultConfig()
	riskCfg.RiskPerTrade = request.RiskPerTrade
	riskCfg.MaxDrawdown = request.MaxDrawdown
	riskCfg.MaxConsecutiveLosses = request.MaxConsecutiveLosses
	riskMgr := risk.NewManager(riskCfg)

	execCfg := execution.DefaultConfig()
	execCfg.FeeRate = request.FeeRate
	execCfg.SlippagePct = request.SlippagePct
	execCfg.SpreadPct = request.SpreadPct
	execCfg.LatencyBars = request.LatencyBars
	execModel := execution.NewModel(execCfg)

	engineCfg := DefaultConfig()
	engineCfg.InitialCapital = request.InitialCapital
	engineCfg.AllowShort = request.AllowShort
	engine := NewEngine(strat, riskMgr, execModel, engineCfg)

	runAt := time.Now()
	logger.Info().
		Str("symbol", request.Symbol).
		Str("csv_path", request.CSVPath).
		Int64("seed", execCfg.Seed).
		Msg("backtest run starting")

	result := engine.Run(ctx, series)

	duration := time.Since(runAt)
	outcome := "ok"
	if len(result.Trades) == 0 {
		outcome = "no_trades"
	}
	telemetry.RunsTotal.WithLabelValues("trend_pullback", outcome).Inc()
	telemetry.RunDurationSeconds.WithLabelValues("trend_pullback").Observe(duration.Seconds())
	telemetry.TradesPerRun.WithLabelValues("trend_pullback").Observe(float64(len(result.Trades)))
	telemetry.NetPnL.WithLabelValues("trend_pullback").Set(result.Metrics.NetPnL)

	logger.Info().
		Str("symbol", request.Symbol).
		Int("trades", len(result.Trades)).
		Float64("net_pnl", result.Metrics.NetPnL).
		Strs("warnings", result.Warnings).
		Dur("duration", duration).
		Msg("backtest run complete")

	return &RunResult{
		Result:     result,
		RunID:      fmt.Sprintf("bt_%s_%s", request.Symbol, uuid.New().String()),
		Symbol:     request.Symbol,
		Seed:       execCfg.Seed,
		RunAt:      runAt,
		DurationMs: duration.Milliseconds(),
	}, nil
}
