// cmd/backtest is the CLI entrypoint for running a single backtest from a
// CSV bar file. Flags mirror config.BacktestRequest 1:1.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"jax-backtester/internal/backtest"
	"jax-backtester/internal/config"
	"jax-backtester/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	defaults := config.DefaultBacktestRequest()

	flags := pflag.NewFlagSet("backtest", pflag.ContinueOnError)
	symbol := flags.String("symbol", "", "instrument symbol being replayed")
	csvPath := flags.String("csv", "", "path to the OHLCV bar file")
	initialCapital := flags.Float64("initial-capital", defaults.InitialCapital, "starting cash")
	feeRate := flags.Float64("fee-rate", defaults.FeeRate, "fee charged per fill, as a fraction of notional")
	slippage := flags.Float64("slippage", defaults.SlippagePct, "slippage applied to every fill, as a fraction of price")
	spread := flags.Float64("spread", defaults.SpreadPct, "bid/ask spread applied to every fill, as a fraction of price")
	latencyBars := flags.Int("latency-bars", defaults.LatencyBars, "bars between order submission and execution")
	riskPerTrade := flags.Float64("risk-per-trade", defaults.RiskPerTrade, "fraction of equity risked per trade")
	maxDrawdown := flags.Float64("max-drawdown", defaults.MaxDrawdown, "drawdown fraction at or above which no new trade opens")
	maxConsecutiveLosses := flags.Int("max-consecutive-losses", defaults.MaxConsecutiveLosses, "losing streak length at or above which no new trade opens")
	allowShort := flags.Bool("allow-short", false, "allow the strategy to open short positions")
	metricsAddr := flags.String("metrics-addr", "", "if set, serve Prometheus metrics on this address for the run's duration")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	request := config.BacktestRequest{
		Symbol:               *symbol,
		CSVPath:              *csvPath,
		InitialCapital:       *initialCapital,
		FeeRate:              *feeRate,
		SlippagePct:          *slippage,
		SpreadPct:            *spread,
		LatencyBars:          *latencyBars,
		RiskPerTrade:         *riskPerTrade,
		MaxDrawdown:          *maxDrawdown,
		MaxConsecutiveLosses: *maxConsecutiveLosses,
		AllowShort:           *allowShort,
	}

	logger := telemetry.NewLogger()

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(telemetry.Registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer metricsSrv.Close()
	}

	result, err := backtest.Run(context.Background(), logger, request)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	payload := backtest.NewPayload(result.Result)
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
