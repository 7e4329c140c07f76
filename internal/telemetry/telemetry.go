// Package telemetry wires the structured logger and Prometheus collectors
// a backtest run reports through.
package telemetry

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog.Logger writing human-readable console output,
// the way a CLI invocation is meant to be read. Callers that run under a
// log aggregator should build their own JSON logger instead.
func NewLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Logger()
}

// Registry is the Prometheus registry every backtest run's metrics are
// recorded against. A long-lived process (the CLI's optional --metrics-addr
// server) can expose it directly.
var Registry = prometheus.NewRegistry()

var (
	// RunsTotal counts completed runs by strategy and outcome.
	RunsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jax_backtester",
			Name:      "runs_total",
			Help:      "Total number of backtest runs, by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	// RunDurationSeconds observes how long a run took to replay.
	RunDurationSeconds = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jax_backtester",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a completed backtest run.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// TradesPerRun observes the trade count of a completed run.
	TradesPerRun = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jax_backtester",
			Name:      "trades_per_run",
			Help:      "Number of trades produced by a completed backtest run.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"strategy"},
	)

	// NetPnL observes the net P&L of a completed run.
	NetPnL = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jax_backtester",
			Subsystem: "last_run",
			Name:      "net_pnl",
			Help:      "Net P&L of the most recently completed run, by strategy.",
		},
		[]string{"strategy"},
	)
)
