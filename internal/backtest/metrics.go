package backtest

import (
	"math"

	"jax-backtester/internal/domain"
)

// Metrics summarizes a completed run: realized performance from the trade
// log, plus drawdown read off the equity curve.
type Metrics struct {
	NetPnL          float64
	WinRate         float64
	Expectancy      float64
	MaxDrawdown     float64
	ProfitFactor    float64
	Trades          int
	MaxLosingStreak int
	AvgWin          float64
	AvgLoss         float64
}

// ComputeMetrics derives Metrics from a trade log and its equity curve.
// ProfitFactor is +Inf when there were no losing trades; Metrics.MarshalJSON
// renders that as the string "inf", since JSON has no literal for infinity.
func ComputeMetrics(trades []domain.Trade, equityCurve []float64) Metrics {
	var wins, losses []domain.Trade
	var netPnL float64
	for _, t := range trades {
		netPnL += t.PnL
		if t.PnL > 0 {
			wins = append(wins, t)
		} else {
			losses = append(losses, t)
		}
	}

	count := len(trades)
	var winRate, lossRate float64
	if count > 0 {
		winRate = float64(len(wins)) / float64(count)
		lossRate = float64(len(losses)) / float64(count)
	}

	avgWin := average(wins)
	avgLoss := average(losses)
	expectancy := avgWin*winRate + avgLoss*lossRate

	grossProfit := sumPnL(wins)
	grossLoss := -sumPnL(losses)
	profitFactor := math.Inf(1)
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}

	return Metrics{
		NetPnL:          netPnL,
		WinRate:         winRate,
		Expectancy:      expectancy,
		MaxDrawdown:     maxDrawdown(equityCurve),
		ProfitFactor:    profitFactor,
		Trades:          count,
		MaxLosingStreak: maxConsecutiveLosses(trades),
		AvgWin:          avgWin,
		AvgLoss:         avgLoss,
	}
}

func average(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	return sumPnL(trades) / float64(len(trades))
}

func sumPnL(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.PnL
	}
	return sum
}

// maxDrawdown tracks the running peak of the equity curve and returns the
// largest fractional decline from that peak observed anywhere in the curve.
func maxDrawdown(equityCurve []float64) float64 {
	if len(equityCurve) == 0 {
		return 0
	}
	peak := equityCurve[0]
	var maxDD float64
	for _, v := range equityCurve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func maxConsecutiveLosses(trades []domain.Trade) int {
	var maxStreak, current int
	for _, t := range trades {
		if t.PnL <= 0 {
			current++
			if current > maxStreak {
				maxStreak = current
			}
		} else {
			current = 0
		}
	}
	return maxStreak
}
