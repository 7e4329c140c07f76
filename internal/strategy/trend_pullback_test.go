package strategy

import (
	"context"
	"testing"

	"jax-backtester/internal/domain"
	"jax-backtester/internal/testutil"
)

func portfolio() domain.PortfolioState {
	return domain.NewPortfolioState(10000)
}

func series(prices []float64) domain.MarketSeries {
	return domain.MarketSeries{Symbol: "BTC/USDT", Candles: testutil.MakeCandles(prices)}
}

func TestEvaluateHoldsWithInsufficientData(t *testing.T) {
	cfg := DefaultTrendPullbackConfig()
	cfg.EMAFast, cfg.EMASlow, cfg.RSIPeriod = 3, 5, 3
	cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal, cfg.ATRPeriod = 3, 5, 2, 3
	s := NewTrendPullbackStrategy(cfg)

	decision := s.Evaluate(context.Background(), series([]float64{100, 101, 102, 103}), nil, portfolio())
	if decision.Action != domain.DecisionHold {
		t.Errorf("action = %v, want HOLD", decision.Action)
	}
}

func TestEvaluateGeneratesLongInTrendPullback(t *testing.T) {
	cfg := DefaultTrendPullbackConfig()
	cfg.EMAFast, cfg.EMASlow, cfg.RSIPeriod = 3, 5, 3
	cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal, cfg.ATRPeriod = 3, 5, 2, 3
	// A single early dip keeps RSI off its 100 ceiling so it is still rising
	// on the last two bars; the accelerating climb afterward keeps the EMA
	// regime bullish and the MACD histogram rising. PullbackTolerance is
	// widened because the fast EMA trails a rapidly accelerating close.
	cfg.PullbackTolerance = 1.0
	cfg.MinRSILong = 0
	s := NewTrendPullbackStrategy(cfg)

	prices := []float64{100, 99, 100, 102, 105, 109, 114, 120, 127, 135, 144, 154, 165, 177, 190, 204, 219, 235}
	decision := s.Evaluate(context.Background(), series(prices), nil, portfolio())
	if decision.Action != domain.DecisionBuy {
		t.Fatalf("action = %v, want BUY", decision.Action)
	}
	if decision.Intent == nil {
		t.Fatal("expected a BUY decision to carry an OrderIntent")
	}
	if decision.Reason != "trend_pullback_long" {
		t.Errorf("Reason = %q, want trend_pullback_long", decision.Reason)
	}
}

func TestEvaluateExitsOnThesisBreak(t *testing.T) {
	cfg := DefaultTrendPullbackConfig()
	cfg.EMAFast, cfg.EMASlow, cfg.RSIPeriod = 3, 5, 3
	cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal, cfg.ATRPeriod = 3, 5, 2, 3
	s := NewTrendPullbackStrategy(cfg)

	prices := []float64{110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100, 99}
	candles := testutil.MakeCandles(prices)
	position := &domain.Position{
		Symbol:     "BTC/USDT",
		Side:       domain.Buy,
		EntryPrice: 110,
		Quantity:   1,
		StopLoss:   100,
		TakeProfit: 130,
		OpenedAt:   candles[0].Timestamp,
	}
	decision := s.Evaluate(context.Background(), domain.MarketSeries{Symbol: "BTC/USDT", Candles: candles}, position, portfolio())
	if decision.Action != domain.DecisionExit {
		t.Fatalf("action = %v, want EXIT", decision.Action)
	}
	if decision.Reason != "thesis_failed" {
		t.Errorf("Reason = %q, want thesis_failed", decision.Reason)
	}
}

func TestMinBarsIsLargestLookback(t *testing.T) {
	cfg := DefaultTrendPullbackConfig()
	s := NewTrendPullbackStrategy(cfg)
	want := cfg.EMASlow + 2
	if got := s.MinBars(); got != want {
		t.Errorf("MinBars = %d, want %d", got, want)
	}
}
