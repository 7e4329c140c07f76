package strategy

import (
	"context"
	"math"

	"jax-backtester/internal/domain"
	"jax-backtester/internal/indicators"
)

// TrendPullbackConfig tunes the regime filter, momentum confirmation and
// stop placement of TrendPullbackStrategy. Defaults match a daily-bar swing
// setup: a 20/50 EMA regime, a 14-period RSI/ATR, and a 2:1 reward-to-risk
// target.
type TrendPullbackConfig struct {
	EMAFast          int
	EMASlow          int
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	ATRPeriod        int
	SwingLookback    int
	PullbackTolerance float64
	ATRStopMult      float64
	RRRatio          float64
	MinATRPct        float64
	MaxATRPct        float64
	MinRSILong       float64
	MaxRSIShort      float64
}

// DefaultTrendPullbackConfig returns the tuning the reference CLI ships
// with.
func DefaultTrendPullbackConfig() TrendPullbackConfig {
	return TrendPullbackConfig{
		EMAFast:           20,
		EMASlow:           50,
		RSIPeriod:         14,
		MACDFast:          12,
		MACDSlow:          26,
		MACDSignal:        9,
		ATRPeriod:         14,
		SwingLookback:     10,
		PullbackTolerance: 0.003,
		ATRStopMult:       1.6,
		RRRatio:           2.0,
		MinATRPct:         0.002,
		MaxATRPct:         0.08,
		MinRSILong:        52.0,
		MaxRSIShort:       48.0,
	}
}

// TrendPullbackStrategy trades pullbacks into a established EMA trend,
// confirmed by RSI and MACD histogram momentum, with an ATR-floored
// swing stop and a fixed reward-to-risk target. It exits on thesis break:
// price crossing back through the slow EMA, or momentum flipping sign.
type TrendPullbackStrategy struct {
	cfg TrendPullbackConfig
}

// NewTrendPullbackStrategy builds a TrendPullbackStrategy from cfg.
func NewTrendPullbackStrategy(cfg TrendPullbackConfig) *TrendPullbackStrategy {
	return &TrendPullbackStrategy{cfg: cfg}
}

// MinBars is the largest of the lookbacks each indicator needs, plus the
// extra bar every one of them consumes to produce a slope or a delta.
func (s *TrendPullbackStrategy) MinBars() int {
	c := s.cfg
	minBars := c.EMASlow + 2
	if v := c.ATRPeriod + 2; v > minBars {
		minBars = v
	}
	if v := c.MACDSlow + c.MACDSignal + 2; v > minBars {
		minBars = v
	}
	if v := c.RSIPeriod + 2; v > minBars {
		minBars = v
	}
	if v := c.SwingLookback + 2; v > minBars {
		minBars = v
	}
	return minBars
}

func (s *TrendPullbackStrategy) Evaluate(_ context.Context, market domain.MarketSeries, position *domain.Position, _ domain.PortfolioState) domain.StrategyDecision {
	candles := market.Candles
	if len(candles) < s.MinBars() {
		return hold("insufficient_data")
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	last := candles[len(candles)-1]

	emaFast := indicators.EMA(closes, s.cfg.EMAFast)
	emaSlow := indicators.EMA(closes, s.cfg.EMASlow)
	if len(emaFast) == 0 || len(emaSlow) == 0 {
		return hold("ema_unavailable")
	}
	emaFastLast := emaFast[len(emaFast)-1]
	emaSlowLast := emaSlow[len(emaSlow)-1]
	var emaSlowSlope float64
	if slopes := indicators.Slope(emaSlow); len(slopes) > 0 {
		emaSlowSlope = slopes[len(slopes)-1]
	}

	trendBull := emaFastLast > emaSlowLast && emaSlowSlope > 0
	trendBear := emaFastLast < emaSlowLast && emaSlowSlope < 0

	atrValues := indicators.ATR(highs, lows, closes, s.cfg.ATRPeriod)
	if len(atrValues) == 0 {
		return hold("atr_unavailable")
	}
	atrLast := atrValues[len(atrValues)-1]
	var atrPct float64
	if last.Close > 0 {
		atrPct = atrLast / last.Close
	}
	if atrPct < s.cfg.MinATRPct || atrPct > s.cfg.MaxATRPct {
		return hold("volatility_filter")
	}

	rsiValues := indicators.RSI(closes, s.cfg.RSIPeriod)
	if len(rsiValues) < 2 {
		return hold("rsi_unavailable")
	}
	rsiLast := rsiValues[len(rsiValues)-1]
	rsiPrev := rsiValues[len(rsiValues)-2]

	_, _, macdHist := indicators.MACD(closes, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)
	if len(macdHist) < 2 {
		return hold("macd_unavailable")
	}
	histLast := macdHist[len(macdHist)-1]
	histPrev := macdHist[len(macdHist)-2]

	pullbackBand := s.cfg.PullbackTolerance * last.Close
	nearFast := math.Abs(last.Close-emaFastLast) <= pullbackBand

	if position != nil {
		switch position.Side {
		case domain.Buy:
			if last.Close < emaSlowLast || histLast < 0 {
				return domain.StrategyDecision{Action: domain.DecisionExit, Reason: "thesis_failed"}
			}
			return domain.StrategyDecision{Action: domain.DecisionHold, Reason: "in_position"}
		case domain.Sell:
			if last.Close > emaSlowLast || histLast > 0 {
				return domain.StrategyDecision{Action: domain.DecisionExit, Reason: "thesis_failed"}
			}
			return domain.StrategyDecision{Action: domain.DecisionHold, Reason: "in_position"}
		}
	}

	if trendBull && nearFast && histLast > 0 && histLast > histPrev && rsiLast > s.cfg.MinRSILong && rsiLast > rsiPrev {
		stop := s.computeStopLoss(lows, last.Close, atrLast, domain.Buy)
		take := last.Close + (last.Close-stop)*s.cfg.RRRatio
		intent := &domain.OrderIntent{
			Symbol:         market.Symbol,
			Side:           domain.Buy,
			Type:           domain.Market,
			ReferencePrice: last.Close,
			StopLoss:       stop,
			TakeProfit:     take,
			Invalidation:   emaSlowLast,
			CreatedAt:      last.Timestamp,
		}
		return domain.StrategyDecision{
			Action:   domain.DecisionBuy,
			Intent:   intent,
			Reason:   "trend_pullback_long",
			Metadata: map[string]float64{"atr": atrLast, "rsi": rsiLast},
		}
	}

	if trendBear && nearFast && histLast < 0 && histLast < histPrev && rsiLast < s.cfg.MaxRSIShort && rsiLast < rsiPrev {
		stop := s.computeStopLoss(highs, last.Close, atrLast, domain.Sell)
		take := last.Close - (stop-last.Close)*s.cfg.RRRatio
		intent := &domain.OrderIntent{
			Symbol:         market.Symbol,
			Side:           domain.Sell,
			Type:           domain.Market,
			ReferencePrice: last.Close,
			StopLoss:       stop,
			TakeProfit:     take,
			Invalidation:   emaSlowLast,
			CreatedAt:      last.Timestamp,
		}
		return domain.StrategyDecision{
			Action:   domain.DecisionSell,
			Intent:   intent,
			Reason:   "trend_pullback_short",
			Metadata: map[string]float64{"atr": atrLast, "rsi": rsiLast},
		}
	}

	return hold("no_setup")
}

// computeStopLoss floors a swing-based stop at atr_stop_mult ATRs away from
// price, so a tight swing never places the stop inside normal noise.
func (s *TrendPullbackStrategy) computeStopLoss(swings []float64, price, atrValue float64, side domain.OrderSide) float64 {
	lookback := swings[len(swings)-s.cfg.SwingLookback:]
	if side == domain.Buy {
		swingLow := lookback[0]
		for _, v := range lookback[1:] {
			if v < swingLow {
				swingLow = v
			}
		}
		floor := price - atrValue*s.cfg.ATRStopMult
		if swingLow < floor {
			return swingLow
		}
		return floor
	}
	swingHigh := lookback[0]
	for _, v := range lookback[1:] {
		if v > swingHigh {
			swingHigh = v
		}
	}
	ceiling := price + atrValue*s.cfg.ATRStopMult
	if swingHigh > ceiling {
		return swingHigh
	}
	return ceiling
}

func hold(reason string) domain.StrategyDecision {
	return domain.StrategyDecision{Action: domain.DecisionHold, Reason: reason}
}
