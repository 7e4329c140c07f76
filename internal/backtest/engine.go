// Package backtest implements the bar-by-bar replay engine: it drives a
// Strategy over a MarketSeries, routes its decisions through a risk.Manager
// and an execution.Model, and keeps the single source of truth for
// portfolio state. Strategy and risk never mutate the portfolio directly —
// only the engine does.
package backtest

import (
	"context"

	"jax-backtester/internal/domain"
	"jax-backtester/internal/execution"
	"jax-backtester/internal/risk"
	"jax-backtester/internal/strategy"
)

const (
	reasonSignalEntry = "signal_entry"
	reasonSignalExit  = "signal_exit"
)

// Config tunes the engine's own behavior, as opposed to the risk, execution
// or strategy config each component owns.
type Config struct {
	InitialCapital float64 `validate:"gt=0"`
	AllowShort     bool
	// MinBars raises the warm-up above the strategy's own MinBars when it is
	// larger; zero (or a smaller value) leaves the strategy's warm-up in effect.
	MinBars int
}

// DefaultConfig returns the engine's default policy: $10,000 starting
// capital, shorting allowed, warm-up taken from the strategy. The CLI
// replaces InitialCapital and AllowShort with its flag values, and its
// --allow-short flag defaults to false.
func DefaultConfig() Config {
	return Config{InitialCapital: 10000, AllowShort: true}
}

// Result is everything a completed run produced.
type Result struct {
	Trades      []domain.Trade
	Metrics     Metrics
	EquityCurve []float64
	Warnings    []string
}

// Engine owns the portfolio state machine and the pending-order queue. It
// is single-use: construct one per Run via NewEngine.
type Engine struct {
	strategy  strategy.Strategy
	risk      *risk.Manager
	execution *execution.Model
	cfg       Config
}

// NewEngine wires a strategy against a risk manager and execution model.
func NewEngine(strat strategy.Strategy, riskMgr *risk.Manager, exec *execution.Model, cfg Config) *Engine {
	return &Engine{strategy: strat, risk: riskMgr, execution: exec, cfg: cfg}
}

type pendingOrder struct {
	execIndex int
	intent    domain.OrderIntent
	reason    string
}

// Run replays series bar by bar and returns the completed trade log, equity
// curve and metrics. An empty series is a legitimate input: it produces an
// empty result carrying the "no_data" warning, not an error.
func (e *Engine) Run(ctx context.Context, series domain.MarketSeries) Result {
	if len(series.Candles) == 0 {
		return Result{Metrics: ComputeMetrics(nil, nil), Warnings: []string{"no_data"}}
	}

	minBars := e.strategy.MinBars()
	if e.cfg.MinBars > minBars {
		minBars = e.cfg.MinBars
	}

	portfolio := domain.NewPortfolioState(e.cfg.InitialCapital)
	var trades []domain.Trade
	var equityCurve []float64
	var pending []pendingOrder

	for idx := minBars; idx < len(series.Candles); idx++ {
		candle := series.Candles[idx]

		pending, trades = e.executePendingOrders(idx, candle, &portfolio, trades, pending)

		if portfolio.OpenPosition != nil {
			if trade, ok := e.checkStopTake(candle, portfolio.OpenPosition); ok {
				e.closePosition(&portfolio, trade)
				trades = append(trades, trade)
			}
		}

		view := series.Slice(idx + 1)
		decision := e.strategy.Evaluate(ctx, view, portfolio.OpenPosition, portfolio)

		switch decision.Action {
		case domain.DecisionExit:
			if portfolio.OpenPosition != nil {
				intent := e.createExitIntent(portfolio.OpenPosition, candle)
				pending = append(pending, pendingOrder{
					execIndex: e.execution.ExecutionIndex(idx),
					intent:    intent,
					reason:    reasonSignalExit,
				})
			}
		case domain.DecisionBuy, domain.DecisionSell:
			if portfolio.OpenPosition == nil {
				if decision.Action == domain.DecisionSell && !e.cfg.AllowShort {
					break
				}
				if intent, ok := e.sizeIntent(decision, portfolio); ok && e.risk.CanOpenTrade(portfolio) {
					pending = append(pending, pendingOrder{
						execIndex: e.execution.ExecutionIndex(idx),
						intent:    intent,
						reason:    reasonSignalEntry,
					})
				}
			}
		}

		e.updateEquity(&portfolio, candle)
		equityCurve = append(equityCurve, portfolio.Equity)
	}

	metrics := ComputeMetrics(trades, equityCurve)
	warnings := evaluateWarnings(trades, equityCurve, series)
	return Result{Trades: trades, Metrics: metrics, EquityCurve: equityCurve, Warnings: warnings}
}

// executePendingOrders fills every order scheduled for index, in the order
// it was submitted, and returns the (possibly shrunk) queue and (possibly
// grown) trade log.
func (e *Engine) executePendingOrders(index int, candle domain.Candle, portfolio *domain.PortfolioState, trades []domain.Trade, pending []pendingOrder) ([]pendingOrder, []domain.Trade) {
	if len(pending) == 0 {
		return pending, trades
	}
	var remaining []pendingOrder
	for _, order := range pending {
		if order.execIndex != index {
			remaining = append(remaining, order)
			continue
		}
		fill := e.execution.FillOrder(order.intent, candle)
		if fill == nil {
			continue
		}
		switch {
		case portfolio.OpenPosition != nil && order.reason == reasonSignalExit:
			trade := e.buildTradeFromFill(portfolio.OpenPosition, fill, order.reason)
			e.closePosition(portfolio, trade)
			trades = append(trades, trade)
		case portfolio.OpenPosition == nil && order.reason == reasonSignalEntry:
			position := &domain.Position{
				Symbol:     fill.Symbol,
				Side:       fill.Side,
				EntryPrice: fill.Price,
				Quantity:   fill.Quantity,
				StopLoss:   order.intent.StopLoss,
				TakeProfit: order.intent.TakeProfit,
				OpenedAt:   fill.FilledAt,
				FeesPaid:   fill.Fee,
			}
			e.applyEntryCash(portfolio, position)
			portfolio.OpenPosition = position
		}
	}
	return remaining, trades
}

// checkStopTake resolves an intrabar stop/take hit against the current
// position. When both trigger on the same bar the stop wins — the engine
// never infers intrabar path, so it always assumes the adverse outcome.
func (e *Engine) checkStopTake(candle domain.Candle, position *domain.Position) (domain.Trade, bool) {
	var hitStop, hitTake bool
	var exitPrice float64
	var reason string

	if position.Side == domain.Buy {
		hitStop = candle.Low <= position.StopLoss
		hitTake = candle.High >= position.TakeProfit
	} else {
		hitStop = candle.High >= position.StopLoss
		hitTake = candle.Low <= position.TakeProfit
	}
	switch {
	case hitStop:
		exitPrice, reason = position.StopLoss, domain.ExitStopLoss
	case hitTake:
		exitPrice, reason = position.TakeProfit, domain.ExitTakeProfit
	default:
		return domain.Trade{}, false
	}

	exitSide := domain.Sell
	if position.Side == domain.Sell {
		exitSide = domain.Buy
	}
	exitPrice = e.execution.ApplySpreadSlippage(exitPrice, exitSide)
	fee := e.execution.Fee(exitPrice, position.Quantity)

	trade := e.buildTrade(position, exitPrice, candle.Timestamp, fee, reason)
	position.ExitPrice = exitPrice
	position.ClosedAt = candle.Timestamp
	position.RealizedPnL = trade.PnL
	return trade, true
}

func (e *Engine) sizeIntent(decision domain.StrategyDecision, portfolio domain.PortfolioState) (domain.OrderIntent, bool) {
	if decision.Intent == nil {
		return domain.OrderIntent{}, false
	}
	intent := *decision.Intent
	quantity := e.risk.SizePosition(portfolio.Equity, intent)
	if quantity <= 0 {
		return domain.OrderIntent{}, false
	}
	if !e.risk.ExposureOK(portfolio.Equity, quantity, intent.ReferencePrice) {
		return domain.OrderIntent{}, false
	}
	intent.Quantity = quantity
	return intent, true
}

func (e *Engine) createExitIntent(position *domain.Position, candle domain.Candle) domain.OrderIntent {
	side := domain.Sell
	if position.Side == domain.Sell {
		side = domain.Buy
	}
	return domain.OrderIntent{
		Symbol:         position.Symbol,
		Side:           side,
		Type:           domain.Market,
		Quantity:       position.Quantity,
		ReferencePrice: candle.Close,
		CreatedAt:      candle.Timestamp,
	}
}

// applyEntryCash charges cash for a BUY (notional plus fee) or credits it
// for a SELL's short-sale proceeds (notional minus fee).
func (e *Engine) applyEntryCash(portfolio *domain.PortfolioState, position *domain.Position) {
	notional := position.EntryPrice * position.Quantity
	if position.Side == domain.Buy {
		portfolio.Cash -= notional + position.FeesPaid
	} else {
		portfolio.Cash += notional - position.FeesPaid
	}
}

// closePosition settles a trade's cash impact, updates the loss-streak
// counter and clears the open position. The cash delta nets out the trade's
// total fees against the entry fee already charged, so a fee is never
// double-counted.
func (e *Engine) closePosition(portfolio *domain.PortfolioState, trade domain.Trade) {
	position := portfolio.OpenPosition
	notional := trade.ExitPrice * trade.Quantity
	feeDelta := trade.FeesPaid - position.FeesPaid
	if position.Side == domain.Buy {
		portfolio.Cash += notional - feeDelta
	} else {
		portfolio.Cash -= notional + feeDelta
	}
	position.FeesPaid = trade.FeesPaid
	portfolio.RealizedPnL += trade.PnL
	if trade.PnL <= 0 {
		portfolio.ConsecutiveLosses++
	} else {
		portfolio.ConsecutiveLosses = 0
	}
	portfolio.OpenPosition = nil
}

func (e *Engine) updateEquity(portfolio *domain.PortfolioState, candle domain.Candle) {
	if pos := portfolio.OpenPosition; pos != nil {
		if pos.Side == domain.Buy {
			portfolio.Equity = portfolio.Cash + pos.Quantity*candle.Close
		} else {
			portfolio.Equity = portfolio.Cash - pos.Quantity*candle.Close
		}
	} else {
		portfolio.Equity = portfolio.Cash
	}
	if portfolio.Equity > portfolio.PeakEquity {
		portfolio.PeakEquity = portfolio.Equity
	}
	if portfolio.PeakEquity > 0 {
		portfolio.Drawdown = (portfolio.PeakEquity - portfolio.Equity) / portfolio.PeakEquity
	}
}

func (e *Engine) buildTradeFromFill(position *domain.Position, fill *domain.OrderFill, reason string) domain.Trade {
	return e.buildTrade(position, fill.Price, fill.FilledAt, fill.Fee, reason)
}

func (e *Engine) buildTrade(position *domain.Position, exitPrice float64, exitTime int64, exitFee float64, reason string) domain.Trade {
	var pnl float64
	if position.Side == domain.Buy {
		pnl = (exitPrice-position.EntryPrice)*position.Quantity - (position.FeesPaid + exitFee)
	} else {
		pnl = (position.EntryPrice-exitPrice)*position.Quantity - (position.FeesPaid + exitFee)
	}
	var returnPct float64
	if position.EntryPrice > 0 {
		returnPct = pnl / (position.EntryPrice * position.Quantity)
	}
	return domain.Trade{
		Symbol:     position.Symbol,
		Side:       position.Side,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   position.Quantity,
		EntryTime:  position.OpenedAt,
		ExitTime:   exitTime,
		PnL:        pnl,
		ReturnPct:  returnPct,
		FeesPaid:   position.FeesPaid + exitFee,
		ExitReason: reason,
	}
}

// Warning codes evaluateWarnings may attach to a Result.
const (
	WarnNoTrades      = "no_trades"
	WarnOvertrading   = "overtrading"
	WarnFlatEquity    = "flat_equity"
	WarnNoEquityCurve = "no_equity_curve"
	WarnExtremeReturns = "extreme_returns"
)

// evaluateWarnings flags shapes of a run that merit a second look: an empty
// trade log, a trading frequency that implies the strategy is scalping
// noise, an equity curve that never moved, or a single trade whose absolute
// return exceeds 100%.
func evaluateWarnings(trades []domain.Trade, equityCurve []float64, series domain.MarketSeries) []string {
	if len(trades) == 0 {
		return []string{WarnNoTrades}
	}

	var warnings []string
	first := series.Candles[0].Timestamp
	last := series.Candles[len(series.Candles)-1].Timestamp
	days := float64(last-first) / 86400
	if days < 1 {
		days = 1
	}
	tradesPerDay := float64(len(trades)) / days
	if tradesPerDay > 10 {
		warnings = append(warnings, WarnOvertrading)
	}

	if len(equityCurve) > 0 {
		min, max := equityCurve[0], equityCurve[0]
		for _, v := range equityCurve {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if min == max {
			warnings = append(warnings, WarnFlatEquity)
		}
	} else {
		warnings = append(warnings, WarnNoEquityCurve)
	}

	for _, t := range trades {
		if t.ReturnPct > 1.0 || t.ReturnPct < -1.0 {
			warnings = append(warnings, WarnExtremeReturns)
			break
		}
	}

	return warnings
}
