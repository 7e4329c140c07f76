package backtest

import (
	"encoding/json"
	"math"
)

// Payload is the JSON shape printed by cmd/backtest: the trade log, the
// summary metrics, and any diagnostic warnings. It deliberately excludes
// the equity curve and run bookkeeping (RunID/Seed/RunAt) from the printed
// contract — those are operational detail, not the result itself.
type Payload struct {
	Metrics  Metrics        `json:"metrics"`
	Trades   []TradePayload `json:"trades"`
	Warnings []string       `json:"warnings"`
}

// TradePayload mirrors domain.Trade with JSON field names matching the
// external schema rather than Go's exported-field convention.
type TradePayload struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   float64 `json:"quantity"`
	EntryTime  int64   `json:"entry_time"`
	ExitTime   int64   `json:"exit_time"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
	FeesPaid   float64 `json:"fees_paid"`
	ExitReason string  `json:"exit_reason"`
}

// NewPayload builds the printable result from a completed run.
func NewPayload(result Result) Payload {
	trades := make([]TradePayload, len(result.Trades))
	for i, t := range result.Trades {
		trades[i] = TradePayload{
			Symbol:     t.Symbol,
			Side:       string(t.Side),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Quantity:   t.Quantity,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			PnL:        t.PnL,
			ReturnPct:  t.ReturnPct,
			FeesPaid:   t.FeesPaid,
			ExitReason: t.ExitReason,
		}
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Payload{Metrics: result.Metrics, Trades: trades, Warnings: warnings}
}

// metricsJSON mirrors Metrics but carries ProfitFactor as a json.Number-like
// field so +Inf can be represented — encoding/json refuses to marshal a
// float64 that is infinite.
type metricsJSON struct {
	NetPnL          float64 `json:"net_pnl"`
	WinRate         float64 `json:"win_rate"`
	Expectancy      float64 `json:"expectancy"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	ProfitFactor    any     `json:"profit_factor"`
	Trades          int     `json:"trades"`
	MaxLosingStreak int     `json:"max_losing_streak"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
}

// MarshalJSON renders ProfitFactor as the string "inf" when it is +Inf,
// since JSON has no literal for infinity.
func (m Metrics) MarshalJSON() ([]byte, error) {
	var pf any = m.ProfitFactor
	if math.IsInf(m.ProfitFactor, 1) {
		pf = "inf"
	} else if math.IsInf(m.ProfitFactor, -1) {
		pf = "-inf"
	}
	return json.Marshal(metricsJSON{
		NetPnL:          m.NetPnL,
		WinRate:         m.WinRate,
		Expectancy:      m.Expectancy,
		MaxDrawdown:     m.MaxDrawdown,
		ProfitFactor:    pf,
		Trades:          m.Trades,
		MaxLosingStreak: m.MaxLosingStreak,
		AvgWin:          m.AvgWin,
		AvgLoss:         m.AvgLoss,
	})
}
