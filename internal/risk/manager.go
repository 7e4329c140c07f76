// Package risk gates and sizes every order the strategy proposes. It never
// touches the portfolio or the market — it only answers three questions:
// can a new trade be opened, how big should it be, and is the resulting
// exposure still within bounds.
package risk

import "jax-backtester/internal/domain"

// Config is the risk policy the engine constructs a Manager from. Defaults
// mirror a conservative single-position policy: 1% risk per trade, a 20%
// drawdown kill switch, and a four-loss cooldown.
type Config struct {
	RiskPerTrade          float64 `validate:"gt=0,lte=1"`
	MaxDrawdown           float64 `validate:"gt=0,lte=1"`
	MaxPositions          int     `validate:"gte=1"`
	MaxExposurePct        float64 `validate:"gt=0,lte=1"`
	MaxConsecutiveLosses int     `validate:"gte=1"`
}

// DefaultConfig returns the policy the reference CLI ships with.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:          0.01,
		MaxDrawdown:           0.2,
		MaxPositions:          1,
		MaxExposurePct:        0.5,
		MaxConsecutiveLosses: 4,
	}
}

// Limits projects Config to the read-only domain.RiskLimits view the engine
// and strategy are allowed to see.
func (c Config) Limits() domain.RiskLimits {
	return domain.RiskLimits{
		RiskPerTrade:          c.RiskPerTrade,
		MaxDrawdown:           c.MaxDrawdown,
		MaxPositions:          c.MaxPositions,
		MaxExposurePct:        c.MaxExposurePct,
		MaxConsecutiveLosses: c.MaxConsecutiveLosses,
	}
}

// Manager enforces a Config against portfolio state and sizes new orders.
// It is stateless beyond its config and safe to share across symbols.
type Manager struct {
	limits domain.RiskLimits
}

// NewManager builds a Manager from a Config.
func NewManager(cfg Config) *Manager {
	return &Manager{limits: cfg.Limits()}
}

// CanOpenTrade reports whether the portfolio is eligible to take on a new
// position: drawdown below the ceiling, loss streak below the ceiling, and
// the open-position count below max_positions.
func (m *Manager) CanOpenTrade(p domain.PortfolioState) bool {
	if p.Drawdown >= m.limits.MaxDrawdown {
		return false
	}
	if p.ConsecutiveLosses >= m.limits.MaxConsecutiveLosses {
		return false
	}
	openCount := 0
	if p.HasOpenPosition() {
		openCount = 1
	}
	return openCount < m.limits.MaxPositions
}

// SizePosition converts a risk budget into a quantity: risk_amount divided
// by the per-unit risk implied by the intent's stop distance. Returns 0 when
// the stop sits on the reference price (no risk to size against).
func (m *Manager) SizePosition(equity float64, intent domain.OrderIntent) float64 {
	riskAmount := equity * m.limits.RiskPerTrade
	riskPerUnit := intent.ReferencePrice - intent.StopLoss
	if riskPerUnit < 0 {
		riskPerUnit = -riskPerUnit
	}
	if riskPerUnit <= 0 {
		return 0
	}
	quantity := riskAmount / riskPerUnit
	if quantity < 0 {
		return 0
	}
	return quantity
}

// ExposureOK reports whether quantity*price stays within max_exposure_pct of
// equity. A non-positive equity is never exposable.
func (m *Manager) ExposureOK(equity, quantity, price float64) bool {
	if equity <= 0 {
		return false
	}
	exposure := (quantity * price) / equity
	return exposure <= m.limits.MaxExposurePct
}
