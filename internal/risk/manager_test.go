package risk

import (
	"testing"

	"jax-backtester/internal/domain"
)

func TestCanOpenTradeRejectsOnDrawdown(t *testing.T) {
	m := NewManager(DefaultConfig())
	p := domain.NewPortfolioState(10000)
	p.Drawdown = 0.2
	if m.CanOpenTrade(p) {
		t.Error("expected CanOpenTrade to reject at drawdown ceiling")
	}
}

func TestCanOpenTradeRejectsOnLossStreak(t *testing.T) {
	m := NewManager(DefaultConfig())
	p := domain.NewPortfolioState(10000)
	p.ConsecutiveLosses = 4
	if m.CanOpenTrade(p) {
		t.Error("expected CanOpenTrade to reject at loss-streak ceiling")
	}
}

func TestCanOpenTradeRejectsWhenPositionOpen(t *testing.T) {
	m := NewManager(DefaultConfig())
	p := domain.NewPortfolioState(10000)
	p.OpenPosition = &domain.Position{Symbol: "BTC/USDT"}
	if m.CanOpenTrade(p) {
		t.Error("expected CanOpenTrade to reject with max_positions already open")
	}
}

func TestCanOpenTradeAllowsCleanPortfolio(t *testing.T) {
	m := NewManager(DefaultConfig())
	p := domain.NewPortfolioState(10000)
	if !m.CanOpenTrade(p) {
		t.Error("expected CanOpenTrade to allow a clean portfolio")
	}
}

func TestSizePosition(t *testing.T) {
	m := NewManager(DefaultConfig())
	intent := domain.OrderIntent{ReferencePrice: 100, StopLoss: 95}
	got := m.SizePosition(10000, intent)
	want := (10000 * 0.01) / 5
	if got != want {
		t.Errorf("SizePosition = %v, want %v", got, want)
	}
}

func TestSizePositionZeroStopDistance(t *testing.T) {
	m := NewManager(DefaultConfig())
	intent := domain.OrderIntent{ReferencePrice: 100, StopLoss: 100}
	if got := m.SizePosition(10000, intent); got != 0 {
		t.Errorf("SizePosition with zero stop distance = %v, want 0", got)
	}
}

func TestExposureOK(t *testing.T) {
	m := NewManager(DefaultConfig())
	if !m.ExposureOK(10000, 40, 100) {
		t.Error("expected 40% exposure to pass a 50% ceiling")
	}
	if m.ExposureOK(10000, 60, 100) {
		t.Error("expected 60% exposure to fail a 50% ceiling")
	}
}

func TestExposureOKNonPositiveEquity(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m.ExposureOK(0, 1, 100) {
		t.Error("expected zero equity to never be exposure-ok")
	}
}
