// Package config defines the parameter record a backtest run is requested
// with, and validates it before any component is constructed.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConfigurationError wraps a validation failure raised while constructing a
// run from a BacktestRequest. It is always raised before the engine sees a
// single bar — never mid-run.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: invalid backtest request: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// BacktestRequest is the external parameter record a caller (CLI or
// embedder) supplies to run one backtest. Field names mirror the CLI flags
// 1:1.
type BacktestRequest struct {
	Symbol               string  `validate:"required"`
	CSVPath              string  `validate:"required"`
	InitialCapital       float64 `validate:"gt=0"`
	FeeRate              float64 `validate:"gte=0"`
	SlippagePct          float64 `validate:"gte=0"`
	SpreadPct            float64 `validate:"gte=0"`
	LatencyBars          int     `validate:"gte=0"`
	RiskPerTrade         float64 `validate:"gt=0,lte=1"`
	MaxDrawdown          float64 `validate:"gt=0,lte=1"`
	MaxConsecutiveLosses int     `validate:"gte=1"`
	AllowShort           bool
}

// DefaultBacktestRequest returns a request carrying the same defaults as the
// CLI flags, with Symbol and CSVPath left for the caller to fill in.
func DefaultBacktestRequest() BacktestRequest {
	return BacktestRequest{
		InitialCapital:       10000.0,
		FeeRate:              0.001,
		SlippagePct:          0.0005,
		SpreadPct:            0.0004,
		LatencyBars:          1,
		RiskPerTrade:         0.01,
		MaxDrawdown:          0.2,
		MaxConsecutiveLosses: 4,
	}
}

// Validate checks every field's constraint and returns a ConfigurationError
// describing every violation found.
func (r BacktestRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ConfigurationError{Err: err}
	}
	return nil
}
