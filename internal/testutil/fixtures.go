package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"jax-backtester/internal/domain"
)

// LoadFixture reads testdata/fixtures/<name> relative to the calling test
// file's directory, so fixtures resolve correctly no matter the working
// directory `go test` was invoked from.
func LoadFixture(t *testing.T, name string) []byte {
	t.Helper()
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatalf("fixtures: unable to resolve caller path")
	}
	path := filepath.Join(filepath.Dir(file), "testdata", "fixtures", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("fixtures: read %s: %v", path, err)
	}
	return raw
}

// MakeCandles builds a candle series for tests: each candle's high/low sit
// one percent above/below its close, timestamps start at 1700000000 and
// advance by 60 seconds — the same shape the original test suite's
// _make_candles helper produced.
func MakeCandles(prices []float64) []domain.Candle {
	candles := make([]domain.Candle, len(prices))
	for i, price := range prices {
		candles[i] = domain.Candle{
			Timestamp: 1700000000 + int64(i)*60,
			Open:      price,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles
}
