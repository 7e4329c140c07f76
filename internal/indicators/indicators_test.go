package indicators

import (
	"fmt"
	"math"
	"testing"
)

func closeEnough(t *testing.T, got, want, tolerance float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s: got %v, want %v (tolerance %v)", label, got, want, tolerance)
	}
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got := SMA(values, 3)
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("SMA length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		closeEnough(t, got[i], want[i], 1e-9, "SMA")
	}
}

func TestSMAInsufficientData(t *testing.T) {
	if got := SMA([]float64{1, 2}, 5); got != nil {
		t.Errorf("SMA with insufficient data = %v, want nil", got)
	}
}

func TestEMASeededBySMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	got := EMA(values, 3)
	if len(got) != 4 {
		t.Fatalf("EMA length = %d, want 4", len(got))
	}
	closeEnough(t, got[0], 2.0, 1e-9, "EMA seed")
}

func TestRSIBounds(t *testing.T) {
	values := []float64{44, 44.5, 44.25, 44.8, 45.1, 45.0, 45.5, 46.0, 45.8, 46.2, 46.5, 46.3, 46.8, 47.0, 47.5}
	got := RSI(values, 14)
	if len(got) == 0 {
		t.Fatal("RSI returned no values")
	}
	for _, v := range got {
		if v < 0 || v > 100 {
			t.Errorf("RSI out of bounds: %v", v)
		}
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	values := make([]float64, 16)
	for i := range values {
		values[i] = float64(i)
	}
	got := RSI(values, 14)
	if len(got) == 0 {
		t.Fatal("RSI returned no values")
	}
	closeEnough(t, got[0], 100, 1e-9, "RSI all gains")
}

func TestMACDAlignment(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + float64(i)*0.5
	}
	macdLine, signalLine, hist := MACD(values, 12, 26, 9)
	if len(macdLine) != len(signalLine) || len(signalLine) != len(hist) {
		t.Fatalf("MACD outputs misaligned: %d, %d, %d", len(macdLine), len(signalLine), len(hist))
	}
	for i := range hist {
		closeEnough(t, hist[i], macdLine[i]-signalLine[i], 1e-9, "MACD histogram")
	}
}

func TestMACDInsufficientData(t *testing.T) {
	macdLine, signalLine, hist := MACD([]float64{1, 2, 3}, 12, 26, 9)
	if macdLine != nil || signalLine != nil || hist != nil {
		t.Error("MACD with insufficient data should return nil slices")
	}
}

func TestATRNonNegative(t *testing.T) {
	highs := []float64{10, 11, 10.5, 12, 11.5, 13, 12.5, 14, 13.5, 15, 14.5, 16, 15.5, 17, 16.5}
	lows := []float64{9, 10, 9.5, 11, 10.5, 12, 11.5, 13, 12.5, 14, 13.5, 15, 14.5, 16, 15.5}
	closes := make([]float64, len(highs))
	for i := range closes {
		closes[i] = (highs[i] + lows[i]) / 2
	}
	got := ATR(highs, lows, closes, 14)
	if len(got) == 0 {
		t.Fatal("ATR returned no values")
	}
	for _, v := range got {
		if v < 0 {
			t.Errorf("ATR negative: %v", v)
		}
	}
}

func TestBollingerOrdering(t *testing.T) {
	values := []float64{20, 21, 22, 19, 23, 20, 24, 18, 25, 21, 22, 23, 19, 20, 24, 22, 21, 23, 20, 25}
	upper, mid, lower := Bollinger(values, 20, 2.0)
	if len(upper) != 1 || len(mid) != 1 || len(lower) != 1 {
		t.Fatalf("Bollinger length = %d/%d/%d, want 1/1/1", len(upper), len(mid), len(lower))
	}
	if !(lower[0] <= mid[0] && mid[0] <= upper[0]) {
		t.Errorf("Bollinger bands out of order: lower=%v mid=%v upper=%v", lower[0], mid[0], upper[0])
	}
}

func TestStdDevConstantSeriesIsZero(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	got := StdDev(values, 5)
	if len(got) != 1 {
		t.Fatalf("StdDev length = %d, want 1", len(got))
	}
	closeEnough(t, got[0], 0, 1e-12, "StdDev constant series")
}

func TestSlope(t *testing.T) {
	got := Slope([]float64{1, 3, 2, 5})
	want := []float64{2, -1, 3}
	if len(got) != len(want) {
		t.Fatalf("Slope length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		closeEnough(t, got[i], want[i], 1e-9, "Slope")
	}
}

// TestIndicatorsRestartIdempotent checks the restart property: computing
// EMA on a growing prefix of the series reproduces exactly what the
// full-series computation produces at that same position, one value at a
// time, as though the series were being extended incrementally.
func TestIndicatorsRestartIdempotent(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	period := 3
	full := EMA(values, period)

	for k := period; k <= len(values); k++ {
		prefix := EMA(values[:k], period)
		if len(prefix) == 0 {
			t.Fatalf("EMA(values[:%d], %d) returned no values", k, period)
		}
		got := prefix[len(prefix)-1]
		want := full[len(prefix)-1]
		closeEnough(t, got, want, 1e-9, fmt.Sprintf("EMA restart at prefix length %d", k))
	}
}
