// Package marketdata loads candle series from the one external input format
// the backtester accepts: a header-driven CSV of OHLCV bars.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"jax-backtester/internal/domain"
)

// InputError reports a malformed bar file: an unparsable row or timestamps
// that run backwards. It is always the caller's fault, never the engine's —
// the engine never sees a series until it has already passed this check.
type InputError struct {
	Path string
	Row  int
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("marketdata: %s row %d: %v", e.Path, e.Row, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// LoadCSV reads a bar file with header columns timestamp, open, high, low,
// close and an optional volume (defaulting to 0), and returns it as a
// MarketSeries for symbol. Rows are consumed in file order and must be
// monotonically non-decreasing by timestamp.
func LoadCSV(path, symbol string) (domain.MarketSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.MarketSeries{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return domain.MarketSeries{}, &InputError{Path: path, Row: 0, Err: err}
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := col[required]; !ok {
			return domain.MarketSeries{}, &InputError{Path: path, Row: 0, Err: fmt.Errorf("missing column %q", required)}
		}
	}
	volCol, hasVolume := col["volume"]

	var candles []domain.Candle
	var prevTimestamp int64
	rowNum := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.MarketSeries{}, &InputError{Path: path, Row: rowNum, Err: err}
		}
		rowNum++

		candle, err := parseRow(record, col, volCol, hasVolume)
		if err != nil {
			return domain.MarketSeries{}, &InputError{Path: path, Row: rowNum, Err: err}
		}
		if len(candles) > 0 && candle.Timestamp < prevTimestamp {
			return domain.MarketSeries{}, &InputError{Path: path, Row: rowNum, Err: fmt.Errorf("timestamp %d precedes previous %d", candle.Timestamp, prevTimestamp)}
		}
		prevTimestamp = candle.Timestamp
		candles = append(candles, candle)
	}

	return domain.MarketSeries{Symbol: symbol, Candles: candles}, nil
}

func parseRow(record []string, col map[string]int, volCol int, hasVolume bool) (domain.Candle, error) {
	ts, err := strconv.ParseInt(record[col["timestamp"]], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("timestamp: %w", err)
	}
	open, err := strconv.ParseFloat(record[col["open"]], 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("open: %w", err)
	}
	high, err := strconv.ParseFloat(record[col["high"]], 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("high: %w", err)
	}
	low, err := strconv.ParseFloat(record[col["low"]], 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("low: %w", err)
	}
	close, err := strconv.ParseFloat(record[col["close"]], 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("close: %w", err)
	}
	var volume float64
	if hasVolume && record[volCol] != "" {
		volume, err = strconv.ParseFloat(record[volCol], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("volume: %w", err)
		}
	}
	return domain.Candle{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}, nil
}
