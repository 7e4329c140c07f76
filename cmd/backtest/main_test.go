package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCandlesCSV(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "candles.csv")

	var buf bytes.Buffer
	buf.WriteString("timestamp,open,high,low,close,volume\n")
	price := 100.0
	for i := 0; i < 80; i++ {
		price += 0.5
		ts := 1700000000 + int64(i)*60
		fmt.Fprintf(&buf, "%d,%.2f,%.2f,%.2f,%.2f,1000\n", ts, price, price*1.01, price*0.99, price)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// captureStdout hands fn the write end of a pipe to use as its stdout and
// returns what fn wrote to it.
func captureStdout(t *testing.T, fn func(stdout *os.File)) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	fn(w)
	w.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}

func TestRunPrintsMetricsTradesWarnings(t *testing.T) {
	csvPath := writeCandlesCSV(t)

	var exitCode int
	var devnull *os.File
	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnull.Close()

	out := captureStdout(t, func(stdout *os.File) {
		exitCode = run([]string{
			"--symbol", "BTC/USDT",
			"--csv", csvPath,
		}, stdout, devnull)
	})

	require.Equal(t, 0, exitCode)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Contains(t, payload, "metrics")
	assert.Contains(t, payload, "trades")
	assert.Contains(t, payload, "warnings")

	metrics, ok := payload["metrics"].(map[string]any)
	require.True(t, ok, "metrics must decode as an object")
	assert.Contains(t, metrics, "profit_factor")
}

func TestRunRejectsMissingSymbol(t *testing.T) {
	csvPath := writeCandlesCSV(t)

	devnullOut, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnullOut.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	exitCode := run([]string{"--csv", csvPath}, devnullOut, w)
	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, buf.String(), "invalid backtest request")
}

func TestRunRejectsMissingCSVFile(t *testing.T) {
	devnullOut, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnullOut.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	exitCode := run([]string{"--symbol", "BTC/USDT", "--csv", "/nonexistent/path.csv"}, devnullOut, w)
	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	assert.Equal(t, 1, exitCode)
	assert.NotEmpty(t, buf.String())
}
