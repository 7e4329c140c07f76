// Package indicators computes the technical indicators the trend-pullback
// strategy reads off a price series: EMA, SMA, RSI, MACD, ATR, Bollinger
// bands, standard deviation and slope. Every function is a pure, stateless
// transform of its input slice — same input, same output, no hidden state
// between calls — and every function returns an empty slice rather than an
// error when it is handed fewer values than its period requires.
package indicators

import "math"

// EMA computes the exponential moving average with smoothing factor
// k = 2/(period+1), seeded by the simple average of the first `period`
// values. Returns len(values)-period+1 points, or nil if there are fewer
// than `period` values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	out = append(out, sum/float64(period))
	for _, price := range values[period:] {
		prev := out[len(out)-1]
		out = append(out, (price-prev)*k+prev)
	}
	return out
}

// SMA computes the simple moving average over a sliding window of `period`
// values using a running sum, so it costs O(n) rather than O(n*period).
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	var windowSum float64
	for _, v := range values[:period] {
		windowSum += v
	}
	out = append(out, windowSum/float64(period))
	for i := period; i < len(values); i++ {
		windowSum += values[i] - values[i-period]
		out = append(out, windowSum/float64(period))
	}
	return out
}

// RSI computes the Relative Strength Index with Wilder smoothing. The first
// value averages the first `period` gains/losses; subsequent values roll
// forward with weight (period-1)/period. Requires more than `period` values
// since it consumes one price to form the first delta.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}
	var avgGain, avgLoss float64
	for _, g := range gains[:period] {
		avgGain += g
	}
	for _, l := range losses[:period] {
		avgLoss += l
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(gains)-period+1)
	out = append(out, rsiFromAvg(avgGain, avgLoss))
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out = append(out, rsiFromAvg(avgGain, avgLoss))
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD computes the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line) and the histogram (MACD minus signal). The three
// returned slices are aligned and the same length; all are nil if there are
// fewer than slow+signal values.
func MACD(values []float64, fast, slow, signal int) (macdLine, signalLine, histogram []float64) {
	if len(values) < slow+signal {
		return nil, nil, nil
	}
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	if len(emaFast) == 0 || len(emaSlow) == 0 {
		return nil, nil, nil
	}
	emaFast = emaFast[len(emaFast)-len(emaSlow):]
	macdLine = make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macdLine, signal)
	if len(signalLine) == 0 {
		return nil, nil, nil
	}
	macdLine = macdLine[len(macdLine)-len(signalLine):]
	histogram = make([]float64, len(signalLine))
	for i := range signalLine {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}

// ATR computes the Average True Range with Wilder smoothing. True range on
// bar i is max(high-low, |high-prevClose|, |low-prevClose|); the first ATR
// value is the plain average of the first `period` true ranges, after which
// each new value rolls forward with weight (period-1)/period.
func ATR(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return nil
	}
	trs := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		highLow := highs[i] - lows[i]
		highPrevClose := math.Abs(highs[i] - closes[i-1])
		lowPrevClose := math.Abs(lows[i] - closes[i-1])
		trs[i-1] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	out := make([]float64, 0, len(trs)-period+1)
	var sum float64
	for _, tr := range trs[:period] {
		sum += tr
	}
	prev := sum / float64(period)
	out = append(out, prev)
	for i := period; i < len(trs); i++ {
		prev = (prev*float64(period-1) + trs[i]) / float64(period)
		out = append(out, prev)
	}
	return out
}

// Bollinger computes the moving-average mid band and upper/lower bands at
// stdDev standard deviations, using population variance over each window.
func Bollinger(values []float64, period int, stdDev float64) (upper, mid, lower []float64) {
	if len(values) < period {
		return nil, nil, nil
	}
	n := len(values) - period + 1
	upper = make([]float64, 0, n)
	mid = make([]float64, 0, n)
	lower = make([]float64, 0, n)
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean, std := meanStdDev(window)
		mid = append(mid, mean)
		upper = append(upper, mean+stdDev*std)
		lower = append(lower, mean-stdDev*std)
	}
	return upper, mid, lower
}

// StdDev computes the population standard deviation over a sliding window
// of `period` values.
func StdDev(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		_, std := meanStdDev(values[i-period+1 : i+1])
		out = append(out, std)
	}
	return out
}

func meanStdDev(window []float64) (mean, std float64) {
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean = sum / float64(len(window))
	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(window))
	return mean, math.Sqrt(variance)
}

// Slope computes the first difference of consecutive values, one shorter
// than the input. Used to read trend direction off an EMA series without
// keeping a second smoothing pass alive.
func Slope(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}
