package calculator

import "math"

// EMA returns the exponential moving average with alpha 2/(span+1).
// The average starts at the first defined value and is reported once span defined
// observations have been seen.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = Undefined
	}
	if span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	seen := 0
	avg := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			if seen >= span {
				out[i] = avg
			}
			continue
		}
		if seen == 0 {
			avg = v
		} else {
			avg = (1-alpha)*avg + alpha*v
		}
		seen++
		if seen >= span {
			out[i] = avg
		}
	}
	return out
}

// MACDResult holds the three MACD lines, each aligned with the input.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the fast/slow EMA difference, its signal EMA and the histogram.
// The line is defined from row slow-1 and the signal from row slow+signal-2.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i] // NaN propagates
	}
	sig := EMA(line, signal)
	hist := make([]float64, len(closes))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
