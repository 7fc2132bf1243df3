package calculator

import (
	"errors"

	"MarketDash/internal/model"
)

// CalculateRSI computes the Wilder-smoothed RSI of the last bar.
// Requires at least period+1 bars. Returns 50.0 if data is insufficient.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 50.0, nil
	}
	series := RSI(extractCloses(bars), period)
	return series[len(series)-1], nil
}

// RSI returns the relative strength index for every row.
//
// Gains and losses are smoothed with an exponential average of alpha 1/window that is seeded at
// row 0 with a zero change, so the first defined row is window-1. When the average loss is zero
// the index is 100.
func RSI(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = Undefined
	}
	if window <= 0 || len(closes) < window {
		return out
	}

	alpha := 1.0 / float64(window)
	var avgGain, avgLoss float64
	for i := range closes {
		gain, loss := 0.0, 0.0
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else if change < 0 {
				loss = -change
			}
		}
		if i == 0 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		if i < window-1 {
			continue
		}
		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
