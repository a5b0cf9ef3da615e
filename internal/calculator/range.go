package calculator

import (
	"math"

	"CoinCast/internal/model"
)

// highLow scans bars and returns the highest high and lowest low.
func highLow(bars []model.OHLCV) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// midpoints returns (highest high + lowest low)/2 over each window of n bars.
// Warm-up n-1.
func midpoints(bars []model.OHLCV, n int) []float64 {
	if n <= 0 || len(bars) < n {
		return nil
	}
	out := make([]float64, len(bars)-n+1)
	for i := range out {
		h, l := highLow(bars[i : i+n])
		out[i] = (h + l) / 2
	}
	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) for
// every bar after the first.
func TrueRange(bars []model.OHLCV) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		out[i-1] = math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-prevClose), math.Abs(bars[i].Low-prevClose)))
	}
	return out
}
