package calculator

import "CoinCast/internal/model"

// StochasticSeries holds smoothed %K and %D. D is a suffix-aligned subset of K.
type StochasticSeries struct {
	K []float64
	D []float64
}

// Stochastic computes raw %K = (close-lowestLow)/(highestHigh-lowestLow)*100
// over n bars, then SMA(smoothK) for %K and SMA(smoothD) of that for %D.
// A window with no range yields a raw %K of 50.
func Stochastic(bars []model.OHLCV, n, smoothK, smoothD int) *StochasticSeries {
	if n <= 0 || smoothK <= 0 || smoothD <= 0 || len(bars) < n {
		return nil
	}
	raw := make([]float64, len(bars)-n+1)
	for i := range raw {
		window := bars[i : i+n]
		high, low := highLow(window)
		if high-low == 0 {
			raw[i] = 50
			continue
		}
		raw[i] = (window[n-1].Close - low) / (high - low) * 100
	}
	k := SMA(raw, smoothK)
	if k == nil {
		return nil
	}
	d := SMA(k, smoothD)
	if d == nil {
		return nil
	}
	return &StochasticSeries{K: k, D: d}
}
