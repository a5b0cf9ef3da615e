package calculator

import talib "github.com/markcheno/go-talib"

// SMA computes the simple moving average of values over each sliding window
// of n. Warm-up is n-1, so the result has len(values)-n+1 elements.
// Returns nil when n is not positive or there is not enough data.
func SMA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return nil
	}
	out := make([]float64, len(values)-n+1)
	for i := range out {
		out[i] = mean(values[i : i+n])
	}
	return out
}

// EMA computes the exponential moving average with k = 2/(n+1), seeded with
// the first value. The result is aligned with the input (warm-up 0).
// Requires at least n values.
func EMA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return nil
	}
	k := 2.0 / float64(n+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// ROC returns the percentage change of each value against the value n
// periods back. Warm-up n. A zero base yields 0.
func ROC(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return nil
	}
	return talib.Roc(values, n)[n:]
}
