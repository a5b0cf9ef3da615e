package calculator

import "math"

// annualization assumes one observation per day over a 365-day crypto year.
var annualization = math.Sqrt(365)

// HistoricalVolatility returns the annualized volatility in percent: the
// sample standard deviation of log returns over each window of n returns,
// scaled by sqrt(365)*100. Warm-up n. Non-positive prices contribute a zero
// return.
func HistoricalVolatility(closes []float64, n int) []float64 {
	if n < 2 || len(closes) < n+1 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i] <= 0 || closes[i-1] <= 0 {
			continue
		}
		returns[i-1] = math.Log(closes[i] / closes[i-1])
	}
	out := make([]float64, len(returns)-n+1)
	for i := range out {
		out[i] = sampleStdDev(returns[i:i+n]) * annualization * 100
	}
	return out
}
