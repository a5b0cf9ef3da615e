package calculator

import talib "github.com/markcheno/go-talib"

// BollingerSeries holds the bands and their bandwidth, all aligned with the
// middle band (warm-up n-1).
type BollingerSeries struct {
	Upper     []float64
	Middle    []float64
	Lower     []float64
	Bandwidth []float64
}

// Bollinger computes middle = SMA(n) and bands at k population standard
// deviations. Bandwidth is (upper-lower)/middle*100, or 0 when middle is 0.
func Bollinger(values []float64, n int, k float64) *BollingerSeries {
	if n <= 0 || len(values) < n {
		return nil
	}
	upper, middle, lower := talib.BBands(values, n, k, k, talib.SMA)
	bb := &BollingerSeries{
		Upper:     upper[n-1:],
		Middle:    middle[n-1:],
		Lower:     lower[n-1:],
		Bandwidth: make([]float64, len(values)-n+1),
	}
	for i, m := range bb.Middle {
		if m != 0 {
			bb.Bandwidth[i] = (bb.Upper[i] - bb.Lower[i]) / m * 100
		}
	}
	return bb
}
