package calculator

import (
	talib "github.com/markcheno/go-talib"

	"CoinCast/internal/model"
)

// CCI computes the commodity channel index on the typical price (H+L+C)/3
// with the 0.015 scaling constant. Warm-up n-1. A window with zero mean
// deviation yields 0.
func CCI(bars []model.OHLCV, n int) []float64 {
	if n <= 0 || len(bars) < n {
		return nil
	}
	high, low, closes := columns(bars)
	return talib.Cci(high, low, closes, n)[n-1:]
}
