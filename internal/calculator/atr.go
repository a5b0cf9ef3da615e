package calculator

import (
	talib "github.com/markcheno/go-talib"

	"CoinCast/internal/model"
)

// ATR computes the Wilder-smoothed average true range. The seed is the mean
// of the first n true ranges, so warm-up is n and the result has
// len(bars)-n elements.
func ATR(bars []model.OHLCV, n int) []float64 {
	if n <= 0 || len(bars) < n+1 {
		return nil
	}
	high, low, closes := columns(bars)
	return talib.Atr(high, low, closes, n)[n:]
}
