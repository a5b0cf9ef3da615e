package calculator

import "CoinCast/internal/model"

// OBV computes on-balance volume starting from 0: volume is added on an up
// close, subtracted on a down close and ignored on an unchanged close.
func OBV(bars []model.OHLCV) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = out[i-1]
		switch {
		case bars[i].Close > bars[i-1].Close:
			out[i] += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			out[i] -= bars[i].Volume
		}
	}
	return out
}
