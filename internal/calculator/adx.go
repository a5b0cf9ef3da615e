package calculator

import (
	"math"

	"CoinCast/internal/model"
)

// ADXSeries holds ADX and the directional indicators, all aligned from the
// second bar onwards.
type ADXSeries struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes the average directional index. +DM and -DM are kept only when
// they are the larger of the two moves and positive; +DM, -DM and TR are
// smoothed with EMA(n), and ADX is EMA(n) of DX. Needs at least 2n bars.
func ADX(bars []model.OHLCV, n int) *ADXSeries {
	if n <= 0 || len(bars) < 2*n {
		return nil
	}
	m := len(bars) - 1
	plusDM := make([]float64, m)
	minusDM := make([]float64, m)
	for i := 1; i < len(bars); i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	smoothPlus := EMA(plusDM, n)
	smoothMinus := EMA(minusDM, n)
	smoothTR := EMA(TrueRange(bars), n)
	if smoothPlus == nil || smoothMinus == nil || smoothTR == nil {
		return nil
	}

	plusDI := make([]float64, m)
	minusDI := make([]float64, m)
	dx := make([]float64, m)
	for i := 0; i < m; i++ {
		plusDI[i] = ratio(smoothPlus[i], smoothTR[i]) * 100
		minusDI[i] = ratio(smoothMinus[i], smoothTR[i]) * 100
		dx[i] = ratio(math.Abs(plusDI[i]-minusDI[i]), plusDI[i]+minusDI[i]) * 100
	}

	adx := EMA(dx, n)
	if adx == nil {
		return nil
	}
	return &ADXSeries{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}
}
