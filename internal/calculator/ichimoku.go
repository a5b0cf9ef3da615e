package calculator

import "CoinCast/internal/model"

const (
	tenkanPeriod  = 9
	kijunPeriod   = 26
	senkouBPeriod = 52
	chikouShift   = 26
)

// IchimokuSeries holds the cloud lines. Tenkan, Kijun and SenkouB are
// midpoint series with their own warm-ups; SenkouA is aligned with Kijun.
// Chikou is the close series shifted back 26 bars, so Chikou[i] is the close
// 26 bars after bar i.
type IchimokuSeries struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

// Ichimoku computes the cloud. Needs at least 52 bars.
func Ichimoku(bars []model.OHLCV) *IchimokuSeries {
	if len(bars) < senkouBPeriod {
		return nil
	}
	tenkan := midpoints(bars, tenkanPeriod)
	kijun := midpoints(bars, kijunPeriod)
	off := len(tenkan) - len(kijun)
	spanA := make([]float64, len(kijun))
	for i := range kijun {
		spanA[i] = (tenkan[i+off] + kijun[i]) / 2
	}
	closes := model.Closes(bars)
	return &IchimokuSeries{
		Tenkan:  tenkan,
		Kijun:   kijun,
		SenkouA: spanA,
		SenkouB: midpoints(bars, senkouBPeriod),
		Chikou:  closes[chikouShift:],
	}
}
