package calculator

import "CoinCast/internal/model"

// Params are the indicator periods used to build a snapshot.
type Params struct {
	SMAShort, SMAMedium, SMALong int
	EMAFast, EMASlow             int
	RSI                          int
	MACDFast, MACDSlow, MACDSig  int
	BBPeriod                     int
	BBStdDev                     float64
	ATR                          int
	StochPeriod, StochK, StochD  int
	ADX                          int
	CCI                          int
	ROC                          int
	Volatility                   int
	VolumeAverage                int
	OBVLookback                  int
	LevelsLookback               int
}

// DefaultParams returns the standard indicator periods.
func DefaultParams() Params {
	return Params{
		SMAShort:       20,
		SMAMedium:      50,
		SMALong:        200,
		EMAFast:        12,
		EMASlow:        26,
		RSI:            14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSig:        9,
		BBPeriod:       20,
		BBStdDev:       2,
		ATR:            14,
		StochPeriod:    14,
		StochK:         3,
		StochD:         3,
		ADX:            14,
		CCI:            20,
		ROC:            12,
		Volatility:     20,
		VolumeAverage:  20,
		OBVLookback:    5,
		LevelsLookback: 100,
	}
}

// BuildSnapshot computes every indicator over bars and keeps the latest
// values. Indicators without enough history are left nil.
func BuildSnapshot(assetID string, bars []model.OHLCV, p Params) *model.IndicatorSnapshot {
	if len(bars) == 0 {
		return nil
	}
	closes := model.Closes(bars)
	price := closes[len(closes)-1]
	snap := &model.IndicatorSnapshot{
		SchemaVersion: model.SnapshotSchemaVersion,
		AssetID:       assetID,
		BarTime:       bars[len(bars)-1].Time,
		Bars:          len(bars),
		Price:         price,
	}

	ma := &model.MovingAverages{
		SMA20:  last(SMA(closes, p.SMAShort)),
		SMA50:  last(SMA(closes, p.SMAMedium)),
		SMA200: last(SMA(closes, p.SMALong)),
		EMA12:  last(EMA(closes, p.EMAFast)),
		EMA26:  last(EMA(closes, p.EMASlow)),
	}
	if ma.SMA20 != nil || ma.SMA50 != nil || ma.EMA12 != nil {
		snap.MovingAverages = ma
	}

	snap.RSI = last(RSI(closes, p.RSI))

	if m := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSig); m != nil {
		h := m.Histogram
		v := &model.MACDValue{
			MACD:      m.MACD[len(m.MACD)-1],
			Signal:    m.Signal[len(m.Signal)-1],
			Histogram: h[len(h)-1],
		}
		if len(h) > 1 {
			v.PrevHistogram = model.Float(h[len(h)-2])
		}
		snap.MACD = v
	}

	if bb := Bollinger(closes, p.BBPeriod, p.BBStdDev); bb != nil {
		i := len(bb.Middle) - 1
		snap.Bollinger = &model.BollingerValue{
			Upper:     bb.Upper[i],
			Middle:    bb.Middle[i],
			Lower:     bb.Lower[i],
			Bandwidth: bb.Bandwidth[i],
		}
	}

	snap.ATR = last(ATR(bars, p.ATR))

	if st := Stochastic(bars, p.StochPeriod, p.StochK, p.StochD); st != nil {
		snap.Stochastic = &model.StochasticValue{K: st.K[len(st.K)-1], D: st.D[len(st.D)-1]}
	}

	if adx := ADX(bars, p.ADX); adx != nil {
		snap.ADX = &model.ADXValue{
			ADX:     adx.ADX[len(adx.ADX)-1],
			PlusDI:  adx.PlusDI[len(adx.PlusDI)-1],
			MinusDI: adx.MinusDI[len(adx.MinusDI)-1],
		}
	}

	snap.CCI = last(CCI(bars, p.CCI))
	snap.ROC = last(ROC(closes, p.ROC))
	snap.Volatility = last(HistoricalVolatility(closes, p.Volatility))

	if avg := last(SMA(model.Volumes(bars), p.VolumeAverage)); avg != nil {
		snap.Volume = &model.VolumeValue{Current: bars[len(bars)-1].Volume, Average: *avg}
	}

	if obv := OBV(bars); len(obv) > p.OBVLookback {
		snap.OBV = &model.OBVValue{
			Current:  obv[len(obv)-1],
			Previous: obv[len(obv)-1-p.OBVLookback],
		}
	}

	snap.Levels = SupportResistance(bars, p.LevelsLookback, price)

	if ich := Ichimoku(bars); ich != nil {
		snap.Ichimoku = &model.IchimokuValue{
			Tenkan:  ich.Tenkan[len(ich.Tenkan)-1],
			Kijun:   ich.Kijun[len(ich.Kijun)-1],
			SenkouA: ich.SenkouA[len(ich.SenkouA)-1],
			SenkouB: ich.SenkouB[len(ich.SenkouB)-1],
			Chikou:  ich.Chikou[len(ich.Chikou)-1],
		}
	}

	return snap
}
