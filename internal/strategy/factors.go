package strategy

import (
	"fmt"
	"math"

	"CoinCast/internal/model"
)

const (
	adxStrongTrend    = 25.0
	proximityFraction = 0.02
)

// scoreTrend scores moving-average position, crossovers, alignment and
// ADX-gated trend strength.
func scoreTrend(snap *model.IndicatorSnapshot) model.SignalScore {
	s := model.SignalScore{Category: model.CategoryTrend, Signals: []string{}}
	price := snap.Price

	if ma := snap.MovingAverages; ma != nil {
		if ma.SMA20 != nil {
			if price > *ma.SMA20 {
				s.Score += 0.20
				s.Signals = append(s.Signals, "Price above 20-day MA")
			} else if price < *ma.SMA20 {
				s.Score -= 0.20
				s.Signals = append(s.Signals, "Price below 20-day MA")
			}
		}
		if ma.SMA50 != nil {
			if price > *ma.SMA50 {
				s.Score += 0.15
				s.Signals = append(s.Signals, "Price above 50-day MA")
			} else if price < *ma.SMA50 {
				s.Score -= 0.15
				s.Signals = append(s.Signals, "Price below 50-day MA")
			}
		}
		if ma.SMA20 != nil && ma.SMA50 != nil {
			if *ma.SMA20 > *ma.SMA50 {
				s.Score += 0.25
				s.Signals = append(s.Signals, "Golden cross: 20-day MA above 50-day MA")
			} else if *ma.SMA20 < *ma.SMA50 {
				s.Score -= 0.25
				s.Signals = append(s.Signals, "Death cross: 20-day MA below 50-day MA")
			}
		}
		if ma.SMA20 != nil && ma.SMA50 != nil && ma.SMA200 != nil {
			switch {
			case price > *ma.SMA20 && *ma.SMA20 > *ma.SMA50 && *ma.SMA50 > *ma.SMA200:
				s.Score += 0.20
				s.Signals = append(s.Signals, "Bullish MA alignment")
			case price < *ma.SMA20 && *ma.SMA20 < *ma.SMA50 && *ma.SMA50 < *ma.SMA200:
				s.Score -= 0.20
				s.Signals = append(s.Signals, "Bearish MA alignment")
			}
		}
	}

	if adx := snap.ADX; adx != nil {
		if adx.ADX > adxStrongTrend {
			if adx.PlusDI > adx.MinusDI {
				s.Score += 0.2
				s.Signals = append(s.Signals, fmt.Sprintf("Strong uptrend (ADX %.1f)", adx.ADX))
			} else {
				s.Score -= 0.2
				s.Signals = append(s.Signals, fmt.Sprintf("Strong downtrend (ADX %.1f)", adx.ADX))
			}
		} else {
			s.Signals = append(s.Signals, fmt.Sprintf("Weak trend (ADX %.1f)", adx.ADX))
		}
	}

	// Ichimoku position is narrative only.
	if ich := snap.Ichimoku; ich != nil {
		top, bottom := math.Max(ich.SenkouA, ich.SenkouB), math.Min(ich.SenkouA, ich.SenkouB)
		switch {
		case price > top:
			s.Signals = append(s.Signals, "Price above Ichimoku cloud")
		case price < bottom:
			s.Signals = append(s.Signals, "Price below Ichimoku cloud")
		default:
			s.Signals = append(s.Signals, "Price inside Ichimoku cloud")
		}
	}

	s.Score = clamp(s.Score)
	return s
}

// scoreMomentum scores RSI zones, MACD histogram sign and acceleration, and
// stochastic and CCI extremes.
func scoreMomentum(snap *model.IndicatorSnapshot) model.SignalScore {
	s := model.SignalScore{Category: model.CategoryMomentum, Signals: []string{}}

	if snap.RSI != nil {
		rsi := *snap.RSI
		switch {
		case rsi < 30:
			s.Score += 0.3
			s.Signals = append(s.Signals, fmt.Sprintf("RSI oversold (%.1f)", rsi))
		case rsi > 70:
			s.Score -= 0.3
			s.Signals = append(s.Signals, fmt.Sprintf("RSI overbought (%.1f)", rsi))
		case rsi >= 50:
			s.Score += 0.1
			s.Signals = append(s.Signals, fmt.Sprintf("RSI in bullish zone (%.1f)", rsi))
		default:
			s.Score -= 0.1
			s.Signals = append(s.Signals, fmt.Sprintf("RSI in bearish zone (%.1f)", rsi))
		}
	}

	if m := snap.MACD; m != nil {
		if m.Histogram > 0 {
			s.Score += 0.2
			s.Signals = append(s.Signals, "MACD histogram positive")
		} else if m.Histogram < 0 {
			s.Score -= 0.2
			s.Signals = append(s.Signals, "MACD histogram negative")
		}
		if m.PrevHistogram != nil {
			if m.Histogram > *m.PrevHistogram {
				s.Score += 0.1
				s.Signals = append(s.Signals, "MACD momentum increasing")
			} else if m.Histogram < *m.PrevHistogram {
				s.Score -= 0.1
				s.Signals = append(s.Signals, "MACD momentum decreasing")
			}
		}
	}

	if st := snap.Stochastic; st != nil {
		if st.K < 20 {
			s.Score += 0.2
			s.Signals = append(s.Signals, fmt.Sprintf("Stochastic oversold (%%K %.1f)", st.K))
		} else if st.K > 80 {
			s.Score -= 0.2
			s.Signals = append(s.Signals, fmt.Sprintf("Stochastic overbought (%%K %.1f)", st.K))
		}
	}

	if snap.CCI != nil {
		if *snap.CCI < -100 {
			s.Score += 0.15
			s.Signals = append(s.Signals, fmt.Sprintf("CCI oversold (%.0f)", *snap.CCI))
		} else if *snap.CCI > 100 {
			s.Score -= 0.15
			s.Signals = append(s.Signals, fmt.Sprintf("CCI overbought (%.0f)", *snap.CCI))
		}
	}

	s.Score = clamp(s.Score)
	return s
}

// Regime classifies annualized volatility in percent.
func Regime(volatility float64) model.VolatilityRegime {
	switch {
	case volatility > 100:
		return model.RegimeVeryHigh
	case volatility > 70:
		return model.RegimeHigh
	case volatility > 40:
		return model.RegimeMedium
	default:
		return model.RegimeLow
	}
}

// scoreVolatility only classifies the regime; it never moves the score.
func scoreVolatility(snap *model.IndicatorSnapshot) model.SignalScore {
	s := model.SignalScore{Category: model.CategoryVolatility, Signals: []string{}}

	if snap.Volatility != nil {
		s.Regime = Regime(*snap.Volatility)
		s.Signals = append(s.Signals, fmt.Sprintf("Volatility %s (%.1f%% annualized)", s.Regime, *snap.Volatility))
	} else {
		s.Signals = append(s.Signals, "Volatility unavailable")
	}

	if bb := snap.Bollinger; bb != nil {
		switch {
		case bb.Bandwidth < 5:
			s.Signals = append(s.Signals, "Bollinger squeeze: breakout possible")
		case bb.Bandwidth > 20:
			s.Signals = append(s.Signals, "Wide Bollinger bands: elevated volatility")
		}
	}
	if snap.ATR != nil && snap.Price > 0 {
		s.Signals = append(s.Signals, fmt.Sprintf("ATR %.2f (%.2f%% of price)", *snap.ATR, *snap.ATR/snap.Price*100))
	}
	return s
}

// scoreVolume scores volume spikes against the average and the OBV trend.
func scoreVolume(snap *model.IndicatorSnapshot) model.SignalScore {
	s := model.SignalScore{Category: model.CategoryVolume, Signals: []string{}}

	if v := snap.Volume; v != nil && v.Average > 0 {
		r := v.Current / v.Average
		switch {
		case r >= 2:
			s.Score += 0.3
			s.Signals = append(s.Signals, fmt.Sprintf("Volume spike (%.1fx average)", r))
		case r >= 1.5:
			s.Score += 0.15
			s.Signals = append(s.Signals, fmt.Sprintf("Above-average volume (%.1fx)", r))
		case r <= 0.5:
			s.Score -= 0.1
			s.Signals = append(s.Signals, fmt.Sprintf("Low volume (%.1fx average)", r))
		}
	}

	if o := snap.OBV; o != nil {
		if o.Current > o.Previous {
			s.Score += 0.2
			s.Signals = append(s.Signals, "OBV rising: accumulation")
		} else if o.Current < o.Previous {
			s.Score -= 0.2
			s.Signals = append(s.Signals, "OBV falling: distribution")
		}
	}

	s.Score = clamp(s.Score)
	return s
}

// scoreSupportResistance rewards proximity to the nearest support and
// penalizes proximity to the nearest resistance.
func scoreSupportResistance(snap *model.IndicatorSnapshot) model.SignalScore {
	s := model.SignalScore{Category: model.CategorySupportResistance, Signals: []string{}}
	lv := snap.Levels
	price := snap.Price
	if lv == nil || price <= 0 {
		return s
	}

	if support, ok := nearest(lv.Support, price); ok {
		s.Signals = append(s.Signals, fmt.Sprintf("Support at %.2f", support))
		if math.Abs(price-support)/price < proximityFraction {
			s.Score += 0.3
			s.Signals = append(s.Signals, "Price near support")
		}
	}
	if resistance, ok := nearest(lv.Resistance, price); ok {
		s.Signals = append(s.Signals, fmt.Sprintf("Resistance at %.2f", resistance))
		if math.Abs(resistance-price)/price < proximityFraction {
			s.Score -= 0.3
			s.Signals = append(s.Signals, "Price near resistance")
		}
	}

	s.Score = clamp(s.Score)
	return s
}

// nearest returns the level with the smallest absolute distance to price.
func nearest(levels []float64, price float64) (float64, bool) {
	if len(levels) == 0 {
		return 0, false
	}
	best := levels[0]
	for _, l := range levels[1:] {
		if math.Abs(l-price) < math.Abs(best-price) {
			best = l
		}
	}
	return best, true
}
