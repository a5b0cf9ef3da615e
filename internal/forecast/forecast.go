// Package forecast turns a composite score and volatility regime into
// per-horizon probability, confidence and price-range forecasts.
package forecast

import (
	"math"

	"github.com/shopspring/decimal"

	"CoinCast/internal/model"
)

// regimeProfile is the confidence multiplier and expected move (fraction of
// price) for a volatility regime.
type regimeProfile struct {
	Multiplier   float64
	ExpectedMove float64
}

// Profiles maps each regime to its calibration constants.
var Profiles = map[model.VolatilityRegime]regimeProfile{
	model.RegimeVeryHigh: {Multiplier: 0.50, ExpectedMove: 0.15},
	model.RegimeHigh:     {Multiplier: 0.70, ExpectedMove: 0.10},
	model.RegimeMedium:   {Multiplier: 0.85, ExpectedMove: 0.07},
	model.RegimeLow:      {Multiplier: 0.95, ExpectedMove: 0.04},
}

// defaultProfile applies when the regime is unknown.
var defaultProfile = Profiles[model.RegimeMedium]

// horizonScale dampens a forecast for longer horizons.
type horizonScale struct {
	Probability float64
	Confidence  float64
	RangeFactor float64
	Drift       float64
}

var scales = map[model.Horizon]horizonScale{
	model.HorizonShort:  {Probability: 1, Confidence: 1, RangeFactor: 0.5, Drift: 0.3},
	model.HorizonMedium: {Probability: 0.85, Confidence: 0.8, RangeFactor: 1.5, Drift: 0.7},
}

// Confidence level labels, checked against the 0-1 multiplier.
var levels = []struct {
	Min   float64
	Label string
}{
	{0.85, "Very High"},
	{0.70, "High"},
	{0.50, "Medium"},
	{0.30, "Low"},
}

// HorizonForecast is the forecast for one horizon. Probability and
// Confidence are on the 0-100 scale.
type HorizonForecast struct {
	Horizon      model.Horizon
	Probability  float64
	Confidence   float64
	Range        model.PriceRange
	MostLikely   float64
	ExpectedMove float64
}

// Distribution is the full probabilistic forecast for an asset.
type Distribution struct {
	Direction          string
	PredictedDirection model.Direction
	ConfidenceLevel    string
	Short              HorizonForecast
	Medium             HorizonForecast
}

// ForHorizon returns the forecast for h.
func (d Distribution) ForHorizon(h model.Horizon) HorizonForecast {
	if h == model.HorizonMedium {
		return d.Medium
	}
	return d.Short
}

// Distribute builds the forecast for a composite score in [-1, 1] at the
// given price.
func Distribute(score float64, regime model.VolatilityRegime, price float64) Distribution {
	profile, ok := Profiles[regime]
	if !ok {
		profile = defaultProfile
	}
	label, dir, prob := classify(score)

	return Distribution{
		Direction:          label,
		PredictedDirection: dir,
		ConfidenceLevel:    ConfidenceLevel(profile.Multiplier),
		Short:              horizon(model.HorizonShort, score, prob, profile, price),
		Medium:             horizon(model.HorizonMedium, score, prob, profile, price),
	}
}

// classify maps the score to a direction label and a 0-1 probability.
func classify(score float64) (string, model.Direction, float64) {
	abs := math.Abs(score)
	dir := model.DirectionUp
	side := "bullish"
	if score < 0 {
		dir = model.DirectionDown
		side = "bearish"
	}
	switch {
	case abs > 0.5:
		return side, dir, abs
	case abs > 0.25:
		return "slightly " + side, dir, 0.5 + abs/2
	default:
		return "neutral", model.DirectionNeutral, 0.5
	}
}

func horizon(h model.Horizon, score, prob float64, p regimeProfile, price float64) HorizonForecast {
	s := scales[h]
	half := p.ExpectedMove * s.RangeFactor
	return HorizonForecast{
		Horizon:     h,
		Probability: round(prob*100*s.Probability, 2),
		Confidence:  round(p.Multiplier*100*s.Confidence, 2),
		Range: model.PriceRange{
			Low:  roundPrice(price * (1 - half)),
			High: roundPrice(price * (1 + half)),
		},
		MostLikely:   roundPrice(price * (1 + score*p.ExpectedMove*s.Drift)),
		ExpectedMove: p.ExpectedMove,
	}
}

// ConfidenceLevel labels a 0-1 confidence multiplier.
func ConfidenceLevel(multiplier float64) string {
	for _, l := range levels {
		if multiplier >= l.Min {
			return l.Label
		}
	}
	return "Very Low"
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// roundPrice keeps enough precision for sub-cent assets.
func roundPrice(v float64) float64 {
	return round(v, 8)
}
