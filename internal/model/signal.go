package model

import "math"

// Category names a scoring dimension.
type Category string

const (
	CategoryTrend             Category = "trend"
	CategoryMomentum          Category = "momentum"
	CategoryVolatility        Category = "volatility"
	CategoryVolume            Category = "volume"
	CategorySupportResistance Category = "support_resistance"
)

// VolatilityRegime is the discretized volatility level.
type VolatilityRegime string

const (
	RegimeVeryHigh VolatilityRegime = "very high"
	RegimeHigh     VolatilityRegime = "high"
	RegimeMedium   VolatilityRegime = "medium"
	RegimeLow      VolatilityRegime = "low"
	RegimeUnknown  VolatilityRegime = ""
)

// SignalScore is one analyzer's verdict.
type SignalScore struct {
	Category Category         `json:"category"`
	Score    float64          `json:"score"`
	Signals  []string         `json:"signals"`
	Regime   VolatilityRegime `json:"regime,omitempty"`
}

// Strength is the magnitude of the score.
func (s SignalScore) Strength() float64 { return math.Abs(s.Score) }

// Assessment is the output of the scoring engine for one snapshot.
type Assessment struct {
	Trend             SignalScore      `json:"trend"`
	Momentum          SignalScore      `json:"momentum"`
	Volatility        SignalScore      `json:"volatility"`
	Volume            SignalScore      `json:"volume"`
	SupportResistance SignalScore      `json:"support_resistance"`
	Composite         float64          `json:"composite"`
	Regime            VolatilityRegime `json:"regime"`
}

// Scores returns the category scores in a fixed order.
func (a *Assessment) Scores() []SignalScore {
	return []SignalScore{a.Trend, a.Momentum, a.Volatility, a.Volume, a.SupportResistance}
}

// Breakdown maps category to score, used when persisting a prediction.
func (a *Assessment) Breakdown() map[Category]float64 {
	out := make(map[Category]float64, 5)
	for _, s := range a.Scores() {
		out[s.Category] = s.Score
	}
	return out
}
