package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Horizon is the forward window a forecast targets.
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
)

// Horizons lists every supported horizon, shortest first.
var Horizons = []Horizon{HorizonShort, HorizonMedium}

// Duration returns the horizon length: 24h for short, 7d for medium.
func (h Horizon) Duration() time.Duration {
	switch h {
	case HorizonShort:
		return 24 * time.Hour
	case HorizonMedium:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Label is the human-readable horizon name.
func (h Horizon) Label() string {
	switch h {
	case HorizonShort:
		return "24h"
	case HorizonMedium:
		return "7d"
	default:
		return string(h)
	}
}

// ParseHorizon converts a stored horizon name back to a Horizon.
func ParseHorizon(s string) (Horizon, error) {
	switch Horizon(s) {
	case HorizonShort, HorizonMedium:
		return Horizon(s), nil
	}
	return "", fmt.Errorf("unknown horizon %q", s)
}

// Direction is the realized or predicted price move.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// PriceRange is the expected price interval at horizon expiry.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether price lies inside the closed interval.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Low && price <= r.High
}

// Prediction is a persisted forecast. It is created pending and mutated
// exactly once by the accuracy evaluator.
type Prediction struct {
	ID                 string               `json:"id"`
	AssetID            string               `json:"asset_id"`
	CreatedAt          time.Time            `json:"created_at"`
	Horizon            Horizon              `json:"horizon"`
	Direction          string               `json:"direction"`
	PredictedDirection Direction            `json:"predicted_direction"`
	Probability        float64              `json:"probability"`
	Confidence         float64              `json:"confidence"`
	ConfidenceLevel    string               `json:"confidence_level"`
	PriceRange         PriceRange           `json:"price_range"`
	MostLikely         float64              `json:"most_likely"`
	CurrentPrice       float64              `json:"current_price"`
	CompositeScore     float64              `json:"composite_score"`
	Breakdown          map[Category]float64 `json:"signal_breakdown"`

	EvaluatedAt     *time.Time `json:"evaluated_at,omitempty"`
	ActualDirection Direction  `json:"actual_direction,omitempty"`
	ActualPrice     float64    `json:"actual_price,omitempty"`
	WasAccurate     bool       `json:"was_accurate"`
}

// EvaluateAt is the earliest time the prediction may be evaluated.
func (p *Prediction) EvaluateAt() time.Time {
	return p.CreatedAt.Add(p.Horizon.Duration())
}

// Pending reports whether the prediction still awaits evaluation.
func (p *Prediction) Pending() bool { return p.EvaluatedAt == nil }

// Outcome is the result of evaluating a prediction.
type Outcome struct {
	ActualDirection Direction
	ActualPrice     float64
	WasAccurate     bool
	EvaluatedAt     time.Time
}

// AccuracyStats is a derived aggregate over evaluated predictions.
type AccuracyStats struct {
	Total      int     `json:"total_predictions"`
	Accurate   int     `json:"accurate_predictions"`
	Percentage float64 `json:"accuracy_percentage"`
}

// NewAccuracyStats derives the percentage, rounded to two decimals. An empty
// set reports 0%.
func NewAccuracyStats(total, accurate int) AccuracyStats {
	st := AccuracyStats{Total: total, Accurate: accurate}
	if total > 0 {
		pct := decimal.NewFromInt(int64(accurate)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(total))).
			Round(2)
		st.Percentage, _ = pct.Float64()
	}
	return st
}

// AccuracyFilter narrows an accuracy aggregation. Zero values mean no filter.
type AccuracyFilter struct {
	AssetID string
	Horizon Horizon
	Since   time.Time
}
