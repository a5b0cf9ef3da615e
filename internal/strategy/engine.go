package strategy

import (
	"fmt"
	"math"

	"CoinCast/internal/model"
)

// Weights are the per-category composite weights. Patterns is reserved for a
// chart-pattern category that is not scored, so the defaults total 0.90 and
// the composite is never renormalized.
type Weights struct {
	Trend             float64 `yaml:"trend"`
	Momentum          float64 `yaml:"momentum"`
	Volatility        float64 `yaml:"volatility"`
	Volume            float64 `yaml:"volume"`
	SupportResistance float64 `yaml:"support_resistance"`
	Patterns          float64 `yaml:"patterns"`
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		Trend:             0.25,
		Momentum:          0.20,
		Volatility:        0.15,
		Volume:            0.15,
		SupportResistance: 0.15,
		Patterns:          0.10,
	}
}

// Validate checks every weight lies in [0, 1].
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"trend", w.Trend},
		{"momentum", w.Momentum},
		{"volatility", w.Volatility},
		{"volume", w.Volume},
		{"support_resistance", w.SupportResistance},
		{"patterns", w.Patterns},
	}
	for _, n := range named {
		if n.v < 0 || n.v > 1 || math.IsNaN(n.v) {
			return fmt.Errorf("weight %s must be in [0,1], got %v", n.name, n.v)
		}
	}
	return nil
}

// Evaluate scores every category on the snapshot and aggregates them into
// the composite. Categories without the indicators they need score 0 and
// still take part in the weighted sum.
func Evaluate(snap *model.IndicatorSnapshot, w Weights) *model.Assessment {
	if snap == nil {
		return nil
	}
	a := &model.Assessment{
		Trend:             scoreTrend(snap),
		Momentum:          scoreMomentum(snap),
		Volatility:        scoreVolatility(snap),
		Volume:            scoreVolume(snap),
		SupportResistance: scoreSupportResistance(snap),
	}
	a.Regime = a.Volatility.Regime
	a.Composite = Composite(a, w)
	return a
}

// Composite is the weighted sum of category scores clamped to [-1, 1].
func Composite(a *model.Assessment, w Weights) float64 {
	sum := a.Trend.Score*w.Trend +
		a.Momentum.Score*w.Momentum +
		a.Volatility.Score*w.Volatility +
		a.Volume.Score*w.Volume +
		a.SupportResistance.Score*w.SupportResistance
	return clamp(sum)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
