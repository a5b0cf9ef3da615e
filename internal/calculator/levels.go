package calculator

import (
	"math"
	"sort"

	"CoinCast/internal/model"
)

const (
	swingNeighbors   = 2
	clusterTolerance = 0.02
	maxLevels        = 3
)

// SupportResistance finds swing highs and lows over the last lookback bars,
// clusters levels lying within 2% of each other and returns up to three
// levels on each side of price, nearest first. Levels at or below price are
// support, levels above are resistance.
func SupportResistance(bars []model.OHLCV, lookback int, price float64) *model.SupportResistance {
	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	if len(bars) < 2*swingNeighbors+1 {
		return nil
	}

	var raw []float64
	for i := swingNeighbors; i < len(bars)-swingNeighbors; i++ {
		if isSwingLow(bars, i) {
			raw = append(raw, bars[i].Low)
		}
		if isSwingHigh(bars, i) {
			raw = append(raw, bars[i].High)
		}
	}

	levels := &model.SupportResistance{Support: []float64{}, Resistance: []float64{}}
	for _, l := range ClusterLevels(raw) {
		if l <= price {
			levels.Support = append(levels.Support, l)
		} else {
			levels.Resistance = append(levels.Resistance, l)
		}
	}
	byDistance := func(s []float64) {
		sort.Slice(s, func(i, j int) bool { return math.Abs(s[i]-price) < math.Abs(s[j]-price) })
	}
	byDistance(levels.Support)
	byDistance(levels.Resistance)
	if len(levels.Support) > maxLevels {
		levels.Support = levels.Support[:maxLevels]
	}
	if len(levels.Resistance) > maxLevels {
		levels.Resistance = levels.Resistance[:maxLevels]
	}
	return levels
}

// ClusterLevels sorts levels and merges each one into the running cluster
// while it is within 2% of the cluster average. Each cluster is reported as
// the average of its members, ascending.
func ClusterLevels(levels []float64) []float64 {
	if len(levels) == 0 {
		return nil
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	out := make([]float64, 0, len(sorted))
	sum, count := sorted[0], 1
	for _, l := range sorted[1:] {
		avg := sum / float64(count)
		if avg != 0 && math.Abs(l-avg)/math.Abs(avg) < clusterTolerance {
			sum += l
			count++
			continue
		}
		out = append(out, avg)
		sum, count = l, 1
	}
	return append(out, sum/float64(count))
}

func isSwingLow(bars []model.OHLCV, i int) bool {
	for j := i - swingNeighbors; j <= i+swingNeighbors; j++ {
		if j != i && bars[j].Low <= bars[i].Low {
			return false
		}
	}
	return true
}

func isSwingHigh(bars []model.OHLCV, i int) bool {
	for j := i - swingNeighbors; j <= i+swingNeighbors; j++ {
		if j != i && bars[j].High >= bars[i].High {
			return false
		}
	}
	return true
}
