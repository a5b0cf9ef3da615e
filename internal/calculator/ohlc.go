package calculator

import (
	"math"
	"sort"
	"time"

	"CoinCast/internal/model"
)

// ConstructOHLC buckets price points into bars of the given interval. Points
// are ordered by time first, so open and close come from the first and last
// observation in a bucket. Bars are unique per bucket and strictly ascending.
// Points with a non-positive or NaN price are skipped.
func ConstructOHLC(points []model.PricePoint, interval time.Duration) []model.OHLCV {
	if len(points) == 0 || interval <= 0 {
		return nil
	}
	sorted := append([]model.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	bars := make([]model.OHLCV, 0, len(sorted))
	for _, p := range sorted {
		if p.Price <= 0 || math.IsNaN(p.Price) {
			continue
		}
		start := p.Time.UTC().Truncate(interval)
		if n := len(bars); n > 0 && bars[n-1].Time.Equal(start) {
			b := &bars[n-1]
			b.High = math.Max(b.High, p.Price)
			b.Low = math.Min(b.Low, p.Price)
			b.Close = p.Price
			if p.Volume != nil {
				b.Volume += *p.Volume
			}
			continue
		}
		bar := model.OHLCV{Time: start, Open: p.Price, High: p.Price, Low: p.Price, Close: p.Price}
		if p.Volume != nil {
			bar.Volume = *p.Volume
		}
		bars = append(bars, bar)
	}
	return bars
}
