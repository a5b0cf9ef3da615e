package collector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"CoinCast/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Points []model.PricePoint
	Err    error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPriceHistory(_ context.Context, _ string, windowDays int) ([]model.PricePoint, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Points != nil {
		return m.Points, nil
	}
	return GenerateMockPoints(m.Price, windowDays*24, time.Now().UTC()), nil
}

// Calls reports how many fetches were made.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

// GenerateMockPoints produces count hourly points ending at end, oscillating
// around a slowly rising base price.
func GenerateMockPoints(basePrice float64, count int, end time.Time) []model.PricePoint {
	points := make([]model.PricePoint, count)
	start := end.Truncate(time.Hour).Add(-time.Duration(count-1) * time.Hour)
	for i := range points {
		p := basePrice * (1 + float64(i-count/2)*0.0005 + 0.02*math.Sin(float64(i)/12))
		vol := 1_000_000 * (1 + 0.3*math.Cos(float64(i)/7))
		points[i] = model.PricePoint{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Price:  p,
			Volume: &vol,
		}
	}
	return points
}
