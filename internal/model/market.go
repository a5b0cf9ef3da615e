package model

import "time"

// PricePoint is a single observation from the price history provider.
// Volume and MarketCap are nil when the provider did not report them.
type PricePoint struct {
	Time      time.Time
	Price     float64
	Volume    *float64
	MarketCap *float64
}

// OHLCV represents a single candlestick bar. Time is the bucket start.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close series from bars.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volume series from bars.
func Volumes(bars []OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
