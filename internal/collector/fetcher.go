package collector

import (
	"context"

	"CoinCast/internal/model"
)

// Fetcher provides an asset's price history.
type Fetcher interface {
	// FetchPriceHistory returns points covering the last windowDays days in
	// ascending time order, hourly or finer.
	FetchPriceHistory(ctx context.Context, assetID string, windowDays int) ([]model.PricePoint, error)
	Name() string
}
