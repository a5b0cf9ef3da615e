package recorder

import (
	"context"
	"time"

	"CoinCast/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
// Reads report nothing stored.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SavePrediction(context.Context, *model.Prediction) error { return nil }
func (n *NoopRecorder) GetPrediction(context.Context, string) (*model.Prediction, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) QueryPending(context.Context, time.Time) ([]*model.Prediction, error) {
	return nil, nil
}
func (n *NoopRecorder) MarkEvaluated(context.Context, string, model.Outcome) error { return ErrNotFound }
func (n *NoopRecorder) AggregateAccuracy(context.Context, model.AccuracyFilter) (model.AccuracyStats, error) {
	return model.AccuracyStats{}, nil
}
func (n *NoopRecorder) SavePrices(context.Context, string, []model.PricePoint) error { return nil }
func (n *NoopRecorder) PriceAtOrBefore(context.Context, string, time.Time) (float64, error) {
	return 0, ErrNotFound
}
func (n *NoopRecorder) LatestPrice(context.Context, string) (float64, time.Time, error) {
	return 0, time.Time{}, ErrNotFound
}
func (n *NoopRecorder) SaveSnapshot(context.Context, *model.IndicatorSnapshot) error { return nil }
func (n *NoopRecorder) LatestSnapshot(context.Context, string) (*model.IndicatorSnapshot, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) Close() error { return nil }
