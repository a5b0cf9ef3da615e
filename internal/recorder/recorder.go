package recorder

import (
	"context"
	"errors"
	"time"

	"CoinCast/internal/model"
)

var (
	// ErrNotFound is returned when a prediction or price does not exist.
	ErrNotFound = errors.New("recorder: not found")
	// ErrAlreadyEvaluated is returned when a prediction has left the pending state.
	ErrAlreadyEvaluated = errors.New("recorder: prediction already evaluated")
)

// Recorder persists predictions, price history and indicator snapshots.
type Recorder interface {
	// SavePrediction stores a new pending prediction.
	SavePrediction(ctx context.Context, p *model.Prediction) error
	// GetPrediction loads one prediction by id, pending or evaluated.
	GetPrediction(ctx context.Context, id string) (*model.Prediction, error)
	// QueryPending returns unevaluated predictions whose horizon has elapsed at now.
	QueryPending(ctx context.Context, now time.Time) ([]*model.Prediction, error)
	// MarkEvaluated records the outcome. It succeeds at most once per prediction.
	MarkEvaluated(ctx context.Context, id string, o model.Outcome) error
	// AggregateAccuracy summarizes evaluated predictions matching f.
	AggregateAccuracy(ctx context.Context, f model.AccuracyFilter) (model.AccuracyStats, error)

	SavePrices(ctx context.Context, assetID string, points []model.PricePoint) error
	PriceAtOrBefore(ctx context.Context, assetID string, t time.Time) (float64, error)
	LatestPrice(ctx context.Context, assetID string) (float64, time.Time, error)

	SaveSnapshot(ctx context.Context, snap *model.IndicatorSnapshot) error
	LatestSnapshot(ctx context.Context, assetID string) (*model.IndicatorSnapshot, error)

	Close() error
}
