// Package accuracy reconciles pending predictions against realized prices and
// aggregates the historical hit rate.
package accuracy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CoinCast/internal/model"
	"CoinCast/internal/recorder"
)

// DefaultWindow is the trailing window used for recent accuracy.
const DefaultWindow = 30 * 24 * time.Hour

// Store is the persistence the evaluator needs.
type Store interface {
	QueryPending(ctx context.Context, now time.Time) ([]*model.Prediction, error)
	MarkEvaluated(ctx context.Context, id string, o model.Outcome) error
	AggregateAccuracy(ctx context.Context, f model.AccuracyFilter) (model.AccuracyStats, error)
	PriceAtOrBefore(ctx context.Context, assetID string, t time.Time) (float64, error)
	LatestPrice(ctx context.Context, assetID string) (float64, time.Time, error)
}

// Observer is notified of every recorded evaluation.
type Observer interface {
	ObserveEvaluation(assetID string, h model.Horizon, accurate bool)
}

// Evaluator moves predictions from pending to evaluated.
type Evaluator struct {
	store  Store
	obs    Observer
	window time.Duration
	log    zerolog.Logger
}

// NewEvaluator creates an evaluator. obs may be nil; a non-positive window
// falls back to DefaultWindow.
func NewEvaluator(store Store, obs Observer, window time.Duration) *Evaluator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Evaluator{
		store:  store,
		obs:    obs,
		window: window,
		log:    log.With().Str("component", "accuracy").Logger(),
	}
}

// Judge compares the realized move against the prediction. The direction is
// derived by strict comparison; the prediction is accurate only when the
// direction matches and the actual price lies inside the predicted range.
func Judge(p *model.Prediction, reference, actual float64) model.Outcome {
	dir := model.DirectionNeutral
	switch {
	case actual > reference:
		dir = model.DirectionUp
	case actual < reference:
		dir = model.DirectionDown
	}
	return model.Outcome{
		ActualDirection: dir,
		ActualPrice:     actual,
		WasAccurate:     dir == p.PredictedDirection && p.PriceRange.Contains(actual),
	}
}

// SweepResult counts what a sweep did.
type SweepResult struct {
	Due       int
	Evaluated int
	Accurate  int
	Skipped   int
}

// Sweep evaluates every prediction due at now. The reference price is the
// stored price at or before creation; the actual price is the latest stored
// price, which may be later than the horizon expiry. Rows that cannot be
// evaluated are logged and left pending.
func (e *Evaluator) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	due, err := e.store.QueryPending(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("query pending: %w", err)
	}

	res := SweepResult{Due: len(due)}
	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		o, err := e.evaluate(ctx, p, now)
		if err != nil {
			res.Skipped++
			e.log.Warn().Err(err).Str("id", p.ID).Str("asset", p.AssetID).Msg("prediction not evaluated")
			continue
		}
		res.Evaluated++
		if o.WasAccurate {
			res.Accurate++
		}
		if e.obs != nil {
			e.obs.ObserveEvaluation(p.AssetID, p.Horizon, o.WasAccurate)
		}
	}

	e.log.Info().
		Int("due", res.Due).
		Int("evaluated", res.Evaluated).
		Int("accurate", res.Accurate).
		Int("skipped", res.Skipped).
		Msg("accuracy sweep finished")
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, p *model.Prediction, now time.Time) (model.Outcome, error) {
	reference, err := e.store.PriceAtOrBefore(ctx, p.AssetID, p.CreatedAt)
	if errors.Is(err, recorder.ErrNotFound) {
		reference = p.CurrentPrice
	} else if err != nil {
		return model.Outcome{}, fmt.Errorf("reference price: %w", err)
	}

	actual, _, err := e.store.LatestPrice(ctx, p.AssetID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("latest price: %w", err)
	}

	o := Judge(p, reference, actual)
	o.EvaluatedAt = now
	if err := e.store.MarkEvaluated(ctx, p.ID, o); err != nil {
		return model.Outcome{}, fmt.Errorf("mark evaluated: %w", err)
	}
	return o, nil
}
