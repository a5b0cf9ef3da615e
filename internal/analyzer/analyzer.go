// Package analyzer runs the per-asset forecasting pipeline: fetch prices,
// build hourly bars and indicators, score, forecast and persist.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CoinCast/internal/accuracy"
	"CoinCast/internal/calculator"
	"CoinCast/internal/collector"
	"CoinCast/internal/forecast"
	"CoinCast/internal/metrics"
	"CoinCast/internal/model"
	"CoinCast/internal/strategy"
)

// ErrInsufficientHistory means the asset has fewer aligned bars than the
// minimum. It is not retryable and nothing is persisted.
var ErrInsufficientHistory = errors.New("insufficient price history")

// DefaultMinBars is the minimum number of hourly bars for an analysis.
const DefaultMinBars = 50

// Store is the persistence the pipeline writes to.
type Store interface {
	SavePrediction(ctx context.Context, p *model.Prediction) error
	SavePrices(ctx context.Context, assetID string, points []model.PricePoint) error
	SaveSnapshot(ctx context.Context, snap *model.IndicatorSnapshot) error
}

// Options tune the pipeline. Zero values take defaults.
type Options struct {
	HistoryDays int
	MinBars     int
	Interval    time.Duration
	Workers     int
	Weights     strategy.Weights
	Params      calculator.Params
}

func (o *Options) setDefaults() {
	if o.HistoryDays <= 0 {
		o.HistoryDays = 30
	}
	if o.MinBars <= 0 {
		o.MinBars = DefaultMinBars
	}
	if o.Interval <= 0 {
		o.Interval = time.Hour
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Weights == (strategy.Weights{}) {
		o.Weights = strategy.DefaultWeights()
	}
	if o.Params == (calculator.Params{}) {
		o.Params = calculator.DefaultParams()
	}
}

// Forecast is the result of one analysis. PersistErr reports storage
// failures; the forecast itself is still valid when it is set.
type Forecast struct {
	AssetID      string
	GeneratedAt  time.Time
	Price        float64
	Bars         int
	Snapshot     *model.IndicatorSnapshot
	Assessment   *model.Assessment
	Distribution forecast.Distribution
	Predictions  []*model.Prediction
	Accuracy     *accuracy.Report
	Narrative    string
	PersistErr   error
}

// Analyzer runs the pipeline. Analyses of the same asset are serialized;
// different assets run concurrently.
type Analyzer struct {
	fetcher   collector.Fetcher
	store     Store
	evaluator *accuracy.Evaluator
	metrics   *metrics.Metrics
	opts      Options
	locks     keyedMutex
	now       func() time.Time
	log       zerolog.Logger
}

// New creates an Analyzer. evaluator and m may be nil.
func New(fetcher collector.Fetcher, store Store, evaluator *accuracy.Evaluator, m *metrics.Metrics, opts Options) *Analyzer {
	opts.setDefaults()
	return &Analyzer{
		fetcher:   fetcher,
		store:     store,
		evaluator: evaluator,
		metrics:   m,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze produces a forecast for one asset.
func (a *Analyzer) Analyze(ctx context.Context, assetID string) (*Forecast, error) {
	assetID = NormalizeAsset(assetID)
	unlock := a.locks.Lock(assetID)
	defer unlock()

	start := time.Now()
	f, err := a.analyze(ctx, assetID)
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		outcome = metrics.OutcomeInsufficient
	case err != nil:
		outcome = metrics.OutcomeError
	}
	a.metrics.ObserveAnalysis(assetID, outcome, time.Since(start))
	return f, err
}

func (a *Analyzer) analyze(ctx context.Context, assetID string) (*Forecast, error) {
	points, err := a.fetcher.FetchPriceHistory(ctx, assetID, a.opts.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", assetID, err)
	}

	bars := calculator.ConstructOHLC(points, a.opts.Interval)
	if len(bars) < a.opts.MinBars {
		a.log.Warn().Str("asset", assetID).Int("bars", len(bars)).Int("min", a.opts.MinBars).Msg("skipping analysis")
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientHistory, assetID, len(bars), a.opts.MinBars)
	}

	snap := calculator.BuildSnapshot(assetID, bars, a.opts.Params)
	assessment := strategy.Evaluate(snap, a.opts.Weights)
	dist := forecast.Distribute(assessment.Composite, assessment.Regime, snap.Price)

	now := a.now()
	f := &Forecast{
		AssetID:      assetID,
		GeneratedAt:  now,
		Price:        snap.Price,
		Bars:         len(bars),
		Snapshot:     snap,
		Assessment:   assessment,
		Distribution: dist,
	}
	breakdown := assessment.Breakdown()
	for _, h := range model.Horizons {
		hf := dist.ForHorizon(h)
		f.Predictions = append(f.Predictions, &model.Prediction{
			ID:                 uuid.NewString(),
			AssetID:            assetID,
			CreatedAt:          now,
			Horizon:            h,
			Direction:          dist.Direction,
			PredictedDirection: dist.PredictedDirection,
			Probability:        hf.Probability,
			Confidence:         hf.Confidence,
			ConfidenceLevel:    dist.ConfidenceLevel,
			PriceRange:         hf.Range,
			MostLikely:         hf.MostLikely,
			CurrentPrice:       snap.Price,
			CompositeScore:     assessment.Composite,
			Breakdown:          breakdown,
		})
	}

	f.PersistErr = a.persist(ctx, assetID, points, f)
	a.metrics.SetComposite(assetID, assessment.Composite)

	if a.evaluator != nil {
		rep, err := a.evaluator.Report(ctx, assetID, now)
		if err != nil {
			a.log.Warn().Err(err).Str("asset", assetID).Msg("accuracy report unavailable")
		}
		f.Accuracy = rep
		f.Narrative = accuracy.Narrative(rep)
	}

	a.log.Info().
		Str("asset", assetID).
		Float64("price", snap.Price).
		Float64("composite", assessment.Composite).
		Str("direction", dist.Direction).
		Str("regime", string(assessment.Regime)).
		Msg("analysis complete")
	return f, nil
}

// persist writes prices, the snapshot and the predictions. Failures are
// logged and counted; the joined error is returned for the caller.
func (a *Analyzer) persist(ctx context.Context, assetID string, points []model.PricePoint, f *Forecast) error {
	var errs []error
	fail := func(kind string, err error) {
		a.metrics.PersistFailure(kind)
		a.log.Error().Err(err).Str("asset", assetID).Str("kind", kind).Msg("persist failed")
		errs = append(errs, fmt.Errorf("save %s: %w", kind, err))
	}

	if err := a.store.SavePrices(ctx, assetID, points); err != nil {
		fail("prices", err)
	}
	if err := a.store.SaveSnapshot(ctx, f.Snapshot); err != nil {
		fail("snapshot", err)
	}
	for _, p := range f.Predictions {
		if err := a.store.SavePrediction(ctx, p); err != nil {
			fail("prediction", err)
			continue
		}
		a.metrics.PredictionPersisted(assetID, p.Horizon)
	}
	return errors.Join(errs...)
}

// Result is one asset's outcome from AnalyzeAll.
type Result struct {
	AssetID  string
	Forecast *Forecast
	Err      error
}

// NormalizeAsset maps an asset id to its canonical lowercase form.
func NormalizeAsset(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// AnalyzeAll analyzes every asset on a bounded pool of workers. Results keep
// the order of assets.
func (a *Analyzer) AnalyzeAll(ctx context.Context, assets []string) []Result {
	results := make([]Result, len(assets))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(a.opts.Workers, len(assets)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				f, err := a.Analyze(ctx, assets[i])
				results[i] = Result{AssetID: NormalizeAsset(assets[i]), Forecast: f, Err: err}
			}
		}()
	}

	for i := range assets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = Result{AssetID: NormalizeAsset(assets[i]), Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
