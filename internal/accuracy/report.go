package accuracy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinCast/internal/model"
)

// Report is the accuracy summary attached to forecasts and digests.
type Report struct {
	AssetID   string
	Overall   model.AccuracyStats
	ByHorizon map[model.Horizon]model.AccuracyStats
	Recent    model.AccuracyStats
	Window    time.Duration
}

// Report aggregates accuracy overall, per horizon and over the trailing
// window ending at now. An empty assetID covers every asset.
func (e *Evaluator) Report(ctx context.Context, assetID string, now time.Time) (*Report, error) {
	r := &Report{
		AssetID:   assetID,
		ByHorizon: make(map[model.Horizon]model.AccuracyStats, len(model.Horizons)),
		Window:    e.window,
	}

	var err error
	if r.Overall, err = e.store.AggregateAccuracy(ctx, model.AccuracyFilter{AssetID: assetID}); err != nil {
		return nil, fmt.Errorf("overall accuracy: %w", err)
	}
	for _, h := range model.Horizons {
		st, err := e.store.AggregateAccuracy(ctx, model.AccuracyFilter{AssetID: assetID, Horizon: h})
		if err != nil {
			return nil, fmt.Errorf("%s accuracy: %w", h, err)
		}
		r.ByHorizon[h] = st
	}
	since := now.Add(-e.window)
	if r.Recent, err = e.store.AggregateAccuracy(ctx, model.AccuracyFilter{AssetID: assetID, Since: since}); err != nil {
		return nil, fmt.Errorf("recent accuracy: %w", err)
	}
	return r, nil
}

// Narrative renders the report as confidence context for a forecast.
func Narrative(r *Report) string {
	if r == nil || r.Overall.Total == 0 {
		return "No evaluated forecasts yet; confidence is uncalibrated."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Historical accuracy %.2f%% over %d forecasts", r.Overall.Percentage, r.Overall.Total)

	var parts []string
	for _, h := range model.Horizons {
		if st := r.ByHorizon[h]; st.Total > 0 {
			parts = append(parts, fmt.Sprintf("%s: %.2f%%", h.Label(), st.Percentage))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if r.Recent.Total > 0 {
		fmt.Fprintf(&b, "; last %d days %.2f%% over %d", int(r.Window.Hours()/24), r.Recent.Percentage, r.Recent.Total)
	}
	b.WriteString(". ")

	switch {
	case r.Overall.Percentage >= 70:
		b.WriteString("Track record is strong.")
	case r.Overall.Percentage >= 50:
		b.WriteString("Track record is mixed.")
	default:
		b.WriteString("Track record is weak; treat this forecast with caution.")
	}
	return b.String()
}
