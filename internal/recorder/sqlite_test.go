package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CoinCast/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testPrediction(id string, h model.Horizon, created time.Time) *model.Prediction {
	return &model.Prediction{
		ID:                 id,
		AssetID:            "bitcoin",
		CreatedAt:          created,
		Horizon:            h,
		Direction:          "bullish",
		PredictedDirection: model.DirectionUp,
		Probability:        60,
		Confidence:         95,
		ConfidenceLevel:    "Very High",
		PriceRange:         model.PriceRange{Low: 95, High: 105},
		MostLikely:         101,
		CurrentPrice:       100,
		CompositeScore:     0.6,
		Breakdown:          map[model.Category]float64{model.CategoryTrend: 0.8},
	}
}

func TestSQLiteRecorder_PendingLifecycle(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	short := testPrediction("p-short", model.HorizonShort, created)
	medium := testPrediction("p-medium", model.HorizonMedium, created)
	for _, p := range []*model.Prediction{short, medium} {
		if err := r.SavePrediction(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	pending, err := r.QueryPending(ctx, created.Add(23*time.Hour))
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected nothing due before 24h, got %d (%v)", len(pending), err)
	}

	pending, err = r.QueryPending(ctx, created.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("query pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "p-short" {
		t.Fatalf("expected only the short prediction due, got %+v", pending)
	}
	got := pending[0]
	if !got.CreatedAt.Equal(created) || got.Horizon != model.HorizonShort || got.PriceRange.High != 105 {
		t.Errorf("prediction not round-tripped: %+v", got)
	}
	if got.Breakdown[model.CategoryTrend] != 0.8 {
		t.Errorf("breakdown not round-tripped: %v", got.Breakdown)
	}
	if !got.Pending() {
		t.Error("expected pending prediction")
	}

	outcome := model.Outcome{
		ActualDirection: model.DirectionUp,
		ActualPrice:     100,
		WasAccurate:     true,
		EvaluatedAt:     created.Add(25 * time.Hour),
	}
	if err := r.MarkEvaluated(ctx, "p-short", outcome); err != nil {
		t.Fatalf("mark evaluated: %v", err)
	}
	if err := r.MarkEvaluated(ctx, "p-short", outcome); !errors.Is(err, ErrAlreadyEvaluated) {
		t.Errorf("expected ErrAlreadyEvaluated on second evaluation, got %v", err)
	}
	if err := r.MarkEvaluated(ctx, "missing", outcome); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	evaluated, err := r.GetPrediction(ctx, "p-short")
	if err != nil {
		t.Fatalf("get prediction: %v", err)
	}
	if evaluated.Pending() || !evaluated.WasAccurate || evaluated.ActualDirection != model.DirectionUp {
		t.Errorf("outcome not stored: %+v", evaluated)
	}

	pending, _ = r.QueryPending(ctx, created.Add(30*24*time.Hour))
	if len(pending) != 1 || pending[0].ID != "p-medium" {
		t.Errorf("expected only the medium prediction left pending, got %+v", pending)
	}
}

func TestSQLiteRecorder_AggregateAccuracy(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	results := []struct {
		id       string
		horizon  model.Horizon
		created  time.Time
		accurate bool
	}{
		{"a", model.HorizonShort, base, true},
		{"b", model.HorizonShort, base, false},
		{"c", model.HorizonShort, base.Add(40 * 24 * time.Hour), true},
		{"d", model.HorizonMedium, base.Add(40 * 24 * time.Hour), true},
	}
	for _, res := range results {
		if err := r.SavePrediction(ctx, testPrediction(res.id, res.horizon, res.created)); err != nil {
			t.Fatalf("save: %v", err)
		}
		o := model.Outcome{ActualDirection: model.DirectionUp, ActualPrice: 100, WasAccurate: res.accurate, EvaluatedAt: res.created.Add(8 * 24 * time.Hour)}
		if err := r.MarkEvaluated(ctx, res.id, o); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}
	// pending rows never count
	if err := r.SavePrediction(ctx, testPrediction("e", model.HorizonShort, base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	tests := []struct {
		name   string
		filter model.AccuracyFilter
		want   model.AccuracyStats
	}{
		{"overall", model.AccuracyFilter{}, model.AccuracyStats{Total: 4, Accurate: 3, Percentage: 75}},
		{"short", model.AccuracyFilter{Horizon: model.HorizonShort}, model.AccuracyStats{Total: 3, Accurate: 2, Percentage: 66.67}},
		{"recent", model.AccuracyFilter{Since: base.Add(30 * 24 * time.Hour)}, model.AccuracyStats{Total: 2, Accurate: 2, Percentage: 100}},
		{"other asset", model.AccuracyFilter{AssetID: "ethereum"}, model.AccuracyStats{}},
	}
	for _, tt := range tests {
		got, err := r.AggregateAccuracy(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
	}
}

func TestSQLiteRecorder_Prices(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	vol := 10.0

	points := []model.PricePoint{
		{Time: base, Price: 100, Volume: &vol},
		{Time: base.Add(time.Hour), Price: 101},
		{Time: base.Add(2 * time.Hour), Price: 102},
	}
	if err := r.SavePrices(ctx, "bitcoin", points); err != nil {
		t.Fatalf("save prices: %v", err)
	}
	// duplicates are ignored
	if err := r.SavePrices(ctx, "bitcoin", points[:1]); err != nil {
		t.Fatalf("save duplicate: %v", err)
	}

	p, err := r.PriceAtOrBefore(ctx, "bitcoin", base.Add(90*time.Minute))
	if err != nil || p != 101 {
		t.Errorf("expected 101 at or before 01:30, got %.2f (%v)", p, err)
	}
	if _, err := r.PriceAtOrBefore(ctx, "bitcoin", base.Add(-time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before first price, got %v", err)
	}

	latest, at, err := r.LatestPrice(ctx, "bitcoin")
	if err != nil || latest != 102 || !at.Equal(base.Add(2*time.Hour)) {
		t.Errorf("expected latest 102 at 02:00, got %.2f at %v (%v)", latest, at, err)
	}
	if _, _, err := r.LatestPrice(ctx, "ethereum"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown asset, got %v", err)
	}
}

func TestSQLiteRecorder_Snapshots(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t)
	barTime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rsi := 55.5

	snap := &model.IndicatorSnapshot{
		SchemaVersion: model.SnapshotSchemaVersion,
		AssetID:       "bitcoin",
		BarTime:       barTime,
		Bars:          120,
		Price:         100,
		RSI:           &rsi,
	}
	if err := r.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	snap.Price = 101
	if err := r.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("resave snapshot for the same bar: %v", err)
	}

	got, err := r.LatestSnapshot(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if got.Price != 101 || got.RSI == nil || *got.RSI != rsi || got.MACD != nil {
		t.Errorf("unexpected snapshot %+v", got)
	}

	var rows int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM indicator_snapshots`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("expected one snapshot row per bar, got %d", rows)
	}
}

func TestSQLiteRecorder_SnapshotSchemaVersions(t *testing.T) {
	ctx := context.Background()
	barTime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		version int
		wantErr bool
	}{
		{"older", model.SnapshotSchemaVersion - 1, false},
		{"current", model.SnapshotSchemaVersion, false},
		{"newer", model.SnapshotSchemaVersion + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := openTestRecorder(t)
			snap := &model.IndicatorSnapshot{SchemaVersion: tt.version, AssetID: "bitcoin", BarTime: barTime, Price: 100}
			if err := r.SaveSnapshot(ctx, snap); err != nil {
				t.Fatalf("save snapshot: %v", err)
			}
			got, err := r.LatestSnapshot(ctx, "bitcoin")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "newer") {
					t.Errorf("expected a newer-version error, got %v", err)
				}
				return
			}
			if err != nil || got.Price != 100 {
				t.Errorf("expected snapshot to load, got %+v, %v", got, err)
			}
		})
	}
}
