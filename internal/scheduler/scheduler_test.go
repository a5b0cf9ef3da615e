package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"CoinCast/internal/accuracy"
	"CoinCast/internal/analyzer"
	"CoinCast/internal/collector"
	"CoinCast/internal/model"
	"CoinCast/internal/recorder"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return nil
}

func (r *recordingSender) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

var end = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, store *recorder.SQLiteRecorder, sender Sender) *Scheduler {
	t.Helper()
	ev := accuracy.NewEvaluator(store, nil, 0)
	an := analyzer.New(fetcher, store, ev, nil, analyzer.Options{Workers: 2})
	return NewScheduler(context.Background(), an, ev, store, sender, []string{"bitcoin", "ethereum"})
}

func newStore(t *testing.T) *recorder.SQLiteRecorder {
	t.Helper()
	r, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "sched.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, newStore(t), nil)
	if err := s.RegisterAll("0 5 * * * *", "0 */15 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 cron entries, got %d", n)
	}

	bad := newTestScheduler(t, &collector.MockFetcher{}, newStore(t), nil)
	if err := bad.RegisterAll("not a cron", "0 */15 * * * *"); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestAnalysisTask_SendsForecastPerAsset(t *testing.T) {
	sender := &recordingSender{}
	fetcher := &collector.MockFetcher{Points: collector.GenerateMockPoints(100, 24*30, end)}
	s := newTestScheduler(t, fetcher, newStore(t), sender)

	s.RunAnalysisNow()

	msgs := sender.all()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if !strings.Contains(m, "forecast</b>") {
			t.Errorf("unexpected message: %s", m)
		}
	}
}

func TestAnalysisTask_InsufficientHistoryIsQuiet(t *testing.T) {
	sender := &recordingSender{}
	fetcher := &collector.MockFetcher{Points: collector.GenerateMockPoints(100, 10, end)}
	s := newTestScheduler(t, fetcher, newStore(t), sender)

	s.RunAnalysisNow()

	if msgs := sender.all(); len(msgs) != 0 {
		t.Errorf("expected no messages, got %v", msgs)
	}
}

func TestAnalysisTask_ReportsFetchFailure(t *testing.T) {
	sender := &recordingSender{}
	fetcher := &collector.MockFetcher{Err: errors.New("upstream down")}
	s := newTestScheduler(t, fetcher, newStore(t), sender)

	s.RunAnalysisNow()

	msgs := sender.all()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 failure messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "upstream down") {
		t.Errorf("failure message missing cause: %s", msgs[0])
	}
}

func TestAnalysisTask_EscapesErrorText(t *testing.T) {
	sender := &recordingSender{}
	fetcher := &collector.MockFetcher{Err: errors.New("bad gateway: <html><body>502</body></html>")}
	s := newTestScheduler(t, fetcher, newStore(t), sender)

	s.RunAnalysisNow()

	for _, m := range sender.all() {
		if strings.Contains(m, "<html>") || !strings.Contains(m, "&lt;html&gt;") {
			t.Errorf("error text not escaped: %s", m)
		}
	}
	reply := s.HandleCommand(context.Background(), "/forecast bitcoin")
	if !strings.HasPrefix(reply, "❌ ") || strings.Contains(reply, "<body>") {
		t.Errorf("command reply not escaped: %s", reply)
	}
}

func TestAccuracyTask_SendsSweepSummary(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &model.Prediction{
		ID:                 "p1",
		AssetID:            "bitcoin",
		CreatedAt:          created,
		Horizon:            model.HorizonShort,
		Direction:          "bullish",
		PredictedDirection: model.DirectionUp,
		PriceRange:         model.PriceRange{Low: 95, High: 105},
		CurrentPrice:       90,
	}
	if err := store.SavePrediction(ctx, p); err != nil {
		t.Fatalf("save prediction: %v", err)
	}
	if err := store.SavePrices(ctx, "bitcoin", []model.PricePoint{{Time: created.Add(24 * time.Hour), Price: 100}}); err != nil {
		t.Fatalf("save prices: %v", err)
	}

	sender := &recordingSender{}
	s := newTestScheduler(t, &collector.MockFetcher{}, store, sender)
	s.now = func() time.Time { return created.Add(48 * time.Hour) }

	s.accuracyTask()

	msgs := sender.all()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Evaluated: 1 | Accurate: 1") {
		t.Fatalf("unexpected messages: %v", msgs)
	}

	// nothing left to evaluate
	s.accuracyTask()
	if n := len(sender.all()); n != 1 {
		t.Errorf("expected no further messages, got %d total", n)
	}
}

func TestHandleCommand(t *testing.T) {
	fetcher := &collector.MockFetcher{Points: collector.GenerateMockPoints(100, 24*30, end)}
	s := newTestScheduler(t, fetcher, newStore(t), nil)
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/forecast bitcoin", "BITCOIN forecast"},
		{"/forecast", "Usage: /forecast"},
		{"/accuracy", "all assets"},
		{"/accuracy Bitcoin", "| bitcoin"},
		{"/indicators", "Usage: /indicators"},
		{"/indicators solana", "No indicators recorded for solana yet"},
		{"/prediction", "Usage: /prediction"},
		{"/prediction missing-id", "No prediction with id missing-id"},
		{"/start", "Available commands"},
		{"", "Tracked assets: bitcoin, ethereum"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(ctx, tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q) = %q, want substring %q", tt.command, got, tt.want)
		}
	}
}

func TestHandleCommand_ReadsRecordedHistory(t *testing.T) {
	store := newStore(t)
	fetcher := &collector.MockFetcher{Points: collector.GenerateMockPoints(100, 24*30, end)}
	s := newTestScheduler(t, fetcher, store, nil)
	ctx := context.Background()

	f, err := s.Analyzer.Analyze(ctx, "Bitcoin")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(f.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(f.Predictions))
	}

	if got := s.HandleCommand(ctx, "/indicators BITCOIN"); !strings.Contains(got, "BITCOIN indicators") || !strings.Contains(got, "720 bars") {
		t.Errorf("unexpected /indicators reply: %s", got)
	}
	id := f.Predictions[0].ID
	got := s.HandleCommand(ctx, "/prediction "+id)
	if !strings.Contains(got, "BITCOIN 24h prediction") || !strings.Contains(got, "Pending until") {
		t.Errorf("unexpected /prediction reply: %s", got)
	}
}
