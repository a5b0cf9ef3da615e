package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"CoinCast/internal/model"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveAnalysis("bitcoin", OutcomeOK, 150*time.Millisecond)
	m.ObserveAnalysis("bitcoin", OutcomeOK, 50*time.Millisecond)
	m.ObserveAnalysis("bitcoin", OutcomeInsufficient, time.Millisecond)
	m.PredictionPersisted("bitcoin", model.HorizonShort)
	m.PersistFailure("snapshot")
	m.ObserveEvaluation("bitcoin", model.HorizonMedium, true)
	m.SetComposite("bitcoin", 0.42)

	if got := testutil.ToFloat64(m.analyses.WithLabelValues("bitcoin", OutcomeOK)); got != 2 {
		t.Errorf("expected 2 ok analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.predictions.WithLabelValues("bitcoin", "short")); got != 1 {
		t.Errorf("expected 1 persisted prediction, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistFailures.WithLabelValues("snapshot")); got != 1 {
		t.Errorf("expected 1 snapshot failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("bitcoin", "medium", "true")); got != 1 {
		t.Errorf("expected 1 accurate evaluation, got %v", got)
	}
	if got := testutil.ToFloat64(m.composite.WithLabelValues("bitcoin")); got != 0.42 {
		t.Errorf("expected composite 0.42, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetComposite("ethereum", -0.3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `coincast_analysis_composite_score{asset="ethereum"} -0.3`) {
		t.Errorf("composite gauge missing from exposition:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAnalysis("bitcoin", OutcomeError, time.Second)
	m.PersistFailure("prediction")
	m.ObserveEvaluation("bitcoin", model.HorizonShort, false)
	if m.Handler() == nil {
		t.Error("expected a handler from nil metrics")
	}
}
