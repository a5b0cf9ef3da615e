// Package metrics exposes forecasting pipeline instrumentation to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CoinCast/internal/model"
)

const namespace = "coincast"

// Analysis outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient_history"
	OutcomeError        = "error"
)

// Metrics holds every collector on its own registry. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	composite       *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis runs by asset and outcome",
		}, []string{"asset", "outcome"}),
		analysisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "Latency of a full asset analysis",
			Buckets:   prometheus.DefBuckets,
		}, []string{"asset"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "predictions",
			Name:      "persisted_total",
			Help:      "Predictions persisted by asset and horizon",
		}, []string{"asset", "horizon"}),
		persistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Persistence failures by kind",
		}, []string{"kind"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accuracy",
			Name:      "evaluations_total",
			Help:      "Evaluated predictions by horizon and result",
		}, []string{"asset", "horizon", "accurate"}),
		composite: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "composite_score",
			Help:      "Latest composite score per asset",
		}, []string{"asset"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAnalysis(assetID, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(assetID, outcome).Inc()
	m.analysisLatency.WithLabelValues(assetID).Observe(d.Seconds())
}

func (m *Metrics) SetComposite(assetID string, score float64) {
	if m == nil {
		return
	}
	m.composite.WithLabelValues(assetID).Set(score)
}

func (m *Metrics) PredictionPersisted(assetID string, h model.Horizon) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(assetID, string(h)).Inc()
}

// PersistFailure counts a failed write; kind is prediction, prices or snapshot.
func (m *Metrics) PersistFailure(kind string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(kind).Inc()
}

// ObserveEvaluation implements accuracy.Observer.
func (m *Metrics) ObserveEvaluation(assetID string, h model.Horizon, accurate bool) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(assetID, string(h), strconv.FormatBool(accurate)).Inc()
}
