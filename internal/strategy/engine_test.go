package strategy

import (
	"math"
	"strings"
	"testing"

	"CoinCast/internal/model"
)

func f(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func bullishSnapshot() *model.IndicatorSnapshot {
	return &model.IndicatorSnapshot{
		Price: 100,
		MovingAverages: &model.MovingAverages{
			SMA20:  f(98),
			SMA50:  f(95),
			SMA200: f(80),
		},
		RSI:        f(25),
		MACD:       &model.MACDValue{Histogram: 1, PrevHistogram: f(0.5)},
		Stochastic: &model.StochasticValue{K: 10, D: 12},
		ADX:        &model.ADXValue{ADX: 32, PlusDI: 30, MinusDI: 12},
		CCI:        f(-150),
		Volatility: f(55),
		Bollinger:  &model.BollingerValue{Bandwidth: 3},
		Volume:     &model.VolumeValue{Current: 2500, Average: 1000},
		OBV:        &model.OBVValue{Current: 5000, Previous: 3000},
		Levels:     &model.SupportResistance{Support: []float64{90, 99}, Resistance: []float64{120}},
	}
}

func TestEvaluate_BullishMarket(t *testing.T) {
	a := Evaluate(bullishSnapshot(), DefaultWeights())
	if a == nil {
		t.Fatal("expected assessment")
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"trend", a.Trend.Score, 1.0},
		{"momentum", a.Momentum.Score, 0.95},
		{"volatility", a.Volatility.Score, 0},
		{"volume", a.Volume.Score, 0.5},
		{"support_resistance", a.SupportResistance.Score, 0.3},
		{"composite", a.Composite, 0.25*1.0 + 0.20*0.95 + 0.15*0.5 + 0.15*0.3},
	}
	for _, tt := range tests {
		if !approx(tt.got, tt.want) {
			t.Errorf("%s: expected %.4f, got %.4f", tt.name, tt.want, tt.got)
		}
	}
	if a.Regime != model.RegimeMedium {
		t.Errorf("expected medium regime, got %q", a.Regime)
	}
	if !containsSignal(a.Volatility.Signals, "squeeze") {
		t.Errorf("expected a squeeze note, got %v", a.Volatility.Signals)
	}
}

func TestEvaluate_BearishMarket(t *testing.T) {
	snap := &model.IndicatorSnapshot{
		Price: 100,
		MovingAverages: &model.MovingAverages{
			SMA20:  f(103),
			SMA50:  f(110),
			SMA200: f(130),
		},
		RSI:        f(78),
		MACD:       &model.MACDValue{Histogram: -1, PrevHistogram: f(-0.2)},
		Stochastic: &model.StochasticValue{K: 92},
		ADX:        &model.ADXValue{ADX: 40, PlusDI: 8, MinusDI: 35},
		CCI:        f(180),
		Volume:     &model.VolumeValue{Current: 400, Average: 1000},
		OBV:        &model.OBVValue{Current: 100, Previous: 900},
		Levels:     &model.SupportResistance{Support: []float64{80}, Resistance: []float64{101}},
	}
	a := Evaluate(snap, DefaultWeights())
	if !approx(a.Trend.Score, -1.0) {
		t.Errorf("expected trend -1, got %.4f", a.Trend.Score)
	}
	if !approx(a.Momentum.Score, -0.95) {
		t.Errorf("expected momentum -0.95, got %.4f", a.Momentum.Score)
	}
	if !approx(a.Volume.Score, -0.3) {
		t.Errorf("expected volume -0.3, got %.4f", a.Volume.Score)
	}
	if !approx(a.SupportResistance.Score, -0.3) {
		t.Errorf("expected support/resistance -0.3, got %.4f", a.SupportResistance.Score)
	}
	if a.Composite >= 0 {
		t.Errorf("expected a bearish composite, got %.4f", a.Composite)
	}
}

func TestEvaluate_EmptySnapshotScoresZero(t *testing.T) {
	a := Evaluate(&model.IndicatorSnapshot{Price: 100}, DefaultWeights())
	for _, s := range a.Scores() {
		if s.Score != 0 {
			t.Errorf("%s: expected 0 without indicators, got %.2f", s.Category, s.Score)
		}
	}
	if a.Composite != 0 || a.Regime != model.RegimeUnknown {
		t.Errorf("expected neutral composite and unknown regime, got %.2f %q", a.Composite, a.Regime)
	}
	if Evaluate(nil, DefaultWeights()) != nil {
		t.Error("expected nil assessment for nil snapshot")
	}
}

func TestComposite_Clamped(t *testing.T) {
	all := Weights{Trend: 1, Momentum: 1, Volatility: 1, Volume: 1, SupportResistance: 1}
	a := Evaluate(bullishSnapshot(), all)
	if a.Composite != 1 {
		t.Errorf("expected composite clamped to 1, got %.4f", a.Composite)
	}
	a.Trend.Score, a.Momentum.Score, a.Volume.Score = -1, -1, -1
	if got := Composite(a, all); got != -1 {
		t.Errorf("expected composite clamped to -1, got %.4f", got)
	}
}

func TestComposite_NoRenormalization(t *testing.T) {
	a := &model.Assessment{
		Trend:             model.SignalScore{Score: 1},
		Momentum:          model.SignalScore{Score: 1},
		Volume:            model.SignalScore{Score: 1},
		SupportResistance: model.SignalScore{Score: 1},
	}
	if got := Composite(a, DefaultWeights()); !approx(got, 0.75) {
		t.Errorf("expected 0.75 with volatility and patterns unscored, got %.4f", got)
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	total := w.Trend + w.Momentum + w.Volatility + w.Volume + w.SupportResistance
	if !approx(total, 0.90) {
		t.Errorf("expected scored weights to total 0.90, got %.2f", total)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("default weights should validate: %v", err)
	}
	w.Momentum = 1.2
	if err := w.Validate(); err == nil {
		t.Error("expected error for weight above 1")
	}
}

func TestRegime_Boundaries(t *testing.T) {
	tests := []struct {
		vol  float64
		want model.VolatilityRegime
	}{
		{150, model.RegimeVeryHigh},
		{100.1, model.RegimeVeryHigh},
		{100, model.RegimeHigh},
		{70.5, model.RegimeHigh},
		{70, model.RegimeMedium},
		{40.1, model.RegimeMedium},
		{40, model.RegimeLow},
		{5, model.RegimeLow},
	}
	for _, tt := range tests {
		if got := Regime(tt.vol); got != tt.want {
			t.Errorf("volatility %.1f: expected %q, got %q", tt.vol, tt.want, got)
		}
	}
}

func TestScoreTrend_WeakADXIsNarrativeOnly(t *testing.T) {
	snap := &model.IndicatorSnapshot{Price: 100, ADX: &model.ADXValue{ADX: 18, PlusDI: 25, MinusDI: 10}}
	s := scoreTrend(snap)
	if s.Score != 0 {
		t.Errorf("expected no contribution from a weak ADX, got %.2f", s.Score)
	}
	if !containsSignal(s.Signals, "Weak trend") {
		t.Errorf("expected weak trend note, got %v", s.Signals)
	}
}

func TestScoreMomentum_RSIZones(t *testing.T) {
	tests := []struct {
		rsi  float64
		want float64
	}{
		{20, 0.3},
		{29.9, 0.3},
		{30, -0.1},
		{49.9, -0.1},
		{50, 0.1},
		{70, 0.1},
		{70.1, -0.3},
	}
	for _, tt := range tests {
		s := scoreMomentum(&model.IndicatorSnapshot{RSI: f(tt.rsi)})
		if !approx(s.Score, tt.want) {
			t.Errorf("RSI %.1f: expected %.2f, got %.2f", tt.rsi, tt.want, s.Score)
		}
	}
}

func TestScoreVolume_Ratios(t *testing.T) {
	tests := []struct {
		current float64
		want    float64
	}{
		{2000, 0.3},
		{1500, 0.15},
		{1000, 0},
		{500, -0.1},
	}
	for _, tt := range tests {
		s := scoreVolume(&model.IndicatorSnapshot{Volume: &model.VolumeValue{Current: tt.current, Average: 1000}})
		if !approx(s.Score, tt.want) {
			t.Errorf("volume %.0f: expected %.2f, got %.2f", tt.current, tt.want, s.Score)
		}
	}
	if s := scoreVolume(&model.IndicatorSnapshot{Volume: &model.VolumeValue{Current: 10}}); s.Score != 0 {
		t.Errorf("expected zero score for zero average, got %.2f", s.Score)
	}
}

func TestScoreSupportResistance_AlwaysEmitsLevels(t *testing.T) {
	snap := &model.IndicatorSnapshot{
		Price:  100,
		Levels: &model.SupportResistance{Support: []float64{85, 90}, Resistance: []float64{115}},
	}
	s := scoreSupportResistance(snap)
	if s.Score != 0 {
		t.Errorf("expected no contribution far from levels, got %.2f", s.Score)
	}
	if !containsSignal(s.Signals, "Support at 90.00") || !containsSignal(s.Signals, "Resistance at 115.00") {
		t.Errorf("expected nearest levels in signals, got %v", s.Signals)
	}
}

func containsSignal(signals []string, substr string) bool {
	for _, s := range signals {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
