package calculator

import (
	"testing"

	"CoinCast/internal/model"
)

func TestBuildSnapshot_ShortHistory(t *testing.T) {
	bars := barsFromCloses(randomWalk(10, 2), 0.5)
	snap := BuildSnapshot("bitcoin", bars, DefaultParams())
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.RSI != nil || snap.MACD != nil || snap.ADX != nil || snap.Ichimoku != nil || snap.Volatility != nil {
		t.Errorf("expected nil indicators without enough history, got %+v", snap)
	}
	if snap.MovingAverages != nil {
		t.Errorf("expected no moving averages on 10 bars, got %+v", snap.MovingAverages)
	}
	if snap.Price != bars[len(bars)-1].Close || snap.Bars != 10 {
		t.Errorf("unexpected header: price=%.2f bars=%d", snap.Price, snap.Bars)
	}
}

func TestBuildSnapshot_FullHistory(t *testing.T) {
	bars := barsFromCloses(randomWalk(300, 4), 0.5)
	snap := BuildSnapshot("ethereum", bars, DefaultParams())

	if snap.SchemaVersion != model.SnapshotSchemaVersion {
		t.Errorf("expected schema version %d, got %d", model.SnapshotSchemaVersion, snap.SchemaVersion)
	}
	if !snap.BarTime.Equal(bars[len(bars)-1].Time) {
		t.Error("bar time should be the latest bar")
	}
	ma := snap.MovingAverages
	if ma == nil || ma.SMA20 == nil || ma.SMA50 == nil || ma.SMA200 == nil || ma.EMA12 == nil || ma.EMA26 == nil {
		t.Fatalf("expected every moving average, got %+v", ma)
	}
	if snap.RSI == nil || snap.MACD == nil || snap.MACD.PrevHistogram == nil {
		t.Error("expected RSI and MACD with a previous histogram")
	}
	if snap.Bollinger == nil || snap.ATR == nil || snap.Stochastic == nil || snap.ADX == nil {
		t.Error("expected volatility and trend-strength indicators")
	}
	if snap.CCI == nil || snap.ROC == nil || snap.Volatility == nil || snap.Volume == nil || snap.OBV == nil {
		t.Error("expected CCI, ROC, volatility, volume and OBV")
	}
	if snap.Levels == nil || snap.Ichimoku == nil {
		t.Error("expected levels and ichimoku")
	}
	if *snap.RSI < 0 || *snap.RSI > 100 {
		t.Errorf("RSI out of range: %.2f", *snap.RSI)
	}
}

func TestBuildSnapshot_NoBars(t *testing.T) {
	if BuildSnapshot("bitcoin", nil, DefaultParams()) != nil {
		t.Error("expected nil snapshot for no bars")
	}
}
