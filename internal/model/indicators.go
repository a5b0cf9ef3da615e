package model

import "time"

// SnapshotSchemaVersion is bumped whenever a bundle changes shape.
// Readers reject payloads with a newer version than they understand.
const SnapshotSchemaVersion = 1

// IndicatorSnapshot holds the latest value of every indicator for one asset.
// A nil bundle means the history was too short to compute it.
type IndicatorSnapshot struct {
	SchemaVersion int       `json:"schema_version"`
	AssetID       string    `json:"asset_id"`
	BarTime       time.Time `json:"bar_time"`
	Bars          int       `json:"bars"`
	Price         float64   `json:"price"`

	MovingAverages *MovingAverages    `json:"moving_averages,omitempty"`
	RSI            *float64           `json:"rsi,omitempty"`
	MACD           *MACDValue         `json:"macd,omitempty"`
	Bollinger      *BollingerValue    `json:"bollinger,omitempty"`
	ATR            *float64           `json:"atr,omitempty"`
	Stochastic     *StochasticValue   `json:"stochastic,omitempty"`
	ADX            *ADXValue          `json:"adx,omitempty"`
	CCI            *float64           `json:"cci,omitempty"`
	ROC            *float64           `json:"roc,omitempty"`
	Volatility     *float64           `json:"historical_volatility,omitempty"`
	Volume         *VolumeValue       `json:"volume,omitempty"`
	OBV            *OBVValue          `json:"obv,omitempty"`
	Levels         *SupportResistance `json:"levels,omitempty"`
	Ichimoku       *IchimokuValue     `json:"ichimoku,omitempty"`
}

// MovingAverages groups the trend averages. Individual fields are nil when
// their period exceeds the available history.
type MovingAverages struct {
	SMA20  *float64 `json:"sma20,omitempty"`
	SMA50  *float64 `json:"sma50,omitempty"`
	SMA200 *float64 `json:"sma200,omitempty"`
	EMA12  *float64 `json:"ema12,omitempty"`
	EMA26  *float64 `json:"ema26,omitempty"`
}

type MACDValue struct {
	MACD          float64  `json:"macd"`
	Signal        float64  `json:"signal"`
	Histogram     float64  `json:"histogram"`
	PrevHistogram *float64 `json:"prev_histogram,omitempty"`
}

type BollingerValue struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
}

type StochasticValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

type ADXValue struct {
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
}

// VolumeValue compares the latest bar volume against its trailing average.
type VolumeValue struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
}

// OBVValue carries the latest OBV and the value a few bars back, enough to
// tell the short-window direction.
type OBVValue struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// SupportResistance lists clustered levels, nearest first.
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

type IchimokuValue struct {
	Tenkan  float64 `json:"tenkan"`
	Kijun   float64 `json:"kijun"`
	SenkouA float64 `json:"senkou_a"`
	SenkouB float64 `json:"senkou_b"`
	Chikou  float64 `json:"chikou"`
}

// Float returns a pointer to v. Used to populate optional snapshot fields.
func Float(v float64) *float64 { return &v }
