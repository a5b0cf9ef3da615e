package notifier

import (
	"fmt"
	"strings"

	"CoinCast/internal/accuracy"
	"CoinCast/internal/analyzer"
	"CoinCast/internal/model"
)

var categoryLabels = map[model.Category]string{
	model.CategoryTrend:             "Trend",
	model.CategoryMomentum:          "Momentum",
	model.CategoryVolatility:        "Volatility",
	model.CategoryVolume:            "Volume",
	model.CategorySupportResistance: "Support/Resistance",
}

func directionIcon(d model.Direction) string {
	switch d {
	case model.DirectionUp:
		return "📈"
	case model.DirectionDown:
		return "📉"
	default:
		return "➖"
	}
}

// FormatForecast formats an analysis result into a Telegram message.
func FormatForecast(f *analyzer.Forecast) string {
	var b strings.Builder
	d := f.Distribution

	fmt.Fprintf(&b, "%s <b>%s forecast</b> | %s UTC\n\n", directionIcon(d.PredictedDirection),
		strings.ToUpper(f.AssetID), f.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Price: %s\n", formatPrice(f.Price))
	fmt.Fprintf(&b, "Outlook: <b>%s</b> (composite %+.3f)\n", d.Direction, f.Assessment.Composite)
	if f.Assessment.Regime != model.RegimeUnknown {
		fmt.Fprintf(&b, "Volatility: %s\n", f.Assessment.Regime)
	}
	fmt.Fprintf(&b, "Confidence: %s\n\n", d.ConfidenceLevel)

	for _, h := range model.Horizons {
		hf := d.ForHorizon(h)
		fmt.Fprintf(&b, "<b>%s</b>: %.1f%% probability, %.1f%% confidence\n", h.Label(), hf.Probability, hf.Confidence)
		fmt.Fprintf(&b, "  range %s – %s, most likely %s\n",
			formatPrice(hf.Range.Low), formatPrice(hf.Range.High), formatPrice(hf.MostLikely))
	}

	b.WriteString("\n<b>Signals:</b>\n")
	for _, s := range f.Assessment.Scores() {
		fmt.Fprintf(&b, "  %s %+.2f", categoryLabels[s.Category], s.Score)
		if len(s.Signals) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(s.Signals, "; "))
		}
		b.WriteString("\n")
	}

	if f.Narrative != "" {
		fmt.Fprintf(&b, "\n%s\n", f.Narrative)
	}
	if len(f.Predictions) > 0 {
		b.WriteString("\nTracking:")
		for _, p := range f.Predictions {
			fmt.Fprintf(&b, " %s <code>%s</code>", p.Horizon.Label(), p.ID)
		}
		b.WriteString("\n")
	}
	if f.PersistErr != nil {
		b.WriteString("\n⚠️ forecast was not fully recorded\n")
	}
	return b.String()
}

// FormatAccuracy formats an accuracy report.
func FormatAccuracy(r *accuracy.Report) string {
	var b strings.Builder
	scope := "all assets"
	if r.AssetID != "" {
		scope = r.AssetID
	}
	fmt.Fprintf(&b, "🎯 <b>Forecast accuracy</b> | %s\n\n", scope)
	writeStats(&b, "Overall", r.Overall)
	for _, h := range model.Horizons {
		writeStats(&b, h.Label(), r.ByHorizon[h])
	}
	writeStats(&b, fmt.Sprintf("Last %d days", int(r.Window.Hours()/24)), r.Recent)
	fmt.Fprintf(&b, "\n%s\n", accuracy.Narrative(r))
	return b.String()
}

func writeStats(b *strings.Builder, label string, st model.AccuracyStats) {
	if st.Total == 0 {
		fmt.Fprintf(b, "%s: no evaluated forecasts\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %.2f%% (%d/%d)\n", label, st.Percentage, st.Accurate, st.Total)
}

// FormatSweep summarizes an accuracy sweep.
func FormatSweep(res accuracy.SweepResult) string {
	return fmt.Sprintf("🧾 <b>Accuracy sweep</b>\n\nDue: %d | Evaluated: %d | Accurate: %d | Skipped: %d",
		res.Due, res.Evaluated, res.Accurate, res.Skipped)
}

// FormatSnapshot lists the latest recorded indicator values for an asset.
func FormatSnapshot(s *model.IndicatorSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s indicators</b> | bar %s UTC, %d bars\n\n",
		strings.ToUpper(s.AssetID), s.BarTime.Format("2006-01-02 15:04"), s.Bars)
	fmt.Fprintf(&b, "Price: %s\n", formatPrice(s.Price))
	if ma := s.MovingAverages; ma != nil {
		writeOptional(&b, "SMA20", ma.SMA20)
		writeOptional(&b, "SMA50", ma.SMA50)
		writeOptional(&b, "SMA200", ma.SMA200)
	}
	writeOptional(&b, "RSI", s.RSI)
	if m := s.MACD; m != nil {
		fmt.Fprintf(&b, "MACD: %.4f (signal %.4f, histogram %+.4f)\n", m.MACD, m.Signal, m.Histogram)
	}
	if bb := s.Bollinger; bb != nil {
		fmt.Fprintf(&b, "Bollinger: %s – %s (bandwidth %.2f)\n", formatPrice(bb.Lower), formatPrice(bb.Upper), bb.Bandwidth)
	}
	writeOptional(&b, "ATR", s.ATR)
	if st := s.Stochastic; st != nil {
		fmt.Fprintf(&b, "Stochastic: %%K %.1f, %%D %.1f\n", st.K, st.D)
	}
	if adx := s.ADX; adx != nil {
		fmt.Fprintf(&b, "ADX: %.1f (+DI %.1f, -DI %.1f)\n", adx.ADX, adx.PlusDI, adx.MinusDI)
	}
	writeOptional(&b, "CCI", s.CCI)
	writeOptional(&b, "ROC", s.ROC)
	if s.Volatility != nil {
		fmt.Fprintf(&b, "Volatility: %.1f%%\n", *s.Volatility)
	}
	if lv := s.Levels; lv != nil {
		fmt.Fprintf(&b, "Support: %s\nResistance: %s\n", joinPrices(lv.Support), joinPrices(lv.Resistance))
	}
	return b.String()
}

func writeOptional(b *strings.Builder, label string, v *float64) {
	if v != nil {
		fmt.Fprintf(b, "%s: %.2f\n", label, *v)
	}
}

func joinPrices(levels []float64) string {
	if len(levels) == 0 {
		return "none"
	}
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = formatPrice(l)
	}
	return strings.Join(out, ", ")
}

// FormatPrediction shows a stored prediction and its outcome, if evaluated.
func FormatPrediction(p *model.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s prediction</b> | %s UTC\n\n", directionIcon(p.PredictedDirection),
		strings.ToUpper(p.AssetID), p.Horizon.Label(), p.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Outlook: %s at %s, %.1f%% probability, %.1f%% confidence\n",
		p.Direction, formatPrice(p.CurrentPrice), p.Probability, p.Confidence)
	fmt.Fprintf(&b, "Range: %s – %s, most likely %s\n",
		formatPrice(p.PriceRange.Low), formatPrice(p.PriceRange.High), formatPrice(p.MostLikely))
	if p.Pending() {
		fmt.Fprintf(&b, "\n⏳ Pending until %s UTC\n", p.EvaluateAt().Format("2006-01-02 15:04"))
		return b.String()
	}
	verdict := "❌ missed"
	if p.WasAccurate {
		verdict = "✅ accurate"
	}
	fmt.Fprintf(&b, "\n%s: moved %s to %s (evaluated %s UTC)\n", verdict, p.ActualDirection,
		formatPrice(p.ActualPrice), p.EvaluatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp(assets []string) string {
	return "Available commands:\n" +
		"• /forecast &lt;asset&gt; run an analysis now\n" +
		"• /accuracy [asset] show forecast accuracy\n" +
		"• /indicators &lt;asset&gt; show the latest indicator snapshot\n" +
		"• /prediction &lt;id&gt; show a prediction and its outcome\n" +
		"Tracked assets: " + strings.Join(assets, ", ")
}

// formatPrice keeps significant digits for sub-dollar assets.
func formatPrice(p float64) string {
	switch {
	case p >= 1000:
		return fmt.Sprintf("%.0f", p)
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	default:
		return fmt.Sprintf("%.6f", p)
	}
}
