package calculator

// MACDSeries holds the MACD line, its signal line and the histogram.
// Signal and Histogram share the same alignment; MACD is longer.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast) - EMA(slow), the EMA(signal) of that line, and the
// histogram MACD - signal indexed on the signal series.
func MACD(values []float64, fast, slow, signal int) *MACDSeries {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil
	}
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	if fastEMA == nil || slowEMA == nil {
		return nil
	}

	n := min(len(fastEMA), len(slowEMA))
	fastOff, slowOff := len(fastEMA)-n, len(slowEMA)-n
	line := make([]float64, n)
	for i := range line {
		line[i] = fastEMA[i+fastOff] - slowEMA[i+slowOff]
	}

	sig := EMA(line, signal)
	if sig == nil {
		return nil
	}
	off := len(line) - len(sig)
	hist := make([]float64, len(sig))
	for i := range sig {
		hist[i] = line[i+off] - sig[i]
	}
	return &MACDSeries{MACD: line, Signal: sig, Histogram: hist}
}
