package calculator

// rsNoLoss is the relative strength used when the average loss is zero.
const rsNoLoss = 100.0

// RSI computes the Wilder-smoothed relative strength index. The first value
// is produced after n price changes, so warm-up is n and the result has
// len(values)-n elements. Every value lies in [0, 100].
func RSI(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n+1 {
		return nil
	}

	// Initial average gain/loss over the first n changes
	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)

	out := make([]float64, len(values)-n)
	out[0] = rsiValue(avgGain, avgLoss)

	for i := n + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i-n] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	rs := rsNoLoss
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100.0 - 100.0/(1.0+rs)
}
