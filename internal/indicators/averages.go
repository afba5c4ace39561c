package indicators

import "math"

// Aggregator reduces a window to one value. Windows are ordered oldest
// first; weighted aggregators give the most recent value the largest weight.
type Aggregator func(x []float64) float64

// SimpleAverage is the arithmetic mean (NaN for an empty window)
func SimpleAverage(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// LinearAverage weights the k-th most recent value by (n-k)/(n(n+1)/2)
func LinearAverage(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	denom := float64(n*(n+1)) / 2
	var avg float64
	for k := 0; k < n; k++ {
		avg += x[n-1-k] * float64(n-k) / denom
	}
	return avg
}

// ExpAverage weights the k-th most recent value by e^(n-1-k)/(e^n-1)
func ExpAverage(x []float64) float64 {
	return ExpAverageBase(math.E)(x)
}

// ExpAverageBase returns an exponential aggregator with the given base.
// Weights are base^(n-1-k)/(base^n-1); with base 2 they sum to one.
func ExpAverageBase(base float64) Aggregator {
	return func(x []float64) float64 {
		n := len(x)
		if n == 0 {
			return math.NaN()
		}
		denom := math.Pow(base, float64(n)) - 1
		var avg float64
		for k := 0; k < n; k++ {
			avg += x[n-1-k] * math.Pow(base, float64(n-1-k)) / denom
		}
		return avg
	}
}
