package indicators

import (
	"math"
	"slices"
)

// RSI returns the relative strength index (0-100) of closes using agg to
// average gains and losses. 70 이상 과매수, 30 이하 과매도.
// NaN when there are fewer than two closes or no movement at all.
func RSI(closes []float64, agg Aggregator) float64 {
	up, down := moves(closes)
	if up == nil {
		return math.NaN()
	}
	u, d := agg(up), agg(down)
	if u+d == 0 {
		return math.NaN()
	}
	return u / (u + d) * 100
}

// RS returns the ratio of averaged gains to averaged losses
func RS(closes []float64, agg Aggregator) float64 {
	up, down := moves(closes)
	if up == nil {
		return math.NaN()
	}
	return agg(up) / agg(down)
}

// moves splits consecutive differences into gains and losses (both ≥ 0)
func moves(closes []float64) (up, down []float64) {
	if len(closes) < 2 {
		return nil, nil
	}
	up = make([]float64, len(closes)-1)
	down = make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		up[i-1] = math.Max(diff, 0)
		down[i-1] = math.Max(-diff, 0)
	}
	return up, down
}

// Momentum is last minus first close (> 0 매수, < 0 매도)
func Momentum(closes []float64) float64 {
	if len(closes) == 0 {
		return math.NaN()
	}
	return closes[len(closes)-1] - closes[0]
}

// Stochastic returns the %K line: (close - low) / (high - low)
func Stochastic(closes []float64) float64 {
	if len(closes) == 0 {
		return math.NaN()
	}
	lo, hi := slices.Min(closes), slices.Max(closes)
	return (closes[len(closes)-1] - lo) / (hi - lo)
}

// Williams returns %R as a fraction: (high - close) / (high - low)
func Williams(closes []float64) float64 {
	if len(closes) == 0 {
		return math.NaN()
	}
	lo, hi := slices.Min(closes), slices.Max(closes)
	return (hi - closes[len(closes)-1]) / (hi - lo)
}

// MACD compares the exponential average of the last short closes with
// the exponential average of the whole window.
func MACD(closes []float64, short int) float64 {
	if len(closes) == 0 || short <= 0 {
		return math.NaN()
	}
	if short > len(closes) {
		short = len(closes)
	}
	return ExpAverage(closes[len(closes)-short:]) - ExpAverage(closes)
}
