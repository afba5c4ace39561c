package risk

// GrowthCurve compounds per-period returns into a value curve starting at 1.
func GrowthCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1.0
	for i, r := range returns {
		curve[i+1] = curve[i] * (1.0 + r)
	}
	return curve
}

// MaxDrawdown 가격(또는 가치) 곡선의 최대 낙폭. 0에 가까울수록 좋음.
// 양수로 반환 (0.2 = 고점 대비 20% 하락)
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// RoMaD return over max drawdown (Calmar 유사). 가격 곡선 기준, 클수록 좋음.
// 평균 기간 수익률 / 최대 낙폭. 낙폭이 0이면 +Inf/NaN 그대로 전달
func RoMaD(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		changes = append(changes, values[i]/values[i-1]-1)
	}

	return Mean(changes) / MaxDrawdown(values)
}
