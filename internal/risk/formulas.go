package risk

import "math"

// CAPM expected return: rf + β·(rm − rf)
func CAPM(riskFree, beta, marketReturn float64) float64 {
	return riskFree + beta*(marketReturn-riskFree)
}

// KellyFraction 투자 비중 (Kelly rule)
// p: 이길 확률, gain: 이기면 1+gain, loss: 지면 1-loss
func KellyFraction(p, gain, loss float64) float64 {
	q := 1 - p
	return p/loss - q/gain
}

// Annuity 정기 적립금의 미래가치
// payment: 기간당 적립액, rate: 기간당 유효이율 (예: 연 5% 월납 → 0.05/12), periods: 기간 수
func Annuity(payment, rate float64, periods int) float64 {
	if rate == 0 {
		return payment * float64(periods)
	}
	factor := math.Pow(1+rate, float64(periods))
	return payment * (factor - 1) / rate
}
