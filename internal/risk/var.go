package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk)
// =============================================================================

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// returns: 기간별 수익률 (양수=이익, 음수=손실)
// 반환값: VaR/CVaR 모두 손실을 양수로 표현 (0.05 = 5% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 95% VaR = 하위 5% 백분위수
	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	var varValue float64
	if sorted[idx] < 0 {
		varValue = -sorted[idx]
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        varValue,
		CVaR:       CalculateCVaR(sorted, idx),
	}
}

// CalculateCVaR Conditional VaR (Expected Shortfall)
// sorted: 오름차순 정렬된 수익률, varIdx: 이 인덱스 이하가 tail
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}

	var sum float64
	count := 0
	for i := 0; i <= varIdx && i < len(sorted); i++ {
		sum += sorted[i]
		count++
	}

	avgTail := sum / float64(count)
	if avgTail < 0 {
		return -avgTail
	}
	return 0
}

// CalculateParametricVaR 정규분포 가정 VaR 계산
func CalculateParametricVaR(mean, stdDev, confidence float64) VaRResult {
	z := NormInv(confidence)

	varValue := z*stdDev - mean
	if varValue < 0 {
		varValue = 0
	}

	// CVaR ≈ VaR + σ·φ(z)/(1-c)
	cvar := varValue + stdDev*NormPDF(z)/(1-confidence)

	return VaRResult{
		Confidence: confidence,
		VaR:        varValue,
		CVaR:       cvar,
	}
}
