package risk

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// MonteCarloSimulator bootstrap 시뮬레이터
type MonteCarloSimulator struct {
	config MonteCarloConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &MonteCarloSimulator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SimulateSimple 포트폴리오 수익률 시계열을 재샘플링하여
// 보유 기간 누적 수익률 분포를 만든다
func (mc *MonteCarloSimulator) SimulateSimple(portfolioReturns []float64) (*MonteCarloResult, error) {
	if len(portfolioReturns) == 0 {
		return nil, fmt.Errorf("%w: empty portfolio returns", ErrInsufficientData)
	}

	results := make([]float64, mc.config.NumSimulations)
	for i := range results {
		cumReturn := 1.0
		for d := 0; d < mc.config.HoldingPeriod; d++ {
			idx := mc.rng.Intn(len(portfolioReturns))
			cumReturn *= 1 + portfolioReturns[idx]
		}
		results[i] = cumReturn - 1
	}

	result := mc.calculateResult(results)
	result.InputSampleCount = len(portfolioReturns)
	return result, nil
}

// calculateResult 시뮬레이션 결과 통계 계산
func (mc *MonteCarloSimulator) calculateResult(simulated []float64) *MonteCarloResult {
	var95 := CalculateVaR(simulated, 0.95)
	var99 := CalculateVaR(simulated, 0.99)

	return &MonteCarloResult{
		RunID:       uuid.New().String(),
		Config:      mc.config,
		MeanReturn:  Mean(simulated),
		StdDev:      StdDev(simulated),
		VaR95:       var95.VaR,
		CVaR95:      var95.CVaR,
		VaR99:       var99.VaR,
		CVaR99:      var99.CVaR,
		Percentiles: Percentiles(simulated, []int{1, 5, 10, 25, 50, 75, 90, 95, 99}),
		CreatedAt:   time.Now(),
	}
}
