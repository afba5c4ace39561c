package risk

import (
	"errors"
	"fmt"
)

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 데이터 수집/포트폴리오 선택은 상위 레이어(optimizer)에서 조립
type Engine struct {
	mc MonteCarloConfig
}

// NewEngine 새 리스크 엔진 생성
func NewEngine(mc MonteCarloConfig) *Engine {
	return &Engine{mc: mc}
}

var (
	ErrInsufficientData = errors.New("insufficient data for simulation")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrDimension        = errors.New("weights and returns have different widths")
)

// MonteCarlo bootstrap 시뮬레이션 (MinSamples 미만이면 실패)
func (e *Engine) MonteCarlo(portfolioReturns []float64) (*MonteCarloResult, error) {
	if err := ValidateConfig(e.mc); err != nil {
		return nil, err
	}
	if len(portfolioReturns) < e.mc.MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d",
			ErrInsufficientData, len(portfolioReturns), e.mc.MinSamples)
	}

	return NewMonteCarloSimulator(e.mc).SimulateSimple(portfolioReturns)
}

// Report 가중치와 기간별 자산 수익률(periods × assets)로 리스크 리포트 생성.
// 과거 시뮬레이션 VaR와 정규분포 가정 VaR를 함께 담는다.
// 샘플이 부족하면 Bootstrap은 비워둔다.
func (e *Engine) Report(weights []float64, returns [][]float64) (*Report, error) {
	series, err := PortfolioSeries(weights, returns)
	if err != nil {
		return nil, err
	}

	v := CalculateVaR(series, 0.95)
	curve := GrowthCurve(series)

	report := &Report{
		Periods:     len(series),
		VaR95:       v.VaR,
		CVaR95:      v.CVaR,
		MaxDrawdown: MaxDrawdown(curve),
		Cumulative:  curve[len(curve)-1] - 1,
	}

	// 표본 표준편차는 2기간 이상 필요 (미만이면 0으로 둠)
	if len(series) >= 2 {
		pv := CalculateParametricVaR(Mean(series), SampleStdDev(series), 0.95)
		report.ParametricVaR95 = pv.VaR
		report.ParametricCVaR95 = pv.CVaR
	}

	mc, err := e.MonteCarlo(series)
	switch {
	case err == nil:
		report.Bootstrap = mc
	case errors.Is(err, ErrInsufficientData):
	default:
		return nil, err
	}

	return report, nil
}

// PortfolioSeries 기간별 가중 포트폴리오 수익률 (w · r_t)
func PortfolioSeries(weights []float64, returns [][]float64) ([]float64, error) {
	series := make([]float64, len(returns))
	for t, row := range returns {
		if len(row) != len(weights) {
			return nil, fmt.Errorf("%w: period %d has %d assets, weights have %d",
				ErrDimension, t, len(row), len(weights))
		}
		var r float64
		for j, w := range weights {
			r += w * row[j]
		}
		series[t] = r
	}
	return series, nil
}

// ValidateConfig 설정 유효성 검사
func ValidateConfig(config MonteCarloConfig) error {
	if config.NumSimulations <= 0 {
		return fmt.Errorf("%w: NumSimulations must be > 0", ErrInvalidConfig)
	}
	if config.HoldingPeriod <= 0 {
		return fmt.Errorf("%w: HoldingPeriod must be > 0", ErrInvalidConfig)
	}
	if config.MinSamples <= 0 {
		return fmt.Errorf("%w: MinSamples must be > 0", ErrInvalidConfig)
	}
	for _, cl := range config.ConfidenceLevels {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("%w: ConfidenceLevel must be between 0 and 1", ErrInvalidConfig)
		}
	}
	return nil
}
