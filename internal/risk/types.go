package risk

import "time"

// VaRResult VaR 계산 결과
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// MonteCarloConfig bootstrap 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type MonteCarloConfig struct {
	NumSimulations   int       `json:"num_simulations"`   // 시뮬레이션 횟수 (기본: 5000)
	HoldingPeriod    int       `json:"holding_period"`    // 보유 기간 (기간 수, 기본: 5)
	ConfidenceLevels []float64 `json:"confidence_levels"` // 신뢰수준 [0.95, 0.99]
	Seed             int64     `json:"seed"`              // 재현성용 시드 (0=랜덤)
	MinSamples       int       `json:"min_samples"`       // 최소 샘플 수 (fail-closed)
}

// DefaultMonteCarloConfig 기본 설정
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		NumSimulations:   5000,
		HoldingPeriod:    5,
		ConfidenceLevels: []float64{0.95, 0.99},
		MinSamples:       30,
	}
}

// MonteCarloResult bootstrap 시뮬레이션 결과
type MonteCarloResult struct {
	RunID            string           `json:"run_id"`
	Config           MonteCarloConfig `json:"config"`
	InputSampleCount int              `json:"input_sample_count"`
	MeanReturn       float64          `json:"mean_return"`
	StdDev           float64          `json:"std_dev"`
	VaR95            float64          `json:"var_95"`
	CVaR95           float64          `json:"cvar_95"`
	VaR99            float64          `json:"var_99"`
	CVaR99           float64          `json:"cvar_99"`
	Percentiles      map[int]float64  `json:"percentiles"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Report 선택된 포트폴리오의 사후 리스크 리포트
type Report struct {
	Periods          int               `json:"periods"`
	VaR95            float64           `json:"var_95"`
	CVaR95           float64           `json:"cvar_95"`
	ParametricVaR95  float64           `json:"parametric_var_95"`
	ParametricCVaR95 float64           `json:"parametric_cvar_95"`
	MaxDrawdown      float64           `json:"max_drawdown"`
	Cumulative       float64           `json:"cumulative_return"`
	Bootstrap        *MonteCarloResult `json:"bootstrap,omitempty"`
}
