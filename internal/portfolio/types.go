package portfolio

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Asset is one tradable instrument with its latest price and
// chronological per-period returns.
type Asset struct {
	Ticker  string    `json:"ticker"`
	Price   float64   `json:"price"`
	Returns []float64 `json:"-"`
}

// WeightVector is one allocation over the asset universe.
type WeightVector []float64

// Sum returns the net exposure of the vector
func (w WeightVector) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Dot returns w · x
func (w WeightVector) Dot(x []float64) float64 {
	var s float64
	for j, v := range w {
		s += v * x[j]
	}
	return s
}

// Exposure tags which invariant a candidate set satisfies.
type Exposure int

const (
	// FullyInvested: every vector sums to 1 and entries are non-negative
	FullyInvested Exposure = iota
	// LongShort: entries are signed, net exposure is unconstrained
	LongShort
)

func (e Exposure) String() string {
	switch e {
	case FullyInvested:
		return "fully_invested"
	case LongShort:
		return "long_short"
	default:
		return fmt.Sprintf("exposure(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler
func (e Exposure) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Exposure) UnmarshalText(b []byte) error {
	switch string(b) {
	case "fully_invested":
		*e = FullyInvested
	case "long_short":
		*e = LongShort
	default:
		return fmt.Errorf("unknown exposure %q", string(b))
	}
	return nil
}

// CandidateSet is M weight vectors over the same N assets.
type CandidateSet struct {
	Exposure Exposure
	Weights  []WeightVector
}

// Len returns the number of candidates
func (c CandidateSet) Len() int {
	return len(c.Weights)
}

// Width returns the number of assets (0 for an empty set)
func (c CandidateSet) Width() int {
	if len(c.Weights) == 0 {
		return 0
	}
	return len(c.Weights[0])
}

// SimulationResult describes candidate i of the simulated set.
// Disabled ratios are NaN.
type SimulationResult struct {
	ExpectedReturn     float64 // growth multiplier (1 + net)
	Volatility         float64
	DownsideVolatility float64
	Sharpe             float64
	Sortino            float64
	Omega              float64
}

// Objective names a selection criterion
type Objective string

const (
	ObjectiveSharpe  Objective = "sharpe"
	ObjectiveSortino Objective = "sortino"
	ObjectiveMinVol  Objective = "min_vol"
)

// Objectives lists every objective in report order
func Objectives() []Objective {
	return []Objective{ObjectiveSharpe, ObjectiveSortino, ObjectiveMinVol}
}

// BestPortfolio is the winning candidate for one objective.
// ⭐ SSOT: Shares/Spent는 조정된 가중치 × 배분 비용에서 같은 반올림 규칙으로 재계산
type BestPortfolio struct {
	Objective  Objective
	Index      int
	Weights    WeightVector
	Shares     []int64
	Spent      decimal.Decimal
	Cash       decimal.Decimal
	Return     float64
	Volatility float64
	Ratio      float64
	Degenerate bool
}

// bestPortfolioJSON NaN/Inf는 null로 인코딩 (encoding/json은 NaN을 거부함)
type bestPortfolioJSON struct {
	Objective  Objective       `json:"objective"`
	Index      int             `json:"index"`
	Weights    []float64       `json:"weights"`
	Shares     []int64         `json:"shares"`
	Spent      decimal.Decimal `json:"spent"`
	Cash       decimal.Decimal `json:"cash"`
	Return     *float64        `json:"return"`
	Volatility *float64        `json:"volatility"`
	Ratio      *float64        `json:"ratio"`
	Degenerate bool            `json:"degenerate"`
}

// MarshalJSON implements json.Marshaler
func (b BestPortfolio) MarshalJSON() ([]byte, error) {
	return json.Marshal(bestPortfolioJSON{
		Objective:  b.Objective,
		Index:      b.Index,
		Weights:    b.Weights,
		Shares:     b.Shares,
		Spent:      b.Spent,
		Cash:       b.Cash,
		Return:     finiteOrNil(b.Return),
		Volatility: finiteOrNil(b.Volatility),
		Ratio:      finiteOrNil(b.Ratio),
		Degenerate: b.Degenerate,
	})
}

// UnmarshalJSON implements json.Unmarshaler (null → NaN)
func (b *BestPortfolio) UnmarshalJSON(data []byte) error {
	var raw bestPortfolioJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BestPortfolio{
		Objective:  raw.Objective,
		Index:      raw.Index,
		Weights:    raw.Weights,
		Shares:     raw.Shares,
		Spent:      raw.Spent,
		Cash:       raw.Cash,
		Return:     nanIfNil(raw.Return),
		Volatility: nanIfNil(raw.Volatility),
		Ratio:      nanIfNil(raw.Ratio),
		Degenerate: raw.Degenerate,
	}
	return nil
}

// Selection is the full outcome of one Select call.
// Candidates/Allocations/Results are kept in memory only and share indices.
type Selection struct {
	RunID    string        `json:"run_id"`
	Budget   float64       `json:"budget"`
	Tickers  []string      `json:"tickers"`
	Prices   []float64     `json:"prices"`
	Exposure Exposure      `json:"exposure"`
	Sampled  int           `json:"sampled"`
	Feasible int           `json:"feasible"`
	Sharpe   BestPortfolio `json:"sharpe"`
	Sortino  BestPortfolio `json:"sortino"`
	MinVol   BestPortfolio `json:"min_vol"`

	Candidates  CandidateSet       `json:"-"`
	Allocations []Allocation       `json:"-"`
	Results     []SimulationResult `json:"-"`
}

// Best returns the record for the given objective
func (s *Selection) Best(obj Objective) (BestPortfolio, bool) {
	switch obj {
	case ObjectiveSharpe:
		return s.Sharpe, true
	case ObjectiveSortino:
		return s.Sortino, true
	case ObjectiveMinVol:
		return s.MinVol, true
	default:
		return BestPortfolio{}, false
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nanIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
