package portfolio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deisterstuff/investment/pkg/logger"
)

// Request is the input of one selection run
type Request struct {
	Budget     float64
	Assets     []Asset
	RiskFree   float64
	Lookback   int
	Portfolios int
	AllowShort bool
	Flags      Flags // Sharpe/Sortino are always on
}

// Selector runs sample → adjust → simulate → pick.
// ⭐ SSOT: 호출 간 상태를 보관하지 않음 (결과는 Selection으로만 반환)
type Selector struct {
	sampler   *Sampler
	simulator *Simulator
	logger    *logger.Logger
}

// NewSelector creates a new selector
func NewSelector(sampler *Sampler, simulator *Simulator, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{
		sampler:   sampler,
		simulator: simulator,
		logger:    log,
	}
}

// Select picks the best Sharpe, best Sortino and minimum volatility
// portfolios out of req.Portfolios random candidates.
func (s *Selector) Select(ctx context.Context, req Request) (*Selection, error) {
	start := time.Now()

	returns, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, len(req.Assets))
	prices := make([]float64, len(req.Assets))
	for j, a := range req.Assets {
		tickers[j] = a.Ticker
		prices[j] = a.Price
	}

	// 1. Sample
	sampled := s.sampler.Generate(len(req.Assets), req.Portfolios, req.AllowShort)

	// 2. Adjust (중복 제거 후 인덱스 재계산)
	allocs, err := AdjustAllocations(req.Budget, sampled, prices)
	if err != nil {
		return nil, err
	}
	feasible := CandidateSet{Exposure: sampled.Exposure, Weights: make([]WeightVector, len(allocs))}
	for i, a := range allocs {
		feasible.Weights[i] = a.Weights
	}
	if feasible.Len() == 0 {
		return nil, fmt.Errorf("%w: budget %v, %d candidates", ErrNoFeasiblePortfolio, req.Budget, sampled.Len())
	}

	// 3. Simulate
	results, err := s.simulator.Simulate(ctx, feasible, returns, SimulateOptions{
		RiskFree: req.RiskFree,
		Lookback: req.Lookback,
		Flags:    req.Flags | DefaultFlags,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	// 4. Pick (목표별 독립 스캔)
	sel := &Selection{
		RunID:       uuid.New().String(),
		Budget:      req.Budget,
		Tickers:     tickers,
		Prices:      prices,
		Exposure:    feasible.Exposure,
		Sampled:     sampled.Len(),
		Feasible:    feasible.Len(),
		Candidates:  feasible,
		Allocations: allocs,
		Results:     results,
	}

	sharpeIdx, sharpeDeg := argBest(results, func(r SimulationResult) float64 { return r.Sharpe }, isFinite, greater)
	sortinoIdx, sortinoDeg := argBest(results, func(r SimulationResult) float64 { return r.Sortino }, isFinite, greater)
	minVolIdx, minVolDeg := argBest(results, func(r SimulationResult) float64 { return r.Volatility }, notNaN, less)

	sel.Sharpe = best(ObjectiveSharpe, sharpeIdx, sharpeDeg, results[sharpeIdx].Sharpe, req.Budget, allocs, results, prices)
	sel.Sortino = best(ObjectiveSortino, sortinoIdx, sortinoDeg, results[sortinoIdx].Sortino, req.Budget, allocs, results, prices)
	sel.MinVol = best(ObjectiveMinVol, minVolIdx, minVolDeg, results[minVolIdx].Sharpe, req.Budget, allocs, results, prices)

	s.logger.WithFields(map[string]interface{}{
		"run_id":      sel.RunID,
		"assets":      len(tickers),
		"sampled":     sel.Sampled,
		"feasible":    sel.Feasible,
		"sharpe":      sel.Sharpe.Ratio,
		"sortino":     sel.Sortino.Ratio,
		"min_vol":     sel.MinVol.Volatility,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Portfolio selection completed")

	return sel, nil
}

// validateRequest checks preconditions and returns the periods × assets matrix
func validateRequest(req Request) ([][]float64, error) {
	if !(req.Budget > 0) || math.IsInf(req.Budget, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBudget, req.Budget)
	}
	if len(req.Assets) == 0 {
		return nil, ErrNoAssets
	}
	if req.Portfolios <= 0 {
		return nil, fmt.Errorf("%w: portfolios must be > 0, got %d", ErrInvalidRequest, req.Portfolios)
	}
	if req.Lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be > 0, got %d", ErrInvalidRequest, req.Lookback)
	}

	periods := len(req.Assets[0].Returns)
	for _, a := range req.Assets {
		if !(a.Price > 0) || math.IsInf(a.Price, 0) {
			return nil, fmt.Errorf("%w: %s has price %v", ErrInvalidPrice, a.Ticker, a.Price)
		}
		if len(a.Returns) != periods {
			return nil, fmt.Errorf("%w: %s has %d returns, expected %d",
				ErrDimensionMismatch, a.Ticker, len(a.Returns), periods)
		}
	}
	if periods == 0 {
		return nil, ErrEmptyHistory
	}

	returns := make([][]float64, periods)
	for t := range returns {
		row := make([]float64, len(req.Assets))
		for j, a := range req.Assets {
			row[j] = a.Returns[t]
		}
		returns[t] = row
	}
	return returns, nil
}

// argBest scans results for the best eligible value. Ties keep the first
// index. With no eligible row it reports index 0 as degenerate.
func argBest(results []SimulationResult, key func(SimulationResult) float64, eligible func(float64) bool, better func(a, b float64) bool) (int, bool) {
	idx := -1
	var bestVal float64
	for i, r := range results {
		v := key(r)
		if !eligible(v) {
			continue
		}
		if idx < 0 || better(v, bestVal) {
			idx, bestVal = i, v
		}
	}
	if idx < 0 {
		return 0, true
	}
	return idx, false
}

// best builds the record for allocs[idx]. Shares are recomputed from the
// adjusted weights against the allocation's own cost, which gives back the
// simulated share counts. The budget only enters through Cash.
func best(obj Objective, idx int, degenerate bool, ratio, budget float64, allocs []Allocation, results []SimulationResult, prices []float64) BestPortfolio {
	alloc := allocs[idx]
	weights := make(WeightVector, len(alloc.Weights))
	copy(weights, alloc.Weights)

	shares := Shares(weights, alloc.Cost, prices)
	spent := Spent(shares, prices)

	return BestPortfolio{
		Objective:  obj,
		Index:      idx,
		Weights:    weights,
		Shares:     shares,
		Spent:      spent,
		Cash:       decimal.NewFromFloat(budget).Sub(spent),
		Return:     results[idx].ExpectedReturn,
		Volatility: results[idx].Volatility,
		Ratio:      ratio,
		Degenerate: degenerate,
	}
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
func notNaN(v float64) bool { return !math.IsNaN(v) }
func greater(a, b float64) bool { return a > b }
func less(a, b float64) bool { return a < b }
