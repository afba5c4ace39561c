package portfolio

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/deisterstuff/investment/internal/risk"
)

// Flags selects which ratios Simulate fills in. Volatility is always computed.
type Flags uint8

const (
	FlagSharpe Flags = 1 << iota
	FlagSortino
	FlagOmega
)

// DefaultFlags Sharpe + Sortino
const DefaultFlags = FlagSharpe | FlagSortino

// Has reports whether f includes flag
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// SimulateOptions parameters for one simulation
type SimulateOptions struct {
	RiskFree float64
	Lookback int // 최근 N기간만 사용, 기대수익률 스케일링 계수
	Flags    Flags
}

// Simulator evaluates candidate sets against historical returns.
type Simulator struct {
	workers   int
	chunkSize int
}

// NewSimulator creates a simulator (workers <= 0 = GOMAXPROCS)
func NewSimulator(workers int) *Simulator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Simulator{workers: workers, chunkSize: 512}
}

// window 시뮬레이션에 필요한 자산별 사전 계산값
type window struct {
	rows  [][]float64 // periods × assets
	means []float64   // mean × lookback
	downs []float64   // mean(|min(r,0)|) × lookback (omega only)
	clip  [][]float64 // min(r,0) per period
}

// Simulate evaluates every candidate. returns is periods × assets in
// chronological order; only the last opts.Lookback periods are used.
// Result row i always describes candidates.Weights[i].
func (s *Simulator) Simulate(ctx context.Context, candidates CandidateSet, returns [][]float64, opts SimulateOptions) ([]SimulationResult, error) {
	if opts.Lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be > 0, got %d", ErrInvalidRequest, opts.Lookback)
	}
	if len(returns) == 0 {
		return nil, ErrEmptyHistory
	}

	w, err := newWindow(returns, opts)
	if err != nil {
		return nil, err
	}

	nAssets := len(w.means)
	for i, c := range candidates.Weights {
		if len(c) != nAssets {
			return nil, fmt.Errorf("%w: candidate %d has %d weights, history has %d assets",
				ErrDimensionMismatch, i, len(c), nAssets)
		}
	}

	results := make([]SimulationResult, candidates.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(results); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(results) {
			end = len(results)
		}
		start := start

		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%64 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				results[i] = w.evaluate(candidates.Weights[i], opts)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newWindow(returns [][]float64, opts SimulateOptions) (*window, error) {
	rows := returns
	if len(rows) > opts.Lookback {
		rows = rows[len(rows)-opts.Lookback:]
	}

	nAssets := len(rows[0])
	if nAssets == 0 {
		return nil, ErrEmptyHistory
	}
	for t, row := range rows {
		if len(row) != nAssets {
			return nil, fmt.Errorf("%w: period %d has %d returns, expected %d",
				ErrDimensionMismatch, t, len(row), nAssets)
		}
	}

	scale := float64(opts.Lookback)
	periods := float64(len(rows))

	w := &window{
		rows:  rows,
		means: make([]float64, nAssets),
		clip:  make([][]float64, len(rows)),
	}
	if opts.Flags.Has(FlagOmega) {
		w.downs = make([]float64, nAssets)
	}

	for t, row := range rows {
		clipped := make([]float64, nAssets)
		for j, r := range row {
			w.means[j] += r
			if r < 0 {
				clipped[j] = r
				if w.downs != nil {
					w.downs[j] -= r
				}
			}
		}
		w.clip[t] = clipped
	}

	for j := range w.means {
		w.means[j] = w.means[j] / periods * scale
		if w.downs != nil {
			w.downs[j] = w.downs[j] / periods * scale
		}
	}

	return w, nil
}

// evaluate computes one result row. Zero denominators propagate as ±Inf/NaN.
func (w *window) evaluate(weights WeightVector, opts SimulateOptions) SimulationResult {
	ret := weights.Dot(w.means) + 1
	excess := ret - opts.RiskFree

	series := make([]float64, len(w.rows))
	for t, row := range w.rows {
		series[t] = weights.Dot(row)
	}

	// 하방 변동성: 양수 기간을 0으로 채운 시계열의 표준편차
	down := make([]float64, len(w.clip))
	for t, row := range w.clip {
		down[t] = weights.Dot(row)
	}

	res := SimulationResult{
		ExpectedReturn:     ret,
		Volatility:         risk.SampleStdDev(series),
		DownsideVolatility: risk.SampleStdDev(down),
		Sharpe:             math.NaN(),
		Sortino:            math.NaN(),
		Omega:              math.NaN(),
	}

	if opts.Flags.Has(FlagSharpe) {
		res.Sharpe = excess / res.Volatility
	}
	if opts.Flags.Has(FlagSortino) {
		res.Sortino = excess / res.DownsideVolatility
	}
	if opts.Flags.Has(FlagOmega) {
		res.Omega = 1 + excess/(weights.Dot(w.downs)+1)
	}

	return res
}
