package portfolio

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler draws random candidate weight vectors.
// The RNG is the only shared state and is guarded by mu.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a sampler (seed 0 = time seeded)
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSamplerWithSource(rand.NewSource(seed))
}

// NewSamplerWithSource creates a sampler over an explicit random source
func NewSamplerWithSource(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// Generate draws nPortfolios weight vectors over nAssets.
//
// Each portfolio is normalised to sum to 1. With allowShort every entry is
// then multiplied by an independent ±1 coin flip, so rows no longer sum to 1
// and the set is tagged LongShort. Callers that need fully invested vectors
// must disable shorting or renormalise downstream.
func (s *Sampler) Generate(nAssets, nPortfolios int, allowShort bool) CandidateSet {
	exposure := FullyInvested
	if allowShort {
		exposure = LongShort
	}
	if nAssets <= 0 || nPortfolios <= 0 {
		return CandidateSet{Exposure: exposure}
	}

	raw, signs := s.draw(nAssets, nPortfolios, allowShort)

	// 1. 열(포트폴리오)별 합계
	sums := make([]float64, nPortfolios)
	for j := 0; j < nAssets; j++ {
		for i := 0; i < nPortfolios; i++ {
			sums[i] += raw[j][i]
		}
	}

	// 2. 정규화 + 부호 마스크
	weights := make([]WeightVector, nPortfolios)
	for i := range weights {
		w := make(WeightVector, nAssets)
		for j := 0; j < nAssets; j++ {
			if sums[i] == 0 {
				w[j] = 1.0 / float64(nAssets)
			} else {
				w[j] = raw[j][i] / sums[i]
			}
			if signs != nil {
				w[j] *= signs[j][i]
			}
		}
		weights[i] = w
	}

	return CandidateSet{Exposure: exposure, Weights: weights}
}

// draw performs every random draw for one Generate call upfront,
// asset-major (N×M), then the sign mask in the same order.
func (s *Sampler) draw(nAssets, nPortfolios int, allowShort bool) (raw, signs [][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw = make([][]float64, nAssets)
	for j := range raw {
		row := make([]float64, nPortfolios)
		for i := range row {
			row[i] = s.rng.Float64()
		}
		raw[j] = row
	}

	if !allowShort {
		return raw, nil
	}

	signs = make([][]float64, nAssets)
	for j := range signs {
		row := make([]float64, nPortfolios)
		for i := range row {
			if s.rng.Intn(2) == 0 {
				row[i] = -1
			} else {
				row[i] = 1
			}
		}
		signs[j] = row
	}
	return raw, signs
}
