package portfolio

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Allocation is one affordable integer-share purchase.
type Allocation struct {
	Shares  []int64
	Cost    float64
	Weights WeightVector // shares × prices / cost
}

// RoundShares converts a weight into a share count (round half to even).
func RoundShares(weight, budget, price float64) int64 {
	return int64(math.RoundToEven(weight * budget / price))
}

// Shares converts a weight vector into share counts for the budget
func Shares(weights WeightVector, budget float64, prices []float64) []int64 {
	shares := make([]int64, len(weights))
	for j, w := range weights {
		shares[j] = RoundShares(w, budget, prices[j])
	}
	return shares
}

// Spent returns Σ shares × price in exact decimal arithmetic
func Spent(shares []int64, prices []float64) decimal.Decimal {
	total := decimal.Zero
	for j, n := range shares {
		total = total.Add(decimal.NewFromFloat(prices[j]).Mul(decimal.NewFromInt(n)))
	}
	return total
}

// Adjust rounds every candidate to whole shares, removes duplicate share
// rows and renormalises the survivors so each sums to 1. The result may be
// smaller than the input and keeps its Exposure tag.
func Adjust(budget float64, candidates CandidateSet, prices []float64) (CandidateSet, error) {
	allocs, err := AdjustAllocations(budget, candidates, prices)
	if err != nil {
		return CandidateSet{}, err
	}

	out := CandidateSet{
		Exposure: candidates.Exposure,
		Weights:  make([]WeightVector, len(allocs)),
	}
	for i, a := range allocs {
		out.Weights[i] = a.Weights
	}
	return out, nil
}

// AdjustAllocations is Adjust keeping share counts and cost per row.
//
// Rows are ordered lexicographically by share counts. Rows whose cost is
// zero (every asset rounds to zero, or longs and shorts cancel out) are
// dropped.
//
// In LongShort mode a row whose shorts outweigh its longs has a negative
// cost. Dividing by it flips every weight sign, so shares [2, -16] at
// prices [100, 50] (cost -600) become weights [-1/3, 4/3]: the simulator
// then scores the inverted book. Shares(Weights, Cost, prices) still
// returns the original share counts.
func AdjustAllocations(budget float64, candidates CandidateSet, prices []float64) ([]Allocation, error) {
	if err := validateMarket(budget, prices); err != nil {
		return nil, err
	}

	// 1. 정수 주식 수로 반올림
	rows := make([][]int64, 0, candidates.Len())
	for i, w := range candidates.Weights {
		if len(w) != len(prices) {
			return nil, fmt.Errorf("%w: candidate %d has %d weights, %d prices",
				ErrDimensionMismatch, i, len(w), len(prices))
		}
		rows = append(rows, Shares(w, budget, prices))
	}

	// 2. 중복 제거 (사전순 정렬)
	slices.SortFunc(rows, func(a, b []int64) int { return slices.Compare(a, b) })
	rows = slices.CompactFunc(rows, func(a, b []int64) bool { return slices.Equal(a, b) })

	// 3~4. 비용 계산 + 재정규화
	allocs := make([]Allocation, 0, len(rows))
	for _, shares := range rows {
		var cost float64
		for j, n := range shares {
			cost += float64(n) * prices[j]
		}
		if cost == 0 {
			continue
		}

		weights := make(WeightVector, len(shares))
		for j, n := range shares {
			weights[j] = float64(n) * prices[j] / cost
		}
		allocs = append(allocs, Allocation{Shares: shares, Cost: cost, Weights: weights})
	}

	return allocs, nil
}

func validateMarket(budget float64, prices []float64) error {
	if !(budget > 0) || math.IsInf(budget, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidBudget, budget)
	}
	if len(prices) == 0 {
		return ErrNoAssets
	}
	for j, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: asset %d has price %v", ErrInvalidPrice, j, p)
		}
	}
	return nil
}
