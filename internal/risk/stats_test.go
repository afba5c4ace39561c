package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-12)
	// sample variance = 32/7
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(values), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), SampleStdDev(values), 1e-12)
}

func TestStdDevDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{1}))
	assert.True(t, math.IsNaN(SampleStdDev([]float64{1})), "single sample must be NaN")
	assert.True(t, math.IsNaN(SampleStdDev(nil)))
	assert.Equal(t, 0.0, SampleStdDev([]float64{0.5, 0.5, 0.5}))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{100, 5},
		{25, 2},
		{10, 1.4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}

	got := Percentiles([]float64{5, 1, 3, 2, 4}, []int{50, 100})
	assert.InDelta(t, 3.0, got[50], 1e-12)
	assert.InDelta(t, 5.0, got[100], 1e-12)
}

func TestNormInv(t *testing.T) {
	assert.InDelta(t, 1.6449, NormInv(0.95), 1e-3)
	assert.InDelta(t, 2.3263, NormInv(0.99), 1e-3)
	assert.InDelta(t, 0.0, NormInv(0.5), 1e-9)
	assert.InDelta(t, -NormInv(0.01), NormInv(0.99), 1e-9)
	assert.Equal(t, 0.0, NormInv(0))
}
