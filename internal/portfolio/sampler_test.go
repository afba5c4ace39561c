package portfolio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_FullyInvested(t *testing.T) {
	s := NewSampler(42)
	set := s.Generate(5, 1000, false)

	assert.Equal(t, FullyInvested, set.Exposure)
	require.Equal(t, 1000, set.Len())
	assert.Equal(t, 5, set.Width())

	for i, w := range set.Weights {
		assert.InDelta(t, 1.0, w.Sum(), 1e-9, "candidate %d", i)
		for _, v := range w {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSampler_LongShort(t *testing.T) {
	s := NewSampler(7)
	set := s.Generate(4, 500, true)

	assert.Equal(t, LongShort, set.Exposure)
	require.Equal(t, 500, set.Len())

	negatives := 0
	for _, w := range set.Weights {
		var abs float64
		for _, v := range w {
			abs += math.Abs(v)
			if v < 0 {
				negatives++
			}
		}
		// 부호를 떼면 여전히 합이 1
		assert.InDelta(t, 1.0, abs, 1e-9)
	}
	assert.Greater(t, negatives, 0)
}

func TestSampler_Reproducible(t *testing.T) {
	a := NewSampler(99).Generate(3, 50, true)
	b := NewSampler(99).Generate(3, 50, true)
	assert.Equal(t, a, b)

	c := NewSampler(100).Generate(3, 50, true)
	assert.NotEqual(t, a.Weights, c.Weights)
}

func TestSampler_DrawsAssetMajorUpfront(t *testing.T) {
	const nAssets, nPortfolios = 2, 3

	rng := rand.New(rand.NewSource(5))
	raw := make([][]float64, nAssets)
	for j := range raw {
		raw[j] = make([]float64, nPortfolios)
		for i := range raw[j] {
			raw[j][i] = rng.Float64()
		}
	}

	set := NewSamplerWithSource(rand.NewSource(5)).Generate(nAssets, nPortfolios, false)
	require.Equal(t, nPortfolios, set.Len())

	for i := 0; i < nPortfolios; i++ {
		sum := raw[0][i] + raw[1][i]
		assert.Equal(t, raw[0][i]/sum, set.Weights[i][0])
		assert.Equal(t, raw[1][i]/sum, set.Weights[i][1])
	}
}

func TestSampler_NonPositiveSizes(t *testing.T) {
	s := NewSampler(1)

	assert.Equal(t, 0, s.Generate(0, 10, false).Len())
	assert.Equal(t, 0, s.Generate(3, 0, false).Len())

	short := s.Generate(-1, 10, true)
	assert.Equal(t, LongShort, short.Exposure)
	assert.Equal(t, 0, short.Len())
}

func TestExposure_Text(t *testing.T) {
	for _, e := range []Exposure{FullyInvested, LongShort} {
		text, err := e.MarshalText()
		require.NoError(t, err)

		var back Exposure
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, e, back)
	}

	var e Exposure
	assert.Error(t, e.UnmarshalText([]byte("leveraged")))
}
