package marketdata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() map[string][]Bar {
	return map[string][]Bar{
		"AAA": {
			{Date: day(2024, 1, 2), Close: 10},
			{Date: day(2024, 1, 3), Close: 11},
			{Date: day(2024, 1, 3), Close: 13}, // 같은 날짜 → 평균 12
			{Date: day(2024, 1, 5), Close: 12},
		},
		"BBB": {
			{Date: day(2024, 1, 3), Close: 20},
			{Date: day(2024, 1, 4), Close: 21},
			{Date: day(2024, 1, 5), Close: 22},
		},
	}
}

func TestNewFrame_OuterJoin(t *testing.T) {
	f := NewFrame([]string{"AAA", "BBB"}, sampleSeries())

	require.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"AAA", "BBB"}, f.Tickers)
	assert.Equal(t, day(2024, 1, 2), f.Dates[0])

	assert.Equal(t, 10.0, f.Values[0][0])
	assert.True(t, math.IsNaN(f.Values[0][1]))
	assert.Equal(t, 12.0, f.Values[1][0])
	assert.True(t, math.IsNaN(f.Values[2][0]))
	assert.Equal(t, 22.0, f.Values[3][1])
}

func TestFrame_FillForwardAndDrop(t *testing.T) {
	raw := NewFrame([]string{"AAA", "BBB"}, sampleSeries())
	f := raw.FillForward().DropIncomplete()

	require.Equal(t, 3, f.Len())
	assert.Equal(t, day(2024, 1, 3), f.Dates[0])
	assert.Equal(t, []float64{12, 20}, f.Values[0])
	assert.Equal(t, []float64{12, 21}, f.Values[1])
	assert.Equal(t, []float64{12, 22}, f.Values[2])

	// 원본은 그대로
	assert.True(t, math.IsNaN(raw.Values[2][0]))
}

func TestFrame_PctChangeTailLast(t *testing.T) {
	f := NewFrame([]string{"AAA", "BBB"}, sampleSeries()).FillForward().DropIncomplete()

	pct := f.PctChange()
	require.Equal(t, 2, pct.Len())
	assert.Equal(t, day(2024, 1, 4), pct.Dates[0])
	assert.InDelta(t, 0.0, pct.Values[0][0], 1e-12)
	assert.InDelta(t, 0.05, pct.Values[0][1], 1e-12)
	assert.InDelta(t, 22.0/21.0-1, pct.Values[1][1], 1e-12)

	assert.Equal(t, 2, f.Tail(2).Len())
	assert.Equal(t, day(2024, 1, 4), f.Tail(2).Dates[0])
	assert.Equal(t, 3, f.Tail(10).Len())
	assert.Equal(t, 0, f.Tail(0).Len())

	assert.Equal(t, []float64{12, 22}, f.Last())
	assert.Nil(t, (&Frame{}).Last())
}

func TestFrame_ConvertCurrency(t *testing.T) {
	f := NewFrame([]string{"AAA", "BBB"}, sampleSeries()).FillForward().DropIncomplete()
	fx := []Bar{
		{Date: day(2024, 1, 3), Close: 2},
		{Date: day(2024, 1, 5), Close: 3},
	}

	out, err := f.ConvertCurrency([]string{"BBB"}, fx)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, []float64{12, 40}, out.Values[0])
	assert.Equal(t, []float64{12, 40}, out.Values[1]) // 환율 없는 날은 직전 값
	assert.Equal(t, []float64{12, 66}, out.Values[2])

	_, err = f.ConvertCurrency([]string{"ZZZ"}, fx)
	assert.Error(t, err)

	same, err := f.ConvertCurrency(nil, fx)
	require.NoError(t, err)
	assert.Equal(t, f.Values, same.Values)
}

func TestFrame_Assets(t *testing.T) {
	f := NewFrame([]string{"AAA", "BBB"}, sampleSeries()).FillForward().DropIncomplete()

	assets, err := f.Assets()
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "AAA", assets[0].Ticker)
	assert.Equal(t, 12.0, assets[0].Price)
	assert.Equal(t, 22.0, assets[1].Price)
	require.Len(t, assets[1].Returns, 2)
	assert.InDelta(t, 0.05, assets[1].Returns[0], 1e-12)

	_, err = f.Tail(1).Assets()
	assert.ErrorIs(t, err, ErrNoData)
}
