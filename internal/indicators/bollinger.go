package indicators

import (
	"fmt"
	"math"

	"github.com/deisterstuff/investment/internal/risk"
)

// DefaultBandPeriod 20기간 이동평균 ± 2σ
const (
	DefaultBandPeriod = 20
	DefaultBandWidth  = 2.0
)

// Bands holds Bollinger bands aligned with the input closes.
// The first period-1 entries are NaN.
type Bands struct {
	Close []float64 // forward filled
	Mid   []float64
	Upper []float64
	Lower []float64
}

// Bollinger computes rolling mean ± k sample standard deviations.
// Missing closes (NaN) are forward filled first.
func Bollinger(closes []float64, period int, k float64) (*Bands, error) {
	if period < 2 {
		return nil, fmt.Errorf("bollinger: period must be >= 2, got %d", period)
	}

	n := len(closes)
	b := &Bands{
		Close: fillForward(closes),
		Mid:   make([]float64, n),
		Upper: make([]float64, n),
		Lower: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		if i+1 < period {
			b.Mid[i], b.Upper[i], b.Lower[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		window := b.Close[i+1-period : i+1]
		mean := risk.Mean(window)
		std := risk.SampleStdDev(window)
		b.Mid[i] = mean
		b.Upper[i] = mean + k*std
		b.Lower[i] = mean - k*std
	}

	return b, nil
}

// BandSignal returns +1 where the close is at or above the upper band,
// -1 at or below the lower band and 0 otherwise (including warm-up rows).
// +1 = 매도 구간, -1 = 매수 구간
func (b *Bands) BandSignal() []int {
	out := make([]int, len(b.Close))
	for i, c := range b.Close {
		switch {
		case c >= b.Upper[i]:
			out[i] = 1
		case c <= b.Lower[i]:
			out[i] = -1
		}
	}
	return out
}

// BandTouches latches band exits. Whenever the signal changes away from a
// non-zero value, the change (current - previous) is latched; the output
// is 1 while the latched change equals 1, which happens after the close
// climbs back inside from the lower band.
func (b *Bands) BandTouches() []int {
	signal := b.BandSignal()
	out := make([]int, len(signal))

	latched := 0
	for i := 1; i < len(signal); i++ {
		prev, cur := signal[i-1], signal[i]
		if prev != 0 && cur != prev {
			latched = cur - prev
		}
		if latched == 1 {
			out[i] = 1
		}
	}
	return out
}

func fillForward(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i := 1; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			out[i] = out[i-1]
		}
	}
	return out
}
