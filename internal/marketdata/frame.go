package marketdata

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/deisterstuff/investment/internal/portfolio"
)

// Frame is a dates × tickers matrix of prices (or returns).
// Missing observations are NaN.
type Frame struct {
	Dates   []time.Time
	Tickers []string
	Values  [][]float64 // Values[row][col]
}

// NewFrame outer-joins per-ticker series on date. Columns follow tickers
// order; duplicate dates within one series are averaged.
func NewFrame(tickers []string, series map[string][]Bar) *Frame {
	type acc struct{ sum, n float64 }

	cells := make(map[time.Time][]acc)
	for col, ticker := range tickers {
		for _, b := range series[ticker] {
			d := dateOnly(b.Date)
			row, ok := cells[d]
			if !ok {
				row = make([]acc, len(tickers))
				cells[d] = row
			}
			row[col].sum += b.Close
			row[col].n++
		}
	}

	dates := make([]time.Time, 0, len(cells))
	for d := range cells {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([][]float64, len(dates))
	for i, d := range dates {
		row := make([]float64, len(tickers))
		for col, a := range cells[d] {
			if a.n == 0 {
				row[col] = math.NaN()
			} else {
				row[col] = a.sum / a.n
			}
		}
		values[i] = row
	}

	return &Frame{
		Dates:   dates,
		Tickers: append([]string(nil), tickers...),
		Values:  values,
	}
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Dates)
}

// Column returns a copy of one ticker's column
func (f *Frame) Column(ticker string) ([]float64, bool) {
	col := f.index(ticker)
	if col < 0 {
		return nil, false
	}
	out := make([]float64, len(f.Values))
	for i, row := range f.Values {
		out[i] = row[col]
	}
	return out, true
}

// index 대소문자 무시
func (f *Frame) index(ticker string) int {
	for i, t := range f.Tickers {
		if strings.EqualFold(t, ticker) {
			return i
		}
	}
	return -1
}

func (f *Frame) clone() *Frame {
	values := make([][]float64, len(f.Values))
	for i, row := range f.Values {
		values[i] = append([]float64(nil), row...)
	}
	return &Frame{
		Dates:   append([]time.Time(nil), f.Dates...),
		Tickers: append([]string(nil), f.Tickers...),
		Values:  values,
	}
}

// FillForward carries the last observed value over missing cells
func (f *Frame) FillForward() *Frame {
	out := f.clone()
	for i := 1; i < len(out.Values); i++ {
		for col, v := range out.Values[i] {
			if math.IsNaN(v) {
				out.Values[i][col] = out.Values[i-1][col]
			}
		}
	}
	return out
}

// DropIncomplete removes rows that still contain a missing value
func (f *Frame) DropIncomplete() *Frame {
	out := &Frame{Tickers: append([]string(nil), f.Tickers...)}
	for i, row := range f.Values {
		complete := true
		for _, v := range row {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			out.Dates = append(out.Dates, f.Dates[i])
			out.Values = append(out.Values, append([]float64(nil), row...))
		}
	}
	return out
}

// PctChange returns period-over-period percentage changes. The first row
// has no predecessor and is dropped.
func (f *Frame) PctChange() *Frame {
	out := &Frame{Tickers: append([]string(nil), f.Tickers...)}
	for i := 1; i < len(f.Values); i++ {
		prev, cur := f.Values[i-1], f.Values[i]
		row := make([]float64, len(cur))
		for col := range cur {
			row[col] = cur[col]/prev[col] - 1
		}
		out.Dates = append(out.Dates, f.Dates[i])
		out.Values = append(out.Values, row)
	}
	return out
}

// Tail returns the last n rows (all rows when n >= Len)
func (f *Frame) Tail(n int) *Frame {
	out := f.clone()
	if n < 0 {
		n = 0
	}
	if n < out.Len() {
		out.Dates = out.Dates[out.Len()-n:]
		out.Values = out.Values[len(out.Values)-n:]
	}
	return out
}

// Last returns a copy of the most recent row (nil when empty)
func (f *Frame) Last() []float64 {
	if len(f.Values) == 0 {
		return nil
	}
	return append([]float64(nil), f.Values[len(f.Values)-1]...)
}

// ConvertCurrency multiplies the given columns by an exchange rate series
// aligned on date, then forward fills and drops incomplete rows.
// Dates without a rate leave the cell missing until filled.
func (f *Frame) ConvertCurrency(tickers []string, fx []Bar) (*Frame, error) {
	if len(tickers) == 0 {
		return f.clone(), nil
	}

	cols := make([]int, 0, len(tickers))
	for _, t := range tickers {
		col := f.index(t)
		if col < 0 {
			return nil, fmt.Errorf("convert currency: unknown ticker %q", t)
		}
		cols = append(cols, col)
	}

	rates := make(map[time.Time]float64, len(fx))
	for _, b := range fx {
		rates[dateOnly(b.Date)] = b.Close
	}

	out := f.clone()
	for i, d := range out.Dates {
		rate, ok := rates[d]
		for _, col := range cols {
			if !ok {
				out.Values[i][col] = math.NaN()
				continue
			}
			out.Values[i][col] *= rate
		}
	}

	return out.FillForward().DropIncomplete(), nil
}

// Assets converts a complete price frame into portfolio assets: the last
// row is the current price, percentage changes are the returns.
func (f *Frame) Assets() ([]portfolio.Asset, error) {
	if f.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 complete rows, got %d", ErrNoData, f.Len())
	}

	last := f.Last()
	returns := f.PctChange()

	assets := make([]portfolio.Asset, len(f.Tickers))
	for col, ticker := range f.Tickers {
		r, _ := returns.Column(ticker)
		assets[col] = portfolio.Asset{
			Ticker:  ticker,
			Price:   last[col],
			Returns: r,
		}
	}
	return assets, nil
}
