package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: growth
budget: 2500
tickers: [AAPL, MSFT, AMXB.MX]
start: "2021-01-01"
end: "2023-12-31"
interval: 1wk
lookback: 52
omega: true
seed: 42
schedule: "0 22 * * 1-5"
currency:
  pair: MXN=X
  tickers: [AAPL, MSFT]
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "growth", p.Name)
	assert.Equal(t, 2500.0, p.Budget)
	assert.Equal(t, []string{"AAPL", "MSFT", "AMXB.MX"}, p.Tickers)
	assert.Equal(t, 52, p.Lookback)
	assert.Equal(t, int64(42), p.Seed)
	assert.True(t, p.Omega)
	assert.True(t, p.Scheduled())
	require.NotNil(t, p.Currency)
	assert.Equal(t, "MXN=X", p.Currency.Pair)

	start, err := p.StartDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(validYAML + "budgett: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budgett")
}

func TestValidate(t *testing.T) {
	base := func() Profile {
		return Profile{Name: "p", Budget: 100, Tickers: []string{"A", "B"}, Start: "2020-01-01"}
	}

	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"missing name", func(p *Profile) { p.Name = " " }, "name"},
		{"zero budget", func(p *Profile) { p.Budget = 0 }, "budget"},
		{"no tickers", func(p *Profile) { p.Tickers = nil }, "tickers"},
		{"duplicate ticker", func(p *Profile) { p.Tickers = []string{"A", "a"} }, "tickers[1]"},
		{"bad start", func(p *Profile) { p.Start = "01/02/2020" }, "start"},
		{"end before start", func(p *Profile) { p.End = "2019-12-31" }, "end"},
		{"bad interval", func(p *Profile) { p.Interval = "15m" }, "interval"},
		{"negative lookback", func(p *Profile) { p.Lookback = -1 }, "lookback"},
		{"bad schedule", func(p *Profile) { p.Schedule = "every day" }, "schedule"},
		{"currency without pair", func(p *Profile) { p.Currency = &Currency{Tickers: []string{"A"}} }, "currency.pair"},
		{"currency unknown ticker", func(p *Profile) { p.Currency = &Currency{Pair: "MXN=X", Tickers: []string{"Z"}} }, "currency.tickers[0]"},
	}

	ok := base()
	require.NoError(t, Validate(&ok))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)

			err := Validate(&p)
			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	p := Profile{Name: "p", Budget: 100, Tickers: []string{"A"}, Start: "2020-01-01", Lookback: 30}
	p.ApplyDefaults(Defaults{Portfolios: 10000, Lookback: 180, RiskFree: 0.01})

	assert.Equal(t, "1d", p.Interval)
	assert.Equal(t, 10000, p.Portfolios)
	assert.Equal(t, 30, p.Lookback)
	assert.Equal(t, 0.01, p.RiskFree)

	end, err := p.EndDate(time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), end)
}

func TestHash(t *testing.T) {
	a, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	b, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)

	b.Budget = 2501
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(validYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte(
		"name: income\nbudget: 100\ntickers: [TLT]\nstart: \"2020-01-01\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	profiles, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "income", profiles[0].Name)
	assert.Equal(t, "growth", profiles[1].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(validYAML), 0o600))
	_, err = LoadDir(dir)
	assert.Error(t, err)
}

func TestBundledProfiles(t *testing.T) {
	profiles, err := LoadDir("../../config/profiles")
	require.NoError(t, err)
	assert.NotEmpty(t, profiles)

	for _, p := range profiles {
		assert.NoError(t, Validate(p), p.Name)
	}
}

func TestWarn(t *testing.T) {
	p := &Profile{Tickers: []string{"A"}, Portfolios: 10, Lookback: 1}
	codes := make([]string, 0)
	for _, w := range Warn(p) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"SINGLE_ASSET", "FEW_PORTFOLIOS", "SHORT_LOOKBACK"}, codes)
}
