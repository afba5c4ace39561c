package commands

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/risk"
)

func testRun() *optimizer.Run {
	best := func(obj portfolio.Objective, ratio float64, degenerate bool) portfolio.BestPortfolio {
		return portfolio.BestPortfolio{
			Objective:  obj,
			Weights:    portfolio.WeightVector{0.5, 0.5},
			Shares:     []int64{5, 10},
			Spent:      decimal.NewFromInt(1000),
			Cash:       decimal.NewFromInt(0),
			Return:     1.02,
			Volatility: 0.01,
			Ratio:      ratio,
			Degenerate: degenerate,
		}
	}

	return &optimizer.Run{
		ID:       "run-1",
		Profile:  "balanced",
		From:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Interval: "1d",
		Selection: &portfolio.Selection{
			Budget:   1000,
			Tickers:  []string{"AAA", "BBB"},
			Prices:   []float64{100, 50},
			Exposure: portfolio.FullyInvested,
			Sampled:  500,
			Feasible: 120,
			Sharpe:   best(portfolio.ObjectiveSharpe, 2.5, false),
			Sortino:  best(portfolio.ObjectiveSortino, math.Inf(1), true),
			MinVol:   best(portfolio.ObjectiveMinVol, 2.5, false),
		},
		Risk: map[portfolio.Objective]*risk.Report{
			portfolio.ObjectiveSharpe: {VaR95: 0.02, CVaR95: 0.03, ParametricVaR95: 0.025, ParametricCVaR95: 0.035, MaxDrawdown: 0.1},
		},
		Warnings: []string{"SINGLE_ASSET: only one ticker"},
	}
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	PrintRun(&buf, testRun())
	out := buf.String()

	assert.Contains(t, out, "Portfolio selection: balanced")
	assert.Contains(t, out, "2024-01-02 ~ 2024-06-28 (1d)")
	assert.Contains(t, out, "500 sampled, 120 feasible")
	assert.Contains(t, out, "fully_invested")
	assert.Contains(t, out, "[sharpe] return 1.0200  volatility 0.0100  ratio 2.500")
	assert.Contains(t, out, "[sortino] return 1.0200  volatility 0.0100  ratio n/a  (degenerate)")
	assert.Contains(t, out, "[min_vol]")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "VaR95 0.0200  CVaR95 0.0300  MDD 0.1000")
	assert.Contains(t, out, "SINGLE_ASSET")
	assert.Contains(t, out, "run was not persisted")

	assert.Contains(t, out, "VaR95 0.0250  CVaR95 0.0350")

	// 리스크 리포트는 sharpe만 있음
	assert.Equal(t, 1, strings.Count(out, "MDD"))
}

func TestPrintSignals(t *testing.T) {
	var buf bytes.Buffer
	PrintSignals(&buf, []indicators.Snapshot{
		{Ticker: "AAPL", Close: 190.5, Upper: 200, Lower: 180, Band: 0, Rebound: 1, RSI: 55.3, Momentum: 0.0312},
		{Ticker: "FLAT", Close: 10, Upper: 10, Lower: 10, RSI: math.NaN()},
	})
	out := buf.String()

	assert.Contains(t, out, "Momentum")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "190.50")
	assert.Contains(t, out, "55.3")
	assert.Contains(t, out, "0.0312")
	assert.Contains(t, out, "n/a")
}

func TestOptimizeProfile_FromFlags(t *testing.T) {
	optProfilePath = ""
	optName = "adhoc"
	optTickers = []string{" spy", "tlt ", ""}
	optBudget = 10000
	optStart = "2023-01-01"
	optInterval = "1wk"
	optCurrencyPair = "MXN=X"
	optCurrencyTickers = []string{"spy"}
	t.Cleanup(func() {
		optTickers, optBudget, optStart, optInterval = nil, 0, "", "1d"
		optCurrencyPair, optCurrencyTickers = "", nil
	})

	p, err := optimizeProfile()
	require.NoError(t, err)

	assert.Equal(t, "adhoc", p.Name)
	assert.Equal(t, []string{"SPY", "TLT"}, p.Tickers)
	assert.Equal(t, 10000.0, p.Budget)
	assert.Equal(t, "1wk", p.Interval)
	require.NotNil(t, p.Currency)
	assert.Equal(t, []string{"SPY"}, p.Currency.Tickers)
}

func TestOptimizeProfile_FromFile(t *testing.T) {
	optProfilePath = "../../../config/profiles/balanced.yaml"
	t.Cleanup(func() { optProfilePath = "" })

	p, err := optimizeProfile()
	require.NoError(t, err)
	assert.Equal(t, "balanced", p.Name)

	optProfilePath = "missing.yaml"
	_, err = optimizeProfile()
	assert.Error(t, err)
}

func TestSchedulerList(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"scheduler", "list", "--profiles", "../../../config/profiles"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()

	assert.Contains(t, out, "optimize:balanced")
	assert.Contains(t, out, "30 22 * * 1-5")
	assert.Contains(t, out, "prune_runs")
	assert.NotContains(t, out, "optimize:mexico")
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/investment", maskURL("postgres://app:secret@db:5432/investment"))
	assert.Equal(t, "postgres://db/investment", maskURL("postgres://db/investment"))
	assert.Equal(t, "***", maskURL("://bad"))
}
