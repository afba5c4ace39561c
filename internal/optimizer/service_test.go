package optimizer

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deisterstuff/investment/internal/marketdata"
	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/risk"
	"github.com/deisterstuff/investment/pkg/logger"
)

type staticProvider map[string][]marketdata.Bar

func (p staticProvider) History(_ context.Context, ticker string, _, _ time.Time, _ string) ([]marketdata.Bar, error) {
	bars, ok := p[ticker]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	return bars, nil
}

type memoryStore struct {
	mu   sync.Mutex
	runs []*Run
	err  error
}

func (m *memoryStore) Save(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

type recorder struct {
	runs []*Run
}

func (r *recorder) Publish(run *Run) { r.runs = append(r.runs, run) }

func wavyPrices() staticProvider {
	const days = 80
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := staticProvider{}
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		x := float64(i)
		p["AAA"] = append(p["AAA"], marketdata.Bar{Date: d, Close: 100 * (1 + 0.05*math.Sin(x/4))})
		p["BBB"] = append(p["BBB"], marketdata.Bar{Date: d, Close: 40 * (1 + 0.1*math.Cos(x/6)) * (1 + 0.002*x)})
		p["CCC"] = append(p["CCC"], marketdata.Bar{Date: d, Close: 20 + 0.05*x})
		p["MXN=X"] = append(p["MXN=X"], marketdata.Bar{Date: d, Close: 17})
	}
	return p
}

func newTestService(p staticProvider) *Service {
	mc := risk.DefaultMonteCarloConfig()
	mc.NumSimulations = 200
	mc.Seed = 1

	return NewService(
		marketdata.NewLoader(p, 2, logger.Nop()),
		portfolio.NewSimulator(2),
		risk.NewEngine(mc),
		profile.Defaults{Portfolios: 500, Lookback: 30},
		logger.Nop(),
	)
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Name:    "wavy",
		Budget:  10000,
		Tickers: []string{"AAA", "BBB", "CCC"},
		Start:   "2024-01-01",
		End:     "2024-03-31",
		Seed:    42,
	}
}

func TestService_Run(t *testing.T) {
	store := &memoryStore{}
	pub := &recorder{}
	svc := newTestService(wavyPrices()).WithStore(store).WithPublisher(pub).WithMetrics(metrics.New())

	in := testProfile()
	run, err := svc.Run(context.Background(), in, TriggerCLI)
	require.NoError(t, err)

	assert.Equal(t, run.Selection.RunID, run.ID)
	assert.Equal(t, "wavy", run.Profile)
	assert.Equal(t, TriggerCLI, run.Trigger)
	assert.Len(t, run.ProfileHash, 64)
	assert.Equal(t, 30, run.Periods)
	assert.Equal(t, "1d", run.Interval)
	assert.Equal(t, 500, run.Selection.Sampled)
	assert.True(t, run.Persisted)

	// 입력 profile은 변경되지 않음
	assert.Equal(t, 0, in.Portfolios)
	assert.Equal(t, "", in.Interval)

	require.Len(t, run.Risk, 3)
	for _, obj := range portfolio.Objectives() {
		report := run.Risk[obj]
		require.NotNil(t, report, obj)
		assert.Equal(t, 30, report.Periods)
		assert.GreaterOrEqual(t, report.MaxDrawdown, 0.0)
		assert.NotNil(t, report.Bootstrap)
	}

	require.Len(t, store.runs, 1)
	assert.Same(t, run, store.runs[0])
	require.Len(t, pub.runs, 1)
	assert.Same(t, run, pub.runs[0])
}

func TestService_SameSeedSameRun(t *testing.T) {
	svc := newTestService(wavyPrices())

	a, err := svc.Run(context.Background(), testProfile(), TriggerAPI)
	require.NoError(t, err)
	b, err := svc.Run(context.Background(), testProfile(), TriggerAPI)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.ProfileHash, b.ProfileHash)
	assert.Equal(t, a.Selection.Sharpe.Weights, b.Selection.Sharpe.Weights)
	assert.Equal(t, a.Risk[portfolio.ObjectiveMinVol].VaR95, b.Risk[portfolio.ObjectiveMinVol].VaR95)
}

func TestService_StoreFailureKeepsResult(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	svc := newTestService(wavyPrices()).WithStore(store)

	run, err := svc.Run(context.Background(), testProfile(), TriggerScheduler)
	require.NoError(t, err)
	assert.False(t, run.Persisted)
}

func TestService_CurrencyConversion(t *testing.T) {
	prices := wavyPrices()
	svc := newTestService(prices)

	p := testProfile()
	p.Currency = &profile.Currency{Pair: "MXN=X", Tickers: []string{"ccc"}}

	run, err := svc.Run(context.Background(), p, TriggerCLI)
	require.NoError(t, err)

	last := prices["CCC"][len(prices["CCC"])-1].Close
	assert.Equal(t, "MXN=X", run.Currency)
	assert.InDelta(t, last*17, run.Selection.Prices[2], 1e-9)
	assert.InDelta(t, prices["AAA"][79].Close, run.Selection.Prices[0], 1e-9)
}

func TestService_Errors(t *testing.T) {
	svc := newTestService(wavyPrices())

	p := testProfile()
	p.Tickers = append(p.Tickers, "NOPE")
	_, err := svc.Run(context.Background(), p, TriggerCLI)
	assert.ErrorIs(t, err, marketdata.ErrNoData)

	p = testProfile()
	p.Budget = 0
	_, err = svc.Run(context.Background(), p, TriggerCLI)
	assert.ErrorIs(t, err, portfolio.ErrInvalidRequest)

	p = testProfile()
	p.Budget = 1
	_, err = svc.Run(context.Background(), p, TriggerCLI)
	assert.ErrorIs(t, err, portfolio.ErrNoFeasiblePortfolio)

	p = testProfile()
	p.Currency = &profile.Currency{Pair: "EUR=X", Tickers: []string{"AAA"}}
	_, err = svc.Run(context.Background(), p, TriggerCLI)
	assert.ErrorIs(t, err, marketdata.ErrNoData)
}

func TestService_Signals(t *testing.T) {
	svc := newTestService(wavyPrices())

	snaps, err := svc.Signals(context.Background(), []string{"AAA", "CCC"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), "1d", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Equal(t, "AAA", snaps[0].Ticker)
	assert.Equal(t, "CCC", snaps[1].Ticker)
	// 단조 증가 → RSI 100
	assert.Equal(t, 100.0, snaps[1].RSI)
	assert.InDelta(t, 20*0.05, snaps[1].Momentum, 1e-9)
}

func TestRun_Summarize(t *testing.T) {
	run, err := newTestService(wavyPrices()).Run(context.Background(), testProfile(), TriggerAPI)
	require.NoError(t, err)

	s := run.Summarize()
	assert.Equal(t, run.ID, s.ID)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, s.Tickers)
	require.NotNil(t, s.Sharpe)
	assert.Equal(t, run.Selection.Sharpe.Ratio, *s.Sharpe)
}
