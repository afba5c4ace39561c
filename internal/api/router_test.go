package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deisterstuff/investment/internal/api/handlers"
	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/store"
	"github.com/deisterstuff/investment/pkg/config"
	"github.com/deisterstuff/investment/pkg/logger"
)

type fakeOptimizer struct {
	err     error
	tickers []string
	period  int
}

func (f *fakeOptimizer) Run(_ context.Context, p *profile.Profile, trigger optimizer.Trigger) (*optimizer.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return testRun("run-1", p.Name, trigger), nil
}

func (f *fakeOptimizer) Signals(_ context.Context, tickers []string, _, _ time.Time, _ string, period int) ([]indicators.Snapshot, error) {
	f.tickers, f.period = tickers, period
	out := make([]indicators.Snapshot, len(tickers))
	for i, t := range tickers {
		out[i] = indicators.Snapshot{Ticker: t, RSI: 55}
	}
	return out, nil
}

func testRun(id, name string, trigger optimizer.Trigger) *optimizer.Run {
	best := portfolio.BestPortfolio{
		Objective: portfolio.ObjectiveSharpe,
		Weights:   portfolio.WeightVector{1},
		Shares:    []int64{10},
		Spent:     decimal.NewFromInt(1000),
		Cash:      decimal.Zero,
		Return:    1.1,
		Ratio:     1.5,
	}
	return &optimizer.Run{
		ID:      id,
		Profile: name,
		Trigger: trigger,
		Selection: &portfolio.Selection{
			RunID:   id,
			Tickers: []string{"SPY"},
			Sharpe:  best,
			Sortino: best,
			MinVol:  best,
		},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(opt *fakeOptimizer, runs store.Repository, hub *Hub, rateLimit float64) http.Handler {
	return NewRouter(Deps{
		Portfolio: handlers.NewPortfolioHandler(opt, runs, logger.Nop()),
		Hub:       hub,
		Metrics:   metrics.New(),
		RateLimit: rateLimit,
		Burst:     1,
		Logger:    logger.Nop(),
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeOptimizer{}, store.NewMemory(10), nil, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_Optimize(t *testing.T) {
	body := `{"name":"api","budget":1000,"tickers":["SPY"],"start":"2023-01-01"}`

	tests := []struct {
		name   string
		opt    *fakeOptimizer
		body   string
		status int
	}{
		{"ok", &fakeOptimizer{}, body, http.StatusOK},
		{"unknown field", &fakeOptimizer{}, `{"budgett":1}`, http.StatusBadRequest},
		{"invalid json", &fakeOptimizer{}, `{`, http.StatusBadRequest},
		{"invalid request", &fakeOptimizer{err: portfolio.ErrInvalidRequest}, body, http.StatusBadRequest},
		{"no feasible", &fakeOptimizer{err: portfolio.ErrNoFeasiblePortfolio}, body, http.StatusUnprocessableEntity},
		{"internal", &fakeOptimizer{err: assert.AnError}, body, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.opt, store.NewMemory(10), nil, 0)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/portfolio/optimize", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_OptimizeResponse(t *testing.T) {
	router := newTestRouter(&fakeOptimizer{}, store.NewMemory(10), nil, 0)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/optimize",
		strings.NewReader(`{"name":"api","budget":1000,"tickers":["SPY"],"start":"2023-01-01"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    optimizer.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "run-1", resp.Data.ID)
	assert.Equal(t, optimizer.TriggerAPI, resp.Data.Trigger)
	assert.Equal(t, []int64{10}, resp.Data.Selection.Sharpe.Shares)
}

func TestRouter_Runs(t *testing.T) {
	runs := store.NewMemory(10)
	require.NoError(t, runs.Save(context.Background(), testRun("a", "first", optimizer.TriggerCLI)))
	require.NoError(t, runs.Save(context.Background(), testRun("b", "second", optimizer.TriggerScheduler)))
	router := newTestRouter(&fakeOptimizer{}, runs, nil, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/runs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data  []optimizer.Summary `json:"data"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "second", list.Data[0].Profile)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/runs/a", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"profile":"first"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/runs/zzz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Signals(t *testing.T) {
	opt := &fakeOptimizer{}
	router := newTestRouter(opt, store.NewMemory(10), nil, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals?tickers=SPY,%20TLT,&period=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SPY", "TLT"}, opt.tickers)
	assert.Equal(t, 10, opt.period)

	for _, q := range []string{"", "?tickers=SPY&period=1", "?tickers=SPY&start=2024/01/01"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(&fakeOptimizer{}, store.NewMemory(10), nil, 0.001)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/runs", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// /health는 제한 대상 아님
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHub_PublishesSelections(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	srv := httptest.NewServer(newTestRouter(&fakeOptimizer{}, store.NewMemory(10), hub, 0))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/selections"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(testRun("ws-run", "live", optimizer.TriggerScheduler))
	hub.Publish(nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event SelectionEvent
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "selection", event.Type)
	assert.Equal(t, "ws-run", event.RunID)
	assert.Equal(t, optimizer.TriggerScheduler, event.Trigger)
	assert.Equal(t, []string{"SPY"}, event.Tickers)
	assert.Equal(t, 1.5, event.Sharpe.Ratio)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(&config.Config{Port: "0", Env: "test"}, nil, newTestRouter(&fakeOptimizer{}, store.NewMemory(10), nil, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
