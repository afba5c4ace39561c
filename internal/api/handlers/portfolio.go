package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/marketdata"
	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/store"
	"github.com/deisterstuff/investment/pkg/logger"
)

// Optimizer runs optimizations and computes signals
type Optimizer interface {
	Run(ctx context.Context, p *profile.Profile, trigger optimizer.Trigger) (*optimizer.Run, error)
	Signals(ctx context.Context, tickers []string, from, to time.Time, interval string, period int) ([]indicators.Snapshot, error)
}

// PortfolioHandler handles portfolio API endpoints
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	optimizer Optimizer
	runs      store.Repository
	logger    *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(opt Optimizer, runs store.Repository, log *logger.Logger) *PortfolioHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PortfolioHandler{
		optimizer: opt,
		runs:      runs,
		logger:    log,
	}
}

// Optimize runs one optimization for the profile in the request body
// POST /api/portfolio/optimize
func (h *PortfolioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	run, err := h.optimizer.Run(r.Context(), &p, optimizer.TriggerAPI)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("profile", p.Name).Error("Failed to optimize portfolio")
			respondError(w, status, "Failed to optimize portfolio")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    run,
	})
}

// ListRuns returns recent runs
// GET /api/portfolio/runs?limit=20
func (h *PortfolioHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    runs,
		"count":   len(runs),
	})
}

// GetRun returns one run
// GET /api/portfolio/runs/{id}
func (h *PortfolioHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    run,
	})
}

// Signals returns the latest Bollinger/RSI snapshot per ticker
// GET /api/signals?tickers=SPY,TLT&start=2024-01-01&end=2024-06-30&interval=1d&period=20
func (h *PortfolioHandler) Signals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tickers []string
	for _, t := range strings.Split(q.Get("tickers"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}

	to := time.Now().UTC()
	if s := q.Get("end"); s != "" {
		d, err := time.Parse(profile.DateLayout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		to = d
	}
	from := to.AddDate(-1, 0, 0)
	if s := q.Get("start"); s != "" {
		d, err := time.Parse(profile.DateLayout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		from = d
	}

	period := indicators.DefaultBandPeriod
	if s := q.Get("period"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 2 {
			respondError(w, http.StatusBadRequest, "period must be an integer >= 2")
			return
		}
		period = n
	}

	snaps, err := h.optimizer.Signals(r.Context(), tickers, from, to, q.Get("interval"), period)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Failed to compute signals")
			respondError(w, status, "Failed to compute signals")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snaps,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrInvalidRequest),
		errors.Is(err, portfolio.ErrInvalidBudget),
		errors.Is(err, portfolio.ErrNoAssets),
		errors.Is(err, marketdata.ErrInvalidInterval),
		errors.Is(err, marketdata.ErrDuplicateTicker):
		return http.StatusBadRequest
	case errors.Is(err, marketdata.ErrNoData),
		errors.Is(err, portfolio.ErrNoFeasiblePortfolio),
		errors.Is(err, portfolio.ErrEmptyHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
