package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/marketdata"
	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/risk"
	"github.com/deisterstuff/investment/pkg/logger"
)

// Store persists finished runs
type Store interface {
	Save(ctx context.Context, run *Run) error
}

// Publisher broadcasts finished runs (websocket hub)
type Publisher interface {
	Publish(run *Run)
}

// Service assembles a run: load → convert → select → risk → persist → publish
// ⭐ SSOT: 최적화 실행 흐름은 여기서만 조립
type Service struct {
	loader    *marketdata.Loader
	simulator *portfolio.Simulator
	engine    *risk.Engine
	defaults  profile.Defaults
	store     Store
	publisher Publisher
	metrics   *metrics.Registry
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a new optimizer service
func NewService(loader *marketdata.Loader, simulator *portfolio.Simulator, engine *risk.Engine, defaults profile.Defaults, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		loader:    loader,
		simulator: simulator,
		engine:    engine,
		defaults:  defaults,
		logger:    log,
		now:       time.Now,
	}
}

// WithStore sets the run store
func (s *Service) WithStore(store Store) *Service {
	s.store = store
	return s
}

// WithPublisher sets the run publisher
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithMetrics sets the metrics registry
func (s *Service) WithMetrics(m *metrics.Registry) *Service {
	s.metrics = m
	return s
}

// Run executes one optimization for the profile. The profile itself is
// not modified; defaults are applied to a copy.
func (s *Service) Run(ctx context.Context, p *profile.Profile, trigger Trigger) (*Run, error) {
	start := s.now()

	run, err := s.run(ctx, p, trigger, start)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.Canceled) {
			status = "canceled"
		}
	}
	s.metrics.ObserveRun(status, time.Since(start))

	if err != nil {
		s.logger.WithError(err).WithField("profile", p.Name).Error("Optimization run failed")
		return nil, err
	}
	return run, nil
}

func (s *Service) run(ctx context.Context, in *profile.Profile, trigger Trigger, start time.Time) (*Run, error) {
	p := *in
	p.ApplyDefaults(s.defaults)
	if err := profile.Validate(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", portfolio.ErrInvalidRequest, err)
	}

	from, err := p.StartDate()
	if err != nil {
		return nil, err
	}
	to, err := p.EndDate(start)
	if err != nil {
		return nil, err
	}

	// 1. Load
	frame, err := s.loader.Load(ctx, p.Tickers, from, to, p.Interval)
	if err != nil {
		return nil, err
	}

	// 2. Currency conversion
	currency := ""
	if p.Currency != nil {
		fx, err := s.loader.LoadSeries(ctx, p.Currency.Pair, from, to, p.Interval)
		if err != nil {
			return nil, fmt.Errorf("currency %s: %w", p.Currency.Pair, err)
		}
		frame, err = frame.ConvertCurrency(p.Currency.Tickers, fx)
		if err != nil {
			return nil, err
		}
		currency = p.Currency.Pair
	}

	assets, err := frame.Assets()
	if err != nil {
		return nil, err
	}

	// 3. Select
	flags := portfolio.DefaultFlags
	if p.Omega {
		flags |= portfolio.FlagOmega
	}
	selector := portfolio.NewSelector(portfolio.NewSampler(p.Seed), s.simulator, s.logger)
	sel, err := selector.Select(ctx, portfolio.Request{
		Budget:     p.Budget,
		Assets:     assets,
		RiskFree:   p.RiskFree,
		Lookback:   p.Lookback,
		Portfolios: p.Portfolios,
		AllowShort: p.AllowShort,
		Flags:      flags,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(sel.Sampled, sel.Feasible)

	// 4. Risk (시뮬레이션과 같은 구간)
	window := frame.PctChange().Tail(p.Lookback).Values
	reports := make(map[portfolio.Objective]*risk.Report, 3)
	for _, obj := range portfolio.Objectives() {
		best, _ := sel.Best(obj)
		report, err := s.engine.Report(best.Weights, window)
		if err != nil {
			return nil, fmt.Errorf("risk report %s: %w", obj, err)
		}
		reports[obj] = report
	}

	hash, err := profile.Hash(&p)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:          sel.RunID,
		Profile:     p.Name,
		ProfileHash: hash,
		Trigger:     trigger,
		From:        from,
		To:          to,
		Interval:    p.Interval,
		Periods:     len(window),
		Currency:    currency,
		Selection:   sel,
		Risk:        reports,
		CreatedAt:   start.UTC(),
	}
	for _, w := range profile.Warn(&p) {
		run.Warnings = append(run.Warnings, w.Message)
	}
	if len(window) < p.Lookback {
		run.Warnings = append(run.Warnings,
			fmt.Sprintf("only %d periods available for lookback %d", len(window), p.Lookback))
	}
	run.DurationMS = s.now().Sub(start).Milliseconds()

	// 5. Persist (실패해도 결과는 반환)
	if s.store != nil {
		if err := s.store.Save(ctx, run); err != nil {
			s.logger.WithError(err).WithField("run_id", run.ID).Warn("Failed to persist run")
		} else {
			run.Persisted = true
		}
	}

	// 6. Publish
	if s.publisher != nil {
		s.publisher.Publish(run)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":      run.ID,
		"profile":     run.Profile,
		"trigger":     string(trigger),
		"periods":     run.Periods,
		"feasible":    sel.Feasible,
		"persisted":   run.Persisted,
		"duration_ms": run.DurationMS,
	}).Info("Optimization run completed")

	return run, nil
}

// Signals computes the latest Bollinger/RSI snapshot for each ticker
func (s *Service) Signals(ctx context.Context, tickers []string, from, to time.Time, interval string, period int) ([]indicators.Snapshot, error) {
	if period <= 0 {
		period = indicators.DefaultBandPeriod
	}

	frame, err := s.loader.Load(ctx, tickers, from, to, interval)
	if err != nil {
		return nil, err
	}

	out := make([]indicators.Snapshot, 0, len(tickers))
	for _, ticker := range frame.Tickers {
		closes, _ := frame.Column(ticker)
		snap, err := indicators.Latest(ticker, closes, period, indicators.DefaultBandWidth)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
