package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deisterstuff/investment/pkg/logger"
)

// Loader fetches several tickers concurrently and aligns them into a Frame
type Loader struct {
	provider    Provider
	maxParallel int
	logger      *logger.Logger
}

// NewLoader creates a new loader (maxParallel <= 0 = 4)
func NewLoader(provider Provider, maxParallel int, log *logger.Logger) *Loader {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		provider:    provider,
		maxParallel: maxParallel,
		logger:      log,
	}
}

// Load returns a complete price frame: outer join on date, forward fill,
// then rows with any missing ticker dropped. Every ticker must return data.
func (l *Loader) Load(ctx context.Context, tickers []string, from, to time.Time, interval string) (*Frame, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers", ErrNoData)
	}
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		key := strings.ToUpper(t)
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTicker, t)
		}
		seen[key] = true
	}

	start := time.Now()
	results := make([][]Bar, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxParallel)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			bars, err := l.provider.History(gctx, ticker, from, to, interval)
			if err != nil {
				return fmt.Errorf("load %s: %w", ticker, err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("load %s: %w", ticker, ErrNoData)
			}
			results[i] = bars
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string][]Bar, len(tickers))
	for i, t := range tickers {
		series[t] = results[i]
	}

	frame := NewFrame(tickers, series).FillForward().DropIncomplete()
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: no overlapping history for %s", ErrNoData, strings.Join(tickers, ","))
	}

	l.logger.WithFields(map[string]interface{}{
		"tickers":     len(tickers),
		"rows":        frame.Len(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Price history loaded")

	return frame, nil
}

// LoadSeries fetches one auxiliary series (e.g. an exchange rate)
func (l *Loader) LoadSeries(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error) {
	bars, err := l.provider.History(ctx, ticker, from, to, interval)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("load %s: %w", ticker, ErrNoData)
	}
	return bars, nil
}
