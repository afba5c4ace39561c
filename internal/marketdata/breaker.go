package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/pkg/logger"
)

// BreakerSettings configures the primary provider circuit breaker
type BreakerSettings struct {
	ConsecutiveFailures uint32        // trip threshold
	Timeout             time.Duration // open → half-open
	MaxRequests         uint32        // half-open probes
}

// DefaultBreakerSettings 3회 연속 실패 시 30초 차단
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		Timeout:             30 * time.Second,
		MaxRequests:         1,
	}
}

// BreakerProvider guards a primary provider with a circuit breaker and
// falls back to a secondary provider when the primary fails or is open.
type BreakerProvider struct {
	name     string
	primary  Provider
	fallback Provider
	cb       *gobreaker.CircuitBreaker
	metrics  *metrics.Registry
	logger   *logger.Logger
}

// NewBreakerProvider creates a breaker-guarded provider (fallback may be nil)
func NewBreakerProvider(name string, primary, fallback Provider, settings BreakerSettings, m *metrics.Registry, log *logger.Logger) *BreakerProvider {
	if log == nil {
		log = logger.Nop()
	}
	p := &BreakerProvider{
		name:     name,
		primary:  primary,
		fallback: fallback,
		metrics:  m,
		logger:   log,
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// 없는 티커나 취소는 공급자 장애가 아님
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData) ||
				errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidInterval)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.SetBreakerState(name, int(to))
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
	p.cb = gobreaker.NewCircuitBreaker(st)

	return p
}

// State returns the current breaker state
func (p *BreakerProvider) State() gobreaker.State {
	return p.cb.State()
}

// History implements Provider
func (p *BreakerProvider) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.primary.History(ctx, ticker, from, to, interval)
	})
	if err == nil {
		p.metrics.ProviderRequest(p.name, "ok")
		return result.([]Bar), nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		p.metrics.ProviderRequest(p.name, "rejected")
	default:
		p.metrics.ProviderRequest(p.name, "error")
	}

	if p.fallback == nil || ctx.Err() != nil || errors.Is(err, ErrInvalidInterval) {
		return nil, err
	}

	p.logger.WithError(err).WithField("ticker", ticker).Warn("Primary provider failed, using fallback")
	bars, ferr := p.fallback.History(ctx, ticker, from, to, interval)
	if ferr != nil {
		p.metrics.ProviderRequest(p.name, "fallback_error")
		return nil, errors.Join(err, ferr)
	}
	p.metrics.ProviderRequest(p.name, "fallback")
	return bars, nil
}
