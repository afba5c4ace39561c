package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the optimizer.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	Candidates       *prometheus.GaugeVec
	ProviderRequests *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	JobRuns          *prometheus.CounterVec
}

// New creates a registry with Go/process collectors and all optimizer metrics
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investment_runs_total",
				Help: "Total number of optimization runs by status",
			},
			[]string{"status"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "investment_run_duration_seconds",
				Help:    "Duration of optimization runs in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		Candidates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "investment_candidates",
				Help: "Candidate portfolios in the last run by stage (sampled, feasible)",
			},
			[]string{"stage"},
		),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investment_provider_requests_total",
				Help: "Price provider requests by provider and result",
			},
			[]string{"provider", "result"},
		),

		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investment_cache_requests_total",
				Help: "Price history cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "investment_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "investment_job_runs_total",
				Help: "Scheduled job executions by job and status",
			},
			[]string{"job", "status"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RunsTotal,
		r.RunDuration,
		r.Candidates,
		r.ProviderRequests,
		r.CacheRequests,
		r.BreakerState,
		r.JobRuns,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRun records one finished optimization run
func (r *Registry) ObserveRun(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(d.Seconds())
}

// ObserveCandidates records candidate set sizes of the last run
func (r *Registry) ObserveCandidates(sampled, feasible int) {
	if r == nil {
		return
	}
	r.Candidates.WithLabelValues("sampled").Set(float64(sampled))
	r.Candidates.WithLabelValues("feasible").Set(float64(feasible))
}

// ProviderRequest counts one provider call (result: ok, error, fallback, rejected)
func (r *Registry) ProviderRequest(provider, result string) {
	if r == nil {
		return
	}
	r.ProviderRequests.WithLabelValues(provider, result).Inc()
}

// CacheLookup counts one cache lookup
func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheRequests.WithLabelValues(result).Inc()
}

// SetBreakerState records a breaker transition (0=closed, 1=half-open, 2=open)
func (r *Registry) SetBreakerState(name string, state int) {
	if r == nil {
		return
	}
	r.BreakerState.WithLabelValues(name).Set(float64(state))
}

// JobRun counts one scheduled job execution
func (r *Registry) JobRun(job, status string) {
	if r == nil {
		return
	}
	r.JobRuns.WithLabelValues(job, status).Inc()
}
