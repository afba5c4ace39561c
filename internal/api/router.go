package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/deisterstuff/investment/internal/api/handlers"
	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/pkg/database"
	"github.com/deisterstuff/investment/pkg/logger"
)

// HealthChecker reports database health (nil when persistence is off)
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// Deps are the router dependencies
type Deps struct {
	Portfolio *handlers.PortfolioHandler
	Hub       *Hub
	Metrics   *metrics.Registry
	DB        HealthChecker
	RateLimit float64 // requests per second on /api (<= 0 = unlimited)
	Burst     int
	Logger    *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(d.DB)).Methods("GET")
	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")

	// Live selection feed
	if d.Hub != nil {
		r.HandleFunc("/ws/selections", d.Hub.ServeWS).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	if d.RateLimit > 0 {
		api.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(d.RateLimit), max(d.Burst, 1))))
	}

	api.HandleFunc("/portfolio/optimize", d.Portfolio.Optimize).Methods("POST")
	api.HandleFunc("/portfolio/runs", d.Portfolio.ListRuns).Methods("GET")
	api.HandleFunc("/portfolio/runs/{id}", d.Portfolio.GetRun).Methods("GET")
	api.HandleFunc("/signals", d.Portfolio.Signals).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "investment-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health, err := db.HealthCheck(ctx)
			body["database"] = health
			if err != nil {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// rateLimitMiddleware rejects requests beyond the token bucket
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// 웹소켓은 Hijacker가 필요하므로 감싸지 않음
			if r.URL.Path == "/ws/selections" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
