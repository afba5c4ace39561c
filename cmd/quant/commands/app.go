package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/deisterstuff/investment/internal/marketdata"
	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/risk"
	"github.com/deisterstuff/investment/internal/store"
	"github.com/deisterstuff/investment/pkg/config"
	"github.com/deisterstuff/investment/pkg/database"
	"github.com/deisterstuff/investment/pkg/httputil"
	"github.com/deisterstuff/investment/pkg/logger"
	"github.com/deisterstuff/investment/pkg/redis"
)

// cachePrefix Redis 키 접두사
const cachePrefix = "investment"

// app holds the wired dependencies shared by all commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Registry
	redis   *redis.Client
	db      *database.DB // nil without DATABASE_URL
	runs    store.Repository
	pruner  store.Pruner
	service *optimizer.Service
}

// newApp wires config → logger → redis → providers → service → store
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 3. Redis (없으면 캐시/레이트리밋 no-op)
	a.redis, err = redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.Disabled()
	}

	// 4. HTTP client
	httpClient := httputil.New(cfg, log)
	if a.redis.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, cachePrefix), redis.YahooRateLimit(cfg.Yahoo.RatePerSec))
	} else {
		httpClient.WithLocalRateLimit(float64(cfg.Yahoo.RatePerSec), cfg.Yahoo.RatePerSec)
	}

	// 5. Providers: chart API → (breaker) → HTML history, Redis cache in front
	primary := marketdata.NewYahooClient(httpClient, cfg.Yahoo.BaseURL, log)
	fallback := marketdata.NewHTMLHistoryClient(httpClient, cfg.Yahoo.HistoryURL, log)
	guarded := marketdata.NewBreakerProvider("yahoo", primary, fallback, marketdata.DefaultBreakerSettings(), a.metrics, log)
	cached := marketdata.NewCachedProvider(guarded, redis.NewCache(a.redis, cachePrefix), "yahoo", a.metrics)
	loader := marketdata.NewLoader(cached, cfg.Yahoo.MaxParallel, log)

	// 6. Service
	a.service = optimizer.NewService(
		loader,
		portfolio.NewSimulator(cfg.Optimizer.Workers),
		risk.NewEngine(risk.DefaultMonteCarloConfig()),
		profile.Defaults{
			Portfolios: cfg.Optimizer.Portfolios,
			Lookback:   cfg.Optimizer.Lookback,
			RiskFree:   cfg.Optimizer.RiskFree,
		},
		log,
	).WithMetrics(a.metrics)

	// 7. Run store (Postgres, 없으면 메모리)
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.service.WithStore(a.runs)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	cache := redis.NewCache(a.redis, cachePrefix)

	db, err := database.New(ctx, a.cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		a.log.Info("DATABASE_URL not set, keeping runs in memory")
		mem := store.NewMemory(0)
		a.runs = store.NewCached(mem, cache)
		a.pruner = mem
		return nil
	}
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	repo := store.NewRunRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.runs = store.NewCached(repo, cache)
	a.pruner = repo
	a.log.Info("Connected to database")
	return nil
}

// Close releases the database and Redis connections
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
