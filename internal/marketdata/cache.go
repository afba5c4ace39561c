package marketdata

import (
	"context"
	"time"

	"github.com/deisterstuff/investment/internal/metrics"
	"github.com/deisterstuff/investment/pkg/redis"
)

// CachedProvider caches price history in Redis
type CachedProvider struct {
	next    Provider
	cache   *redis.Cache
	name    string
	metrics *metrics.Registry
	now     func() time.Time
}

// NewCachedProvider wraps next with a Redis cache (no-op when Redis is disabled)
func NewCachedProvider(next Provider, cache *redis.Cache, name string, m *metrics.Registry) *CachedProvider {
	return &CachedProvider{
		next:    next,
		cache:   cache,
		name:    name,
		metrics: m,
		now:     time.Now,
	}
}

// History implements Provider
func (p *CachedProvider) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error) {
	iv, err := NormalizeInterval(interval)
	if err != nil {
		return nil, err
	}

	key := redis.HistoryKey(p.name, ticker, dateOnly(from).Format("2006-01-02"), dateOnly(to).Format("2006-01-02"), iv)

	loaded := false
	var bars []Bar
	err = p.cache.GetOrSet(ctx, key, &bars, p.ttl(to), func() (interface{}, error) {
		loaded = true
		return p.next.History(ctx, ticker, from, to, iv)
	})
	if err != nil {
		return nil, err
	}

	p.metrics.CacheLookup(!loaded)
	return bars, nil
}

// ttl 종료일이 지난 구간은 바뀌지 않으므로 오래 보관
func (p *CachedProvider) ttl(to time.Time) time.Duration {
	if dateOnly(to).Before(dateOnly(p.now())) {
		return redis.TTLLong
	}
	return redis.TTLMedium
}
