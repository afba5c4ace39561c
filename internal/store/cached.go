package store

import (
	"context"

	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/pkg/redis"
)

// Cached puts a Redis read-through cache in front of a Repository for Get
type Cached struct {
	Repository
	cache *redis.Cache
}

// NewCached wraps repo (no-op cache when Redis is disabled)
func NewCached(repo Repository, cache *redis.Cache) *Cached {
	return &Cached{Repository: repo, cache: cache}
}

// Save stores the run and warms the cache
func (c *Cached) Save(ctx context.Context, run *optimizer.Run) error {
	if err := c.Repository.Save(ctx, run); err != nil {
		return err
	}
	_ = c.cache.Set(ctx, redis.RunKey(run.ID), run, redis.TTLDaily)
	return nil
}

// Get reads through the cache
func (c *Cached) Get(ctx context.Context, id string) (*optimizer.Run, error) {
	var run optimizer.Run
	err := c.cache.GetOrSet(ctx, redis.RunKey(id), &run, redis.TTLDaily, func() (interface{}, error) {
		return c.Repository.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}
