package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
	"telegram-random-image/internal/infra/metrics"
)

var _ repository.ImageRepository = (*catalogCacheDecorator)(nil)

const (
	keyCount      = "catalog:count"
	keyCategories = "catalog:categories"
)

// catalogCacheDecorator caches the hot read paths (count for /start, /count
// and /health; categories for /categories). Random picks are never cached.
type catalogCacheDecorator struct {
	inner repository.ImageRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCatalogCacheDecorator(inner repository.ImageRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ImageRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &catalogCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func (d *catalogCacheDecorator) EnsureSchema(ctx context.Context) error {
	return d.inner.EnsureSchema(ctx)
}

// Writes invalidate; the admin CLI shares the same Redis, so the bot sees
// imports without waiting for the TTL.
func (d *catalogCacheDecorator) Insert(ctx context.Context, filename, category string) (*model.ImageRecord, error) {
	rec, err := d.inner.Insert(ctx, filename, category)
	if err == nil {
		d.invalidate(ctx)
	}
	return rec, err
}

func (d *catalogCacheDecorator) DeleteByID(ctx context.Context, id int64) (bool, error) {
	ok, err := d.inner.DeleteByID(ctx, id)
	if err == nil && ok {
		d.invalidate(ctx)
	}
	return ok, err
}

func (d *catalogCacheDecorator) Count(ctx context.Context) (int, error) {
	val, err := d.cache.Get(ctx, keyCount)
	if err == nil {
		if n, convErr := strconv.Atoi(val); convErr == nil {
			metrics.IncCacheRequest("catalog_count", "hit")
			return n, nil
		}
	} else if !IsNil(err) {
		d.log.Warn().Err(err).Msg("catalog cache read failed")
	}

	metrics.IncCacheRequest("catalog_count", "miss")
	n, err := d.inner.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := d.cache.Set(ctx, keyCount, n, d.ttl); err != nil {
		d.log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return n, nil
}

func (d *catalogCacheDecorator) DistinctCategories(ctx context.Context) ([]string, error) {
	val, err := d.cache.Get(ctx, keyCategories)
	if err == nil {
		var cats []string
		if json.Unmarshal([]byte(val), &cats) == nil && len(cats) > 0 {
			metrics.IncCacheRequest("catalog_categories", "hit")
			return cats, nil
		}
	} else if !IsNil(err) {
		d.log.Warn().Err(err).Msg("catalog cache read failed")
	}

	metrics.IncCacheRequest("catalog_categories", "miss")
	cats, err := d.inner.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cats); err == nil {
		if err := d.cache.Set(ctx, keyCategories, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return cats, nil
}

func (d *catalogCacheDecorator) ListAll(ctx context.Context) ([]*model.ImageRecord, error) {
	return d.inner.ListAll(ctx)
}

func (d *catalogCacheDecorator) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	return d.inner.CountByCategory(ctx)
}

func (d *catalogCacheDecorator) Random(ctx context.Context, category string) (*model.ImageRecord, error) {
	return d.inner.Random(ctx, category)
}

func (d *catalogCacheDecorator) invalidate(ctx context.Context) {
	if err := d.cache.Del(ctx, keyCount, keyCategories); err != nil {
		d.log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
