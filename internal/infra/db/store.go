// Package db opens the catalog store selected by configuration.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/config"
	"telegram-random-image/internal/domain/ports/repository"
	"telegram-random-image/internal/infra/db/postgres"
	"telegram-random-image/internal/infra/db/sqlite"
	red "telegram-random-image/internal/infra/redis"
)

// Store bundles the catalog repository with what the process needs around it.
type Store struct {
	Images repository.ImageRepository
	// Redis is nil when no cache is configured or it is unreachable.
	Redis *red.Client
	// ReportPool publishes connection pool gauges.
	ReportPool func()
	Backend    string

	closers []func()
}

// Open connects to Postgres when DatabaseURL is set and to the SQLite file
// otherwise, then wraps the repository with the Redis cache when configured.
// An unreachable Redis is logged and skipped.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Store, error) {
	s := &Store{}

	if cfg.Storage.DatabaseURL != "" {
		pool, err := postgres.NewPgxPool(ctx, cfg.Storage.DatabaseURL, 10)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		repo := postgres.NewPostgresImageRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Images = repo
		s.ReportPool = func() { postgres.ReportPoolStats(pool) }
		s.Backend = "postgres"
	} else {
		repo, err := sqlite.NewSQLiteImageRepo(ctx, cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open catalog %s: %w", cfg.Storage.DatabasePath, err)
		}
		s.closers = append(s.closers, func() { _ = repo.Close() })
		s.Images = repo
		s.ReportPool = repo.ReportPoolStats
		s.Backend = "sqlite"
	}

	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; running without cache and rate limiting")
		} else {
			s.closers = append(s.closers, func() { _ = client.Close() })
			s.Redis = client
			s.Images = red.NewCatalogCacheDecorator(s.Images, client, cfg.Redis.TTL, logger)
		}
	}

	logger.Info().Str("backend", s.Backend).Bool("cache", s.Redis != nil).Msg("catalog store ready")
	return s, nil
}

// Close releases everything Open acquired, most recent first.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
