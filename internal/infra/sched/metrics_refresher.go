package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/infra/metrics"
)

type CatalogCounter interface {
	Count(ctx context.Context) (int, error)
}

// MetricsRefresher periodically publishes the catalog size gauge and,
// when a pool reporter is given, the store connection pool gauges.
type MetricsRefresher struct {
	interval   time.Duration
	catalog    CatalogCounter
	reportPool func()
	log        *zerolog.Logger
}

// NewMetricsRefresher defaults interval to 30s. reportPool may be nil.
func NewMetricsRefresher(interval time.Duration, catalog CatalogCounter, reportPool func(), logger *zerolog.Logger) *MetricsRefresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "MetricsRefresher").Logger()
	return &MetricsRefresher{
		interval:   interval,
		catalog:    catalog,
		reportPool: reportPool,
		log:        &l,
	}
}

func (w *MetricsRefresher) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting metrics refresher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping metrics refresher")
			return ctx.Err()
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *MetricsRefresher) refresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := w.catalog.Count(runCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("catalog count failed")
	} else {
		metrics.SetCatalogImages(n)
	}
	if w.reportPool != nil {
		w.reportPool()
	}
}
