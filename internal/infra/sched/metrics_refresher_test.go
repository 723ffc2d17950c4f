//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/infra/metrics"
)

type countFunc func(ctx context.Context) (int, error)

func (f countFunc) Count(ctx context.Context) (int, error) { return f(ctx) }

func TestMetricsRefresher_RefreshesUntilCancelled(t *testing.T) {
	var calls, reports atomic.Int32
	counter := countFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})

	w := NewMetricsRefresher(10*time.Millisecond, counter, func() { reports.Add(1) }, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	require.GreaterOrEqual(t, reports.Load(), int32(3))
	require.Equal(t, float64(7), gaugeValue(t, "catalog_images"))
}

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	metrics.MustRegister()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestMetricsRefresher_CountErrorKeepsRunning(t *testing.T) {
	var calls atomic.Int32
	counter := countFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("locked")
	})

	w := NewMetricsRefresher(5*time.Millisecond, counter, nil, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNewMetricsRefresher_DefaultInterval(t *testing.T) {
	w := NewMetricsRefresher(0, countFunc(nil), nil, logging.Nop())
	require.Equal(t, 30*time.Second, w.interval)
}
