// Package host supervises the long-running parts of the bot process under
// one cancellation context.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Task is one supervised component. Run must return once ctx is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run starts every task and blocks until all have returned. The first task
// to return, with or without an error, cancels the others. Cancellation
// errors are not reported.
func Run(ctx context.Context, logger *zerolog.Logger, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	stop, cancel := context.WithCancel(gctx)
	defer cancel()

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			defer cancel()
			logger.Info().Str("task", t.Name).Msg("task started")
			err := t.Run(stop)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("task", t.Name).Msg("task failed")
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			logger.Info().Str("task", t.Name).Msg("task stopped")
			return nil
		})
	}
	return g.Wait()
}
