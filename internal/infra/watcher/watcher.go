package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	defaultTick   = 250 * time.Millisecond
	defaultSettle = 300 * time.Millisecond
)

// Watcher reports files that appear in a directory once they stop changing,
// so half-copied files are not picked up.
type Watcher struct {
	dir    string
	accept func(name string) bool
	tick   time.Duration
	settle time.Duration
	log    *zerolog.Logger
}

// New watches dir (non-recursively). accept filters base names; nil accepts all.
func New(dir string, accept func(name string) bool, logger *zerolog.Logger) *Watcher {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Watcher{dir: dir, accept: accept, tick: defaultTick, settle: defaultSettle, log: logger}
}

// Run calls handle with the full path of every settled file until ctx is
// cancelled. handle runs on the watch goroutine.
func (w *Watcher) Run(ctx context.Context, handle func(ctx context.Context, path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info().Str("dir", w.dir).Msg("watching for new images")

	pending := map[string]time.Time{}
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.accept(filepath.Base(ev.Name)) {
				continue
			}
			// writes push the deadline while the file is still being copied
			pending[ev.Name] = time.Now()
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) >= w.settle {
					delete(pending, path)
					handle(ctx, path)
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}
