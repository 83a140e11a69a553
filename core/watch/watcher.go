// Package watch polls files for changes and reports them once they have
// stopped changing.
package watch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls file stats and invokes a callback once a changed file has
// kept the same stat for one full interval. This avoids reloading an
// artifact while it is still being written.
type Watcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries []*entry
}

type stamp struct {
	modTime time.Time
	size    int64
}

type entry struct {
	path    string
	current stamp
	pending *stamp
	cb      func(path string)
}

// New creates a Watcher that polls at the given interval.
func New(interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		interval: interval,
		logger:   logger,
	}
}

// Watch registers paths with a shared callback. Files need not exist yet.
func (w *Watcher) Watch(cb func(path string), paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range paths {
		w.entries = append(w.entries, &entry{
			path:    p,
			current: stat(p),
			cb:      cb,
		})
	}
}

// Run polls until the context is cancelled. It blocks, so call it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	var fire []*entry
	for _, e := range w.entries {
		s := stat(e.path)

		// Missing file: may be mid-replace, try again next tick.
		if s.modTime.IsZero() {
			e.pending = nil
			continue
		}
		if s == e.current {
			e.pending = nil
			continue
		}
		if e.pending == nil || *e.pending != s {
			e.pending = &s
			continue
		}

		e.current = s
		e.pending = nil
		fire = append(fire, e)
	}
	w.mu.Unlock()

	for _, e := range fire {
		w.logger.Info("watched file changed", "path", e.path)
		e.cb(e.path)
	}
}

func stat(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{modTime: info.ModTime(), size: info.Size()}
}
