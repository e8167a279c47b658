package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"expensehq/vega/pkg/rules"
)

// Watcher recompiles a file source whenever the file changes. Change
// bursts are debounced so an editor's write-rename dance triggers one
// reload, not five.
type Watcher struct {
	source   *File
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher over the file source. interval is the
// debounce quiet period; zero uses 500ms.
func NewWatcher(source *File, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		source:   source,
		watcher:  fsw,
		debounce: NewDebouncer(interval),
		logger:   logger.With("component", "policy.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, recompiling on changes and handing each new rule set to
// onReload. It returns when the context is cancelled or Stop is called.
// Watching the parent directory rather than the file itself survives
// rename-based atomic saves.
func (w *Watcher) Watch(ctx context.Context, onReload func(*rules.RuleSet)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	dir := filepath.Dir(w.source.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("policy watcher started", "path", w.source.Path())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("policy watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("policy watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("policy file event", "path", event.Name, "op", event.Op.String())

			w.debounce.Trigger(func() {
				rs, err := w.source.Load(ctx)
				if err != nil {
					w.logger.Error("policy reload failed", "error", err)
					return
				}
				w.logger.Info("policy reloaded",
					"rule_count", len(rs.Rules),
					"enforceable", rs.EnforceableCount(),
				)
				onReload(rs)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching; individual errors are not fatal.
			w.logger.Error("policy watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// shouldProcessEvent keeps only write-ish events on the watched file.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.source.Path())
}

// Debouncer coalesces rapid events: only the last callback handed to
// Trigger runs, and only after a full quiet period with no further
// triggers.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback after the quiet period, replacing any
// pending one. Triggers after Stop are dropped.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			callback()
		}
	})
}

// Stop cancels any pending callback and drops all later triggers. Safe
// to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
