package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChainWatcher watches the persisted chain file and triggers a verification
// run whenever the file changes. Legitimate appends rewrite the file too, so
// a triggered run normally passes quickly; the watcher's value is catching
// out-of-band edits (a tampered or truncated chain file) close to when they
// happen instead of at the next scheduled run.
type ChainWatcher struct {
	watcher  *fsnotify.Watcher
	monitor  *Monitor
	path     string
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// DefaultDebounceInterval is the quiet period after a chain file event
// before verification is triggered. Atomic rename-based saves produce
// several events in quick succession; debouncing collapses them into one
// run.
const DefaultDebounceInterval = 250 * time.Millisecond

// NewChainWatcher creates a watcher for the chain file at path.
func NewChainWatcher(path string, monitor *Monitor, debounceInterval time.Duration) (*ChainWatcher, error) {
	if debounceInterval <= 0 {
		debounceInterval = DefaultDebounceInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ChainWatcher{
		watcher:  watcher,
		monitor:  monitor,
		path:     path,
		debounce: NewDebouncer(debounceInterval),
		logger:   slog.Default().With("component", "evidence.integrity.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching the chain file. It blocks until the context is
// cancelled or Stop is called.
func (w *ChainWatcher) Watch(ctx context.Context) error {
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

	// Watch the directory, not the file: atomic saves replace the file by
	// rename, which would silently detach a direct file watch.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch chain directory: %w", err)
	}

	w.logger.Info("chain file watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("chain watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("chain watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("chain file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.Trigger(func() {
				w.monitor.Run(ctx, TriggerFileChange)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("chain watcher error", "error", err)
			// Keep watching despite transient errors.
		}
	}
}

// Stop stops the watcher and cancels any pending debounced run.
func (w *ChainWatcher) Stop() error {
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

// shouldProcessEvent filters directory events down to ones touching the
// chain file itself. Temp files written during atomic saves are skipped;
// the rename that lands them on the chain file is what matters.
func (w *ChainWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	if strings.Contains(filepath.Base(event.Name), ".tmp-") {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

// Debouncer collapses rapid event bursts into a single callback after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger schedules the callback to run after the debounce interval unless
// another trigger arrives first.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
