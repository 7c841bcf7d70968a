// Package watcher watches the scan root and triggers rescans when
// directories appear or disappear.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of filesystem events (a git clone
// touches the root many times) into one rescan.
const debounceDelay = 250 * time.Millisecond

// Watcher owns the fsnotify watcher on the scan root.
type Watcher struct {
	root     string
	onChange func(context.Context)
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher. onChange is invoked after each debounced burst
// of events.
func New(root string, onChange func(context.Context), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:     root,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching in a background goroutine. A watcher that fails
// to start logs the error and leaves the dashboard on manual refresh
// only.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer func() { _ = fsw.Close() }()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			w.logger.Debug("scan root changed, rescanning", "root", w.root)
			w.onChange(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Name implements the shutdown component interface.
func (w *Watcher) Name() string { return "watcher" }

// Shutdown stops the watch loop.
func (w *Watcher) Shutdown(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
