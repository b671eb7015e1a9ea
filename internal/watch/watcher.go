// Package watch re-runs the preamble synchronizer whenever the target header
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"hdrtoc/internal/pipeline"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Runner performs one synchronization pass.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Watcher watches the directory holding the target, since the synchronizer
// replaces the file by rename and a watch on the file itself would be lost.
type Watcher struct {
	target   string
	runner   Runner
	debounce time.Duration
	logger   *zap.Logger

	// OnResult, if set, is called after every pass.
	OnResult func(*pipeline.Result, error)
}

func NewWatcher(target string, runner Runner, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		target:   filepath.Clean(target),
		runner:   runner,
		debounce: debounce,
		logger:   logger,
	}
}

// Run performs an initial pass and then one pass per settled burst of
// events until ctx is cancelled. Passes run one at a time on the calling
// goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.target)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching", zap.String("path", w.target))

	w.pass(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.pass(ctx)
		}
	}
}

// relevant reports whether event touches the target with a content change.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) pass(ctx context.Context) {
	res, err := w.runner.Run(ctx)
	if err != nil {
		w.logger.Error("sync failed", zap.String("path", w.target), zap.Error(err))
	} else if res.Written {
		w.logger.Info("preamble regenerated", zap.String("path", w.target), zap.Int("sections", res.Index.Len()))
	}
	if w.OnResult != nil {
		w.OnResult(res, err)
	}
}
