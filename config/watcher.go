// ABOUTME: fsnotify watcher that reloads the settings file when another process edits it
// ABOUTME: Watches the parent directory so atomic rename-based saves are observed

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherClosed is returned by Next after Close
var ErrWatcherClosed = errors.New("settings watcher closed")

// Watcher reports reloaded settings after the settings file changes
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher starts watching the settings file at path
// The parent directory is created if missing
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	o := buildOptions(opts)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     abs,
		fsw:      fsw,
		debounce: o.debounce,
		logger:   o.logger,
	}, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

// Next blocks until the settings file changes, waits for writes to settle,
// and returns the reloaded settings
func (w *Watcher) Next(ctx context.Context) (Settings, error) {
	for {
		select {
		case <-ctx.Done():
			return Settings{}, ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return Settings{}, ErrWatcherClosed
			}
			if !w.relevant(event) {
				continue
			}
			if err := w.settle(ctx); err != nil {
				return Settings{}, err
			}

			s, problems, err := ReadSettingsFile(w.path)
			if err != nil {
				// Hand-edited file that no longer parses: keep watching
				w.logger.Warn("settings reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			for _, p := range problems {
				w.logger.Warn("settings key unusable, using default", zap.Error(p))
			}
			return s, nil

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return Settings{}, ErrWatcherClosed
			}
			// Log error but continue watching
			w.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

// Run publishes each effective change to fn until ctx is done
// Reloads that leave the settings unchanged are not reported
func (w *Watcher) Run(ctx context.Context, shared *SharedSettings, fn func(Settings, SettingsUpdate)) error {
	for {
		s, err := w.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrWatcherClosed) {
				return nil
			}
			return err
		}

		u := shared.Swap(s)
		if u.IsEmpty() {
			continue
		}

		w.logger.Info("settings changed on disk", zap.Stringer("update", u))
		fn(s, u)
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// settle drains further events until none arrive for the debounce period
func (w *Watcher) settle(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case _, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			timer.Reset(w.debounce)
		}
	}
}
