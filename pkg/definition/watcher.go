package definition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce groups bursts of file events (editor atomic saves) into a
// single reload.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc receives every successfully reloaded store.
type ReloadFunc func(*Store) error

// Watcher reloads a definition directory when its files change. A reload
// that fails to parse keeps the previous definitions in place.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   zerolog.Logger
	onReload ReloadFunc
	watcher  *fsnotify.Watcher
}

// WatcherOption customises a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher watches dir and every directory below it.
func NewWatcher(dir string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("definition: reload callback is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("definition: create watcher: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		onReload: onReload,
		watcher:  fsw,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("definition: watch %s: %w", dir, err)
	}
	return w, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Str("dir", w.dir).Msg("watching layout definitions")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.watchIfDir(event.Name)
			}
			if !isDefinitionFile(event.Name) && event.Op&fsnotify.Create == 0 {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("layout definition changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := w.Reload(); err != nil {
				w.logger.Error().Err(err).Msg("layout definition reload failed, keeping previous definitions")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("layout definition watcher error")
		}
	}
}

// Reload parses the directory and hands the store to the reload callback.
func (w *Watcher) Reload() error {
	store, err := LoadDir(w.dir)
	if err != nil {
		return err
	}
	if err := w.onReload(store); err != nil {
		return fmt.Errorf("definition: apply reload: %w", err)
	}
	w.logger.Info().
		Str("dir", w.dir).
		Int("layouts", store.Len()).
		Msg("layout definitions reloaded")
	return nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn().Err(err).Str("dir", path).Msg("cannot watch new definition directory")
	}
}
