// Package watcher reloads the configuration file when it changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"switchgraph/internal/config"
)

// Watcher watches a file for changes
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
}

// New creates a new file watcher
func New(path string, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled, calling onChange once per burst of
// writes to the file. The directory is watched so that editors replacing the
// file are noticed.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	filename := filepath.Base(w.path)
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	log.Info().Str("file", w.path).Msg("Watching for changes")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				log.Info().Str("file", w.path).Msg("File changed")
				w.onChange()
			})
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("file", w.path).Msg("Watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ApplyFunc receives a freshly loaded configuration
type ApplyFunc func(ctx context.Context, cfg *config.Config) error

// WatchConfig reloads the config file at path on every change and hands it
// to apply. A file that fails to load or validate is logged and skipped; the
// previous configuration stays in effect.
func WatchConfig(ctx context.Context, path string, apply ApplyFunc) error {
	return New(path, func() {
		cfg, _, err := config.LoadFromPath(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Config reload failed, keeping previous config")
			return
		}
		if err := apply(ctx, cfg); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to apply reloaded config")
			return
		}
		log.Info().Str("file", path).Int("devices", len(cfg.Devices)).Msg("Config reloaded")
	}).Watch(ctx)
}
