package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after the catalog was reloaded from disk.
type ReloadCallback func(foods int)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads s from path whenever the file changes, until ctx is
// cancelled. The parent directory is watched so editors that save through
// rename are picked up. A file that fails to parse leaves s unchanged.
func Watch(ctx context.Context, s *Static, path string, logger *slog.Logger, cb ReloadCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-fire:
			data, err := os.ReadFile(abs)
			if err != nil {
				logger.Warn("catalog watcher: read failed", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			n, err := s.Reload(data)
			if err != nil {
				logger.Warn("catalog watcher: reload rejected", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			logger.Info("catalog watcher: reloaded", slog.Int("foods", n))
			if cb != nil {
				cb(n)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
