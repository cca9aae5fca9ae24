package internal

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/bookdesk/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// watchConfig reloads path on every change and passes the new config to
// apply. The parent directory is watched so that editors replacing the file
// by rename are noticed. Invalid rewrites are logged and skipped. It blocks
// until ctx is cancelled.
func watchConfig(ctx context.Context, path string, logger *slog.Logger, apply func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	logger.Info("config watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("config watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				fire = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-fire:
			cfg := NewDefaultConfig()
			if err := pkgconfig.Load(abs, cfg); err != nil {
				logger.Warn("config reload rejected", slog.String("error", err.Error()))
				continue
			}
			apply(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
