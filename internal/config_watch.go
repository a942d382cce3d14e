package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/ensemble/pkg/config"
)

const configDebounce = 200 * time.Millisecond

// watchConfig reloads the config file on change and applies the log
// level to the running handler. Only the log level is hot; everything
// else still needs a restart. Watching the directory rather than the
// file survives editors that replace the file on save.
func watchConfig(ctx context.Context, path string, level *slog.LevelVar, logger *slog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watcher unavailable", slog.String("error", err.Error()))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		logger.Warn("config watch failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}

	target := filepath.Clean(path)
	var timer *time.Timer
	reload := func() {
		cfg := NewDefaultConfig()
		if err := pkgconfig.Load(path, cfg); err != nil {
			logger.Warn("config reload failed", slog.String("error", err.Error()))
			return
		}
		if level.Level() != cfg.App.LogLevel {
			logger.Info("log level changed",
				slog.String("from", level.Level().String()),
				slog.String("to", cfg.App.LogLevel.String()))
			level.Set(cfg.App.LogLevel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(configDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
