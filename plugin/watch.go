package plugin

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// Watch watches PluginDir and each discovered plugin's directory; a write or
// create of any file under a plugin's directory triggers that plugin's
// Reload automatically, the idiomatic replacement for the source's
// mtime-polling debug loop (§EXT supplemented feature 2, §4.5 Reload).
// Intended for debug mode only; call returns once ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.ConfigError(err, "starting plugin directory watcher")
	}
	defer w.Close()

	if err := w.Add(l.PluginDir); err != nil {
		return errors.ConfigError(err, "watching plugin directory %s", l.PluginDir)
	}
	for _, desc := range l.Descriptors() {
		if err := w.Add(desc.SourcePath); err != nil {
			logger.PluginWarnw("failed to watch plugin directory", "plugin", desc.Name, "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := l.ownerOfPath(ev.Name)
			if name == "" {
				continue
			}
			logger.PluginInfow("plugin source changed, reloading", "plugin", name, "path", ev.Name)
			if err := l.Reload(ctx, name); err != nil {
				logger.PluginErrorw("automatic reload failed", "plugin", name, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.PluginWarnw("plugin directory watcher error", "err", err)
		}
	}
}

// ownerOfPath returns the plugin name whose source directory contains path,
// or "" if none match.
func (l *Loader) ownerOfPath(path string) string {
	for _, desc := range l.Descriptors() {
		if len(path) >= len(desc.SourcePath) && path[:len(desc.SourcePath)] == desc.SourcePath {
			return desc.Name
		}
	}
	return ""
}
