package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever a matched file is created, written,
// removed or renamed. Changes are collected for the debounce delay and
// trigger a single reload. A failed reload is logged and leaves the
// installed catalog in place. Watch returns nil once ctx is cancelled.
func (l *FileLoader) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := l.addWatchesRecursive(fsw, l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	l.logger.Info("Enum file watcher started", "dir", l.dir, "debounce", l.debounce, "patterns", l.patterns)

	ticker := time.NewTicker(l.debounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			if l.handleFSEvent(fsw, event) {
				pending = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			l.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			// Load logs its own failures.
			_ = l.Load(ctx)
		}
	}
}

// handleFSEvent reports whether the event concerns a catalog file.
func (l *FileLoader) handleFSEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := l.addWatchesRecursive(fsw, event.Name); err != nil {
				l.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			// Files copied in along with the directory never got their own events.
			return true
		}
	}

	rel, err := filepath.Rel(l.dir, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if !l.matches(filepath.ToSlash(rel)) {
		return false
	}

	l.logger.Debug("Enum file change detected", "path", rel, "op", event.Op.String())
	return true
}

// addWatchesRecursive watches root and every directory below it, skipping
// hidden directories.
func (l *FileLoader) addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}

		if err := fsw.Add(path); err != nil {
			l.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			l.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}
