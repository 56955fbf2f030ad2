package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 300 * time.Millisecond

// Watch re-ingests supported files below dirs whenever they are created or
// written, and drops the chunks of files that are removed or renamed away.
// Rapid saves of one file are debounced. Watch blocks until ctx is done.
func (a *App) Watch(ctx context.Context, dirs []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := a.watchTree(w, dir); err != nil {
			return err
		}
	}
	a.logger.Info("Watching for document changes", zap.Strings("dirs", dirs))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := a.watchTree(w, event.Name); err != nil {
						a.logger.Warn("Cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
					continue
				}
				if a.extractors.Supports(event.Name) && !hidden(event.Name) {
					pending[event.Name] = time.Now()
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
				if err := a.RemoveDocument(ctx, event.Name); err != nil {
					a.logger.Warn("Cannot drop removed document", zap.String("path", event.Name), zap.Error(err))
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error", zap.Error(err))

		case <-ticker.C:
			var ready []string
			for path, seen := range pending {
				if time.Since(seen) >= watchDebounce {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			if len(ready) == 0 {
				continue
			}
			if _, err := a.IngestPaths(ctx, ready); err != nil && ctx.Err() == nil {
				a.logger.Error("Re-ingest failed", zap.Strings("paths", ready), zap.Error(err))
			}
		}
	}
}

func (a *App) watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// RemoveDocument drops the chunks and manifest entry of an indexed file.
// Unknown paths are ignored.
func (a *App) RemoveDocument(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	unlock := a.lockDocument(abs)
	defer unlock()

	if _, ok := a.manifestEntry(abs); !ok {
		return nil
	}
	coll, err := a.collection()
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, map[string]string{"document_uuid": DocumentUUID(abs)}, nil); err != nil {
		return fmt.Errorf("failed to drop chunks of %s: %w", abs, err)
	}

	a.forgetFile(abs)
	a.logger.Info("Document removed from index", zap.String("path", abs))
	return a.Save()
}
