package pricing

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors a catalog YAML file and swaps a freshly built snapshot into
// the holder whenever the file changes. A reload that fails to parse keeps
// the previous snapshot in place. Blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, holder *Holder, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops the
	// watch when the file itself is registered.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			catalog, err := LoadFile(path)
			if err != nil {
				logger.Error("catalog reload failed, keeping previous snapshot",
					"path", path, "error", err)
				continue
			}
			holder.Swap(catalog)
			logger.Info("catalog snapshot reloaded", "path", path, "entries", catalog.Size())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher error", "error", err)
		}
	}
}
