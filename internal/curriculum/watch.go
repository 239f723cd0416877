package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watch invalidates d whenever one of its dataset files changes on disk. The
// parent directories are watched rather than the files, so converters that
// replace a file by rename are seen too. Watching stops when ctx is done.
func Watch(ctx context.Context, d *Dataset) error {
	curriculumPath, contentPath := d.Paths()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{curriculumPath, contentPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !targets[filepath.Clean(ev.Name)] || ev.Op&reloadOps == 0 {
					continue
				}
				slog.Info("dataset file changed, invalidating", "path", ev.Name, "op", ev.Op.String())
				d.Invalidate()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("dataset watcher error", "error", err)
			}
		}
	}()

	slog.Info("watching dataset files", "curriculum", curriculumPath, "content", contentPath)
	return nil
}
