package version

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// FileWatcher is a version source bumped every time one of the watched files
// is written, created, renamed, or removed. It watches the parent directories
// so editors that replace files atomically are still observed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	logger  *slog.Logger
	n       atomic.Uint64
}

// WatcherOption configures a FileWatcher.
type WatcherOption func(*FileWatcher)

// WithWatcherLogger sets the logger used for watch errors and change events.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// NewFileWatcher starts watching the directories containing files. Run must be
// called to process events; Close releases the underlying watcher.
func NewFileWatcher(files []string, opts ...WatcherOption) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, errors.New("version: no files to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("version: create watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]struct{}, len(files)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fw)
		}
	}

	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("version: resolve %q: %w", file, err)
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("version: watch %q: %w", dir, err)
		}
	}

	return fw, nil
}

// CurrentVersion returns the number of relevant file events observed so far.
func (fw *FileWatcher) CurrentVersion() uint64 {
	return fw.n.Load()
}

// Run processes file events until ctx is done or the watcher is closed.
func (fw *FileWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("spec file watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op&watchedOps == 0 {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := fw.files[abs]; !ok {
		return
	}
	v := fw.n.Add(1)
	fw.logger.Debug("spec file changed", "file", abs, "op", event.Op.String(), "version", v)
}
