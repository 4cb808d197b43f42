package adpfeed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Billy-Davies-2/draftboard/internal/dataset"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// FileWatcher reloads ADP values whenever the dataset file is rewritten.
// The parent directory is watched so editors that replace the file by
// rename are still picked up.
type FileWatcher struct {
	path    string
	target  Target
	watcher *fsnotify.Watcher
	log     *slog.Logger

	// Applied receives the changed count after each reload; used by tests
	Applied chan int
}

// NewFileWatcher starts watching path
func NewFileWatcher(path string, target Target) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	return &FileWatcher{
		path:    abs,
		target:  target,
		watcher: w,
		log:     logger.With("adpfeed"),
		Applied: make(chan int, 8),
	}, nil
}

// Run applies reloads until ctx is done or the watcher is closed
func (fw *FileWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fw.reload()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("File watcher error", "error", err)
		}
	}
}

// reload re-reads the dataset; partial writes fail to decode and are
// retried on the next event
func (fw *FileWatcher) reload() {
	players, err := dataset.Load(fw.path)
	if err != nil {
		fw.log.Debug("Dataset not readable yet", "path", fw.path, "error", err)
		return
	}
	changed := fw.target.UpdateADP(dataset.ADPMap(players))
	fw.log.Info("Reloaded ADP from dataset", "path", fw.path, "changed", changed)

	select {
	case fw.Applied <- changed:
	default:
	}
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
