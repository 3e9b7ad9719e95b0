package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"bookingrisk/logger"
)

// Watcher drops a store entry whenever its artifact file changes on disk, so a
// redeployed model is picked up by the next request.
type Watcher struct {
	fs    *fsnotify.Watcher
	store *Store
	log   logger.Logger
	// absolute artifact path -> store key
	paths map[string]string
}

// NewWatcher watches the directories holding paths. Directories rather than
// files are watched because deploys usually replace the file.
func NewWatcher(store *Store, log logger.Logger, paths ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fs, store: store, log: log, paths: make(map[string]string, len(paths))}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fs.Close()
			return nil, err
		}
		w.paths[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run handles events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("model watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	key, ok := w.paths[abs]
	if !ok {
		return
	}
	if w.store.Invalidate(key) {
		w.log.Info("model artifact changed, cache entry dropped", "path", key, "op", event.Op.String())
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
