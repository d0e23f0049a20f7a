package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates the store whenever something under the content
// directory changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	renderer *Renderer
	logger   *zap.Logger
	done     chan struct{}
}

// WatchContent starts watching the store's content directory until ctx is
// cancelled or Close is called. renderer may be nil.
func WatchContent(ctx context.Context, store *Store, renderer *Renderer, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		watcher:  fw,
		store:    store,
		renderer: renderer,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if err := w.addTree(store.Root()); err != nil {
		fw.Close()
		return nil, err
	}
	go w.run(ctx)
	return w, nil
}

// fsnotify watches are not recursive, every directory is added on its own.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			w.logger.Debug("content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			w.store.Invalidate()
			if w.renderer != nil {
				w.renderer.Purge()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
