package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
)

// RemovedFunc is told about tracks whose files disappeared.
type RemovedFunc func(ctx context.Context, t playlist.Track) error

// Watcher keeps the library in step with file changes under its sources.
type Watcher struct {
	lib       *Library
	fs        *fsnotify.Watcher
	onRemoved RemovedFunc
}

// Watch starts watching every directory under sources.
func (l *Library) Watch(sources []string, onRemoved RemovedFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{lib: l, fs: fw, onRemoved: onRemoved}
	for _, src := range sources {
		if err := w.addTree(src); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		if !d.IsDir() {
			return nil
		}
		return w.fs.Add(path)
	})
}

// Run handles file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.lib.logger.Warn("library watch", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	logger := w.lib.logger
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if !player.IsMusicFile(event.Name) {
			return
		}
		if err := w.removed(ctx, event.Name); err != nil {
			logger.Warn("drop removed track", "path", event.Name, "err", err)
		}
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("watch new directory", "path", event.Name, "err", err)
			}
			return
		}
		if !player.IsMusicFile(event.Name) {
			return
		}
		if err := w.lib.AddFile(ctx, event.Name); err != nil {
			logger.Warn("index new file", "path", event.Name, "err", err)
			return
		}
		logger.Debug("indexed file", "path", event.Name)
	}
}

func (w *Watcher) removed(ctx context.Context, path string) error {
	t, err := w.lib.TrackByPath(ctx, path)
	if errors.Is(err, ErrTrackNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := w.lib.deleteTrackByPath(ctx, path); err != nil {
		return err
	}
	w.lib.logger.Info("track removed from disk", "path", path)
	if w.onRemoved == nil {
		return nil
	}
	return w.onRemoved(ctx, t.Playable())
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
