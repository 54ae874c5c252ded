package dataset

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher invalidates loader entries when a dataset file changes on disk.
type Watcher struct {
	loader  *Loader
	log     *logger.Logger
	byPath  map[string]string // cleaned file path -> dataset name
	watcher *fsnotify.Watcher

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher prepares a watcher for every dataset known to loader.
func NewWatcher(loader *Loader, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	byPath := make(map[string]string)
	for _, ds := range loader.Registry().All() {
		byPath[filepath.Clean(ds.Path)] = ds.Name
	}
	return &Watcher{
		loader: loader,
		log:    log,
		byPath: byPath,
		done:   make(chan struct{}),
	}
}

// Start watches the directories holding the dataset files. Directories are
// watched rather than files so that editors replacing a file are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := make(map[string]bool)
	for path := range w.byPath {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.log.WithError(err).WithField("dir", dir).Warn("cannot watch dataset directory")
		}
	}

	w.watcher = fw
	go w.run(ctx)
	return nil
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Debug("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	name, ok := w.byPath[filepath.Clean(ev.Name)]
	if !ok {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.log.WithFields(logrus.Fields{
		"dataset": name,
		"op":      ev.Op.String(),
	}).Info("dataset file changed, dropping cached records")
	w.loader.Invalidate(name)
}
