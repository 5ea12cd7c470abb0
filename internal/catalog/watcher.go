package catalog

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Watcher keeps an in-memory catalog snapshot refreshed from a file.
// Reloads happen between runs; a run that already took a snapshot keeps it.
type Watcher struct {
	path string

	mu      sync.RWMutex
	current []models.AgentDescriptor

	watcher *fsnotify.Watcher
	done    chan struct{}
	onError func(error)
}

// NewWatcher loads the catalog at path and starts watching it for changes.
// onError receives reload failures; it may be nil.
func NewWatcher(path string, onError func(error)) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    path,
		current: initial,
		done:    make(chan struct{}),
		onError: onError,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without live reload; Snapshot still serves the
		// initial catalog.
		return w, nil
	}
	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return w, nil
	}
	w.watcher = fsw
	go w.loop()
	return w, nil
}

// Snapshot returns the current catalog. Callers must treat it as read-only.
func (w *Watcher) Snapshot() []models.AgentDescriptor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(fmt.Errorf("catalog watch: %w", err))
		}
	}
}

func (w *Watcher) reload() {
	descriptors, err := Load(w.path)
	if err != nil {
		// Keep serving the last good snapshot.
		w.reportError(fmt.Errorf("catalog reload: %w", err))
		return
	}
	w.mu.Lock()
	w.current = descriptors
	w.mu.Unlock()
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
