// Package watch feeds live filesystem change events into the daemon's
// notify handling, debounced so a burst of saves (an editor's atomic
// rename-into-place, a git checkout) collapses into one notification per
// file rather than one per fsnotify event.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Notifier is the subset of the daemon kernel the watcher drives;
// satisfied by *daemon.Kernel's NotifyFile method.
type Notifier interface {
	NotifyFile(path string)
}

// Watcher watches the directories registered with AddDir (it does not
// recurse on its own) and forwards debounced change events to a Notifier.
type Watcher struct {
	root     string
	notifier Notifier
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher over root; call Start to begin watching.
func New(root string, notifier Notifier, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		notifier: notifier,
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
	}
	return w, nil
}

// AddDir registers dir (non-recursively; callers walk the tree themselves
// and call AddDir per directory, matching fsnotify's own non-recursive
// watch model) with the underlying fsnotify watcher.
func (w *Watcher) AddDir(dir string) error {
	return w.fsw.Add(dir)
}

// Close stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

// Run processes fsnotify events until the watcher is closed. Intended to
// run on its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// handle debounces repeated events for the same path: each new event
// resets that path's timer rather than firing a notification immediately.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.notifier.NotifyFile(path)
	})
}
