// Package watch implements the WATCH_BLOB load flag (spec.md §6): a
// thin notifier that tells a caller when a silo's source file changes
// on disk. It never reloads the silo itself — reloading is the
// caller's job, typically via Builder.Ensure.
package watch

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher multiplexes one fsnotify.Watcher goroutine across any number
// of registered paths.
type Watcher struct {
	fs *fsnotify.Watcher

	mu        sync.Mutex
	callbacks map[string][]func(path string)

	closeOnce sync.Once
}

// New starts the watcher's background goroutine.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fsw, callbacks: make(map[string][]func(path string))}
	go w.run()
	return w, nil
}

// Add registers cb to be called whenever path is written or renamed.
func (w *Watcher) Add(path string, cb func(path string)) error {
	w.mu.Lock()
	_, already := w.callbacks[path]
	w.callbacks[path] = append(w.callbacks[path], cb)
	w.mu.Unlock()
	if already {
		return nil
	}
	return w.fs.Add(path)
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			cbs := append([]func(string){}, w.callbacks[event.Name]...)
			w.mu.Unlock()
			for _, cb := range cbs {
				cb(event.Name)
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fs.Close()
	})
	return err
}
