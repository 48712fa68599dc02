// Package watch implements the host's optional external-change detection
//: one fsnotify watcher covering the directories of currently open
// buffers, so the host can tell a buffer apart from a file that changed
// underneath it by some other process.
package watch

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a set of directories and reports write events for
// paths within them.
type DirWatcher struct {
	logger *log.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	dirRefs map[string]int
	onWrite func(absPath string)
}

// New creates a DirWatcher. It lazily starts the underlying fsnotify
// watcher on the first WatchDir call so that hosts which never enable
// file watching (ProjectConfig.DisableFileWatch) never pay the syscall
// cost.
func New(logger *log.Logger) *DirWatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &DirWatcher{logger: logger, dirRefs: make(map[string]int)}
}

// OnWrite registers the callback invoked (from the watcher's own
// goroutine) whenever a watched directory reports a write to, or the
// creation of, a file inside it.
func (w *DirWatcher) OnWrite(fn func(absPath string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onWrite = fn
}

func (w *DirWatcher) ensureStarted() error {
	if w.watcher != nil {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	go w.loop()
	return nil
}

func (w *DirWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			fn := w.onWrite
			w.mu.Unlock()
			if fn != nil {
				fn(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch: error: %v", err)
		}
	}
}

// WatchDir begins watching dir (ref-counted; multiple open buffers in the
// same directory share one fsnotify watch).
func (w *DirWatcher) WatchDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureStarted(); err != nil {
		return err
	}
	dir = filepath.Clean(dir)
	if w.dirRefs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirRefs[dir]++
	return nil
}

// UnwatchDir releases one reference to dir, removing the fsnotify watch
// once no open buffer refers to it anymore.
func (w *DirWatcher) UnwatchDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	dir = filepath.Clean(dir)
	if w.dirRefs[dir] <= 1 {
		delete(w.dirRefs, dir)
		_ = w.watcher.Remove(dir)
		return
	}
	w.dirRefs[dir]--
}

// Close stops the underlying watcher, if started.
func (w *DirWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
