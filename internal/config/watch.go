package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a config file and invokes a callback when it changes.
// The kernel lifecycle manager uses this to pick up drift without polling;
// consumers still observe changes lazily through the handle hash, so a
// missed event only delays a refresh until the next explicit reload.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path and calls onChange after every write or create
// event touching it. Returns nil with no error when the platform watcher is
// unavailable; callers fall back to lazy refresh only.
func Watch(path string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[config] file watcher unavailable, relying on lazy refresh: %v", err)
		return nil, nil
	}

	// Watch the directory; editors replace files on save, which drops a
	// watch registered on the file itself.
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go w.loop(filepath.Base(path), onChange)
	return w, nil
}

func (w *Watcher) loop(base string, onChange func()) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case <-w.watcher.Errors:
			// Keep watching; lazy refresh covers missed events.
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	close(w.done)
	return w.watcher.Close()
}
