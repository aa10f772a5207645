package config

import (
	"log/slog"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Snapshot holds the current Settings behind an atomic pointer so readers
// never observe a partially-applied reload. Construct with NewSnapshot and
// read with Load; no field of the returned *Settings is ever mutated after
// construction — a reload replaces the whole value.
type Snapshot struct {
	ptr atomic.Pointer[Settings]
}

// NewSnapshot wraps an initial Settings value.
func NewSnapshot(initial *Settings) *Snapshot {
	s := &Snapshot{}
	s.ptr.Store(initial)
	return s
}

// Load returns the current Settings value.
func (s *Snapshot) Load() *Settings {
	return s.ptr.Load()
}

// Watch starts an fsnotify watch on the project config file at dir and
// atomically swaps the snapshot's pointer whenever the file changes and
// re-parses successfully. A parse or validation failure is logged and the
// previous snapshot is kept in place. The returned stop function closes the
// watcher; Watch itself runs in a background goroutine until stop is
// called.
func (s *Snapshot) Watch(dir string) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == "" || !(event.Op&(fsnotify.Write|fsnotify.Create) != 0) {
					continue
				}
				reloaded, err := Load(dir)
				if err != nil {
					slog.Warn("config reload failed, keeping previous settings", "error", err, "path", event.Name)
					continue
				}
				s.ptr.Store(reloaded)
				slog.Info("config reloaded", "path", event.Name)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", werr)
			}
		}
	}()

	return watcher.Close, nil
}
