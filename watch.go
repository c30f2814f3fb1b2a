package brace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates an Engine's compiled templates when their source
// files change on disk. Rapid bursts of events for the same file are
// debounced into one invalidation.
type Watcher struct {
	fsw      *fsnotify.Watcher
	engine   *Engine
	log      *slog.Logger
	ext      string
	debounce time.Duration
	done     chan struct{}
}

// Watch starts watching dir (recursively) for changes to template files
// with the given extension; an empty ext watches every file. Call Stop to
// shut the watcher down.
func (e *Engine) Watch(dir, ext string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %q: %w", dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		engine:   e,
		log:      e.log,
		ext:      ext,
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	changed := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.ext != "" && !strings.HasSuffix(ev.Name, w.ext) {
				continue
			}
			changed[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			for path := range changed {
				w.log.Debug("template changed", "path", path)
				w.engine.invalidate(path)
				delete(changed, path)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
