package livefile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the paired file when it changes on disk. It complements the
// focus trigger for hosts that keep focus while another program edits the
// file. Rapid event bursts from editors that write in several steps are
// debounced.
type Watcher struct {
	fsw      *fsnotify.Watcher
	ctrl     *Controller
	path     string
	debounce time.Duration
	notify   func() // called after each triggered reload; may be nil

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher watches path's directory and reloads through ctrl when path
// changes. Watching the directory rather than the file survives editors that
// replace files by rename. A debounce <= 0 defaults to 500ms.
func NewWatcher(ctrl *Controller, path string, debounce time.Duration, notify func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		ctrl:     ctrl,
		path:     abs,
		debounce: debounce,
		notify:   notify,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	ctx := context.Background()
	var last time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(last) < w.debounce {
				continue
			}
			last = time.Now()
			if w.ctrl.IsValid(ctx) && w.ctrl.HasContent() {
				w.ctrl.Reload(ctx)
				if w.notify != nil {
					w.notify()
				}
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// fsnotify errors are transient here; the next event retries.
		case <-w.stop:
			return
		}
	}
}

// Close stops watching and waits for the loop to exit. Safe to call more
// than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.stop)
		_ = w.fsw.Close()
		<-w.done
	})
}
