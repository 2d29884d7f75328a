// Package watch reports files created or modified in a directory.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a single directory (non-recursively) and invokes a
// callback with the regular files that were written or created. Rapid
// successive events are coalesced: the callback fires once the directory
// has been quiet for the debounce duration, with every changed path since
// the previous call. Callbacks never overlap.
type Watcher struct {
	dir      string
	onChange func(paths []string)
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	running sync.Mutex // serialises callbacks

	done chan struct{}
	once sync.Once
}

// NewWatcher creates a Watcher for dir. onChange receives changed paths in
// sorted order.
func NewWatcher(dir string, debounce time.Duration, log *slog.Logger, onChange func(paths []string)) *Watcher {
	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: debounce,
		log:      log,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins watching. It blocks until Stop is called or the watcher
// cannot be created. After Stop, Start returns only once a callback that
// was already running has finished.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Only trigger on write and create events.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.enqueue(event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-w.done:
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			// Wait for an in-flight callback to finish.
			w.running.Lock()
			w.running.Unlock()
			return fsw.Close()
		}
	}
}

// Stop signals the watcher to stop. Changes still waiting out the debounce
// are dropped. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
	})
}

// enqueue records path and resets the debounce timer.
func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush hands the pending regular files to the callback.
func (w *Watcher) flush() {
	w.running.Lock()
	defer w.running.Unlock()

	// A timer that fired just before Stop must not start a new batch.
	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	files := paths[:0]
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		// Events for the directory itself are not files inside it.
		if filepath.Clean(filepath.Dir(p)) != filepath.Clean(w.dir) {
			continue
		}
		files = append(files, p)
	}
	if len(files) == 0 {
		return
	}
	sort.Strings(files)
	w.onChange(files)
}
