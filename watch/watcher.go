// Package watch keeps a rendered document in sync with its source files.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when no debounce duration is configured.
const DefaultDebounce = 100 * time.Millisecond

// Event reports that a watched file settled after one or more changes.
type Event struct {
	Path      string
	Removed   bool
	Timestamp time.Time
}

// Watcher reports changes of a fixed set of files. It watches their parent
// directories so editors that replace files on save are still seen, and
// emits one Event per file once it has been quiet for the debounce period.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	files     map[string]struct{}
	events    chan Event
	errors    chan error

	pendingMu sync.Mutex
	pending   map[string]Event

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching files. Empty paths are ignored.
func NewWatcher(ctx context.Context, debounce time.Duration, files ...string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debounce:  debounce,
		files:     map[string]struct{}{},
		events:    make(chan Event, 16),
		errors:    make(chan error, 16),
		pending:   map[string]Event{},
	}
	dirs := map[string]struct{}{}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceProcessor(ctx)
	return w, nil
}

// Events returns the channel of settled changes.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.queue(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) queue(event fsnotify.Event) {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[path]; !ok {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = Event{
		Path:      path,
		Removed:   event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
		Timestamp: time.Now(),
	}
	w.pendingMu.Unlock()
}

// debounceProcessor emits pending events that have been stable for the
// debounce period.
func (w *Watcher) debounceProcessor(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, ev := range w.settled(now) {
				select {
				case w.events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) settled(now time.Time) []Event {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	var out []Event
	for path, ev := range w.pending {
		if now.Sub(ev.Timestamp) >= w.debounce {
			out = append(out, ev)
			delete(w.pending, path)
		}
	}
	return out
}
