package preview

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher reports changes to one file. It watches the file's directory with
// fsnotify, so editors that save by renaming a temp file over the original
// are still seen, and falls back to stat polling when fsnotify is
// unavailable or fails.
type Watcher struct {
	// path is the cleaned path of the watched file.
	path string
	// events delivers a signal each time the file changes.
	// The channel is buffered to 1 so back-to-back writes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal the loop to exit.
	done chan struct{}
	// wg tracks the loop goroutine so Close can wait for it.
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	polling bool

	pollInterval time.Duration
	log          *slog.Logger
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithPollInterval sets the stat interval used in polling mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithWatcherLogger sets the logger for fallback diagnostics.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.log = l }
}

// withPolling forces polling mode.
func withPolling() WatcherOption {
	return func(w *Watcher) { w.polling = true }
}

// NewWatcher starts watching path. The file does not need to exist yet, but
// its directory does when fsnotify is used; otherwise the watcher polls.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:         filepath.Clean(path),
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: time.Second,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.polling {
		w.start(w.poll)
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.setPolling()
		w.start(w.poll)
		return w, nil
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		w.log.Info("cannot watch directory, falling back to polling", "path", w.path, "error", err)
		fsw.Close()
		w.setPolling()
		w.start(w.poll)
		return w, nil
	}

	w.start(func() { w.watch(fsw) })
	return w, nil
}

func (w *Watcher) start(loop func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		loop()
	}()
}

func (w *Watcher) setPolling() {
	w.mu.Lock()
	w.polling = true
	w.mu.Unlock()
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// Events returns a channel that receives a signal when the file changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and waits for its goroutine to exit. It is safe
// to call more than once.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
	return nil
}

// watch forwards fsnotify events for the watched file. On an fsnotify
// error it closes the native watcher and continues in polling mode.
func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			fsw.Close()
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.notify()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Info("fsnotify error, switching to polling", "error", err)
			fsw.Close()
			w.setPolling()
			w.poll()
			return
		}
	}
}

// poll stats the file every pollInterval and signals when its modification
// time or size changes.
func (w *Watcher) poll() {
	last := w.stat()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur := w.stat()
			if !cur.same(last) {
				last = cur
				if !cur.missing {
					w.notify()
				}
			}
		}
	}
}

type fileStamp struct {
	mod     time.Time
	size    int64
	missing bool
}

func (s fileStamp) same(o fileStamp) bool {
	return s.missing == o.missing && s.size == o.size && s.mod.Equal(o.mod)
}

func (w *Watcher) stat() fileStamp {
	info, err := os.Stat(w.path)
	if err != nil {
		return fileStamp{missing: true}
	}
	return fileStamp{mod: info.ModTime(), size: info.Size()}
}

// notify sends a single signal to the events channel. If a signal is already
// pending the call is a no-op, coalescing rapid successive changes.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
