// Package watch rebuilds the extension when its sources change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dosanma1/crxpack/internal/discovery"
)

// FileEventType represents the type of file system event
type FileEventType int

const (
	FileEventCreated FileEventType = iota + 1
	FileEventModified
	FileEventDeleted
	FileEventRenamed
)

func (t FileEventType) String() string {
	switch t {
	case FileEventCreated:
		return "created"
	case FileEventModified:
		return "modified"
	case FileEventDeleted:
		return "deleted"
	case FileEventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileEvent is a debounced change to a classified source file.
type FileEvent struct {
	// Path is slash-separated and relative to the watched root.
	Path      string
	Type      FileEventType
	Classes   []string
	Timestamp time.Time
}

// WatcherConfig contains configuration for the file watcher
type WatcherConfig struct {
	// Root is the source root to watch
	Root string

	// Classes are the glob classes a changed path is matched against
	Classes map[string][]string

	// IgnorePatterns are directory or file names to ignore
	IgnorePatterns []string

	// Debounce folds bursts of events on the same path
	Debounce time.Duration
}

// DefaultIgnorePatterns are skipped unless the config says otherwise.
var DefaultIgnorePatterns = []string{".git", "node_modules", ".idea", ".vscode", "*~", "*.swp", ".#*"}

// Watcher watches a source root for changes to classified files
type Watcher struct {
	config  *WatcherConfig
	watcher *fsnotify.Watcher
	events  chan FileEvent
	errors  chan error
	done    chan struct{}
	mu      sync.RWMutex
	running bool

	// Debouncing
	pending   map[string]*time.Timer
	pendingMu sync.Mutex
}

// NewWatcher creates a new file watcher
func NewWatcher(config *WatcherConfig) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  config,
		watcher: fsWatcher,
		events:  make(chan FileEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start adds the root recursively and begins processing events
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.addRecursive(w.config.Root); err != nil {
		return err
	}
	w.running = true

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.done)

	w.pendingMu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	return w.watcher.Close()
}

// Events returns the channel of file events
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Errors returns the channel of errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// addRecursive adds a directory and all subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}

	var eventType FileEventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = FileEventCreated
	case event.Has(fsnotify.Write):
		eventType = FileEventModified
	case event.Has(fsnotify.Remove):
		eventType = FileEventDeleted
	case event.Has(fsnotify.Rename):
		eventType = FileEventRenamed
	default:
		return
	}

	// New directories are watched too; files created inside them before the
	// add completes are picked up on their next write.
	if eventType == FileEventCreated && isDir(event.Name) {
		if err := w.addRecursive(event.Name); err != nil {
			w.sendError(err)
		}
		return
	}

	rel, err := filepath.Rel(w.config.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	classes := discovery.Classify(rel, w.config.Classes)
	if len(classes) == 0 {
		return
	}

	w.debounce(FileEvent{
		Path:      rel,
		Type:      eventType,
		Classes:   classes,
		Timestamp: time.Now(),
	})
}

// debounce delivers event once no newer event arrived for its path within
// the debounce window.
func (w *Watcher) debounce(event FileEvent) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[event.Path]; ok {
		timer.Stop()
	}

	w.pending[event.Path] = time.AfterFunc(w.config.Debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, event.Path)
		w.pendingMu.Unlock()

		select {
		case w.events <- event:
		case <-w.done:
		}
	})
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// shouldIgnore checks every path component below the root
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignored(part) {
			return true
		}
	}
	return false
}

// IsRunning returns whether the watcher is running
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
