// Package watch feeds citation files dropped into an inbox directory to a
// handler. Bursts of events for one file are debounced into a single call.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one citation file.
type Handler func(path string) error

// IsCitationFile reports whether path has the .txt extension.
func IsCitationFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Inbox watches a directory for new or rewritten citation files.
type Inbox struct {
	dir      string
	handle   Handler
	logger   *slog.Logger
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	running bool
	pending map[string]*time.Timer

	// handleMu serialises handler calls.
	handleMu sync.Mutex
}

// NewInbox creates an inbox for dir. Errors returned by handle are logged.
func NewInbox(dir string, handle Handler, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		dir:      dir,
		handle:   handle,
		logger:   logger,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
}

// SetDebounce changes the quiet period. It must be called before Start.
func (in *Inbox) SetDebounce(d time.Duration) {
	in.debounce = d
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string {
	return in.dir
}

// Start creates the directory if needed and begins watching it.
func (in *Inbox) Start() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.running {
		return fmt.Errorf("inbox %s is already watched", in.dir)
	}

	if err := os.MkdirAll(in.dir, 0755); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(in.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", in.dir, err)
	}

	in.watcher = watcher
	in.stopChan = make(chan struct{})
	in.done = make(chan struct{})
	in.running = true
	go in.watchLoop()

	in.logger.Info("watching inbox", "dir", in.dir)
	return nil
}

// Stop ends watching and drops pending events. Calls already running finish
// first.
func (in *Inbox) Stop() error {
	in.mu.Lock()
	if !in.running {
		in.mu.Unlock()
		return nil
	}
	in.running = false
	for path, timer := range in.pending {
		timer.Stop()
		delete(in.pending, path)
	}
	close(in.stopChan)
	in.mu.Unlock()

	err := in.watcher.Close()
	<-in.done

	in.handleMu.Lock()
	defer in.handleMu.Unlock()
	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}
	return nil
}

// Scan handles the citation files already present, in name order.
func (in *Inbox) Scan() error {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && IsCitationFile(e.Name()) {
			paths = append(paths, filepath.Join(in.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	for _, path := range paths {
		in.run(path)
	}
	return nil
}

func (in *Inbox) watchLoop() {
	defer close(in.done)
	for {
		select {
		case <-in.stopChan:
			return

		case event, ok := <-in.watcher.Events:
			if !ok {
				return
			}
			if !IsCitationFile(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				in.schedule(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				in.cancel(event.Name)
			}

		case err, ok := <-in.watcher.Errors:
			if !ok {
				return
			}
			in.logger.Error("inbox watcher error", "dir", in.dir, "error", err)
		}
	}
}

// schedule (re)starts the debounce timer of path.
func (in *Inbox) schedule(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.running {
		return
	}
	if timer, ok := in.pending[path]; ok {
		timer.Stop()
	}
	in.pending[path] = time.AfterFunc(in.debounce, func() { in.fire(path) })
}

// fire handles path once its debounce period ends. Nothing runs once Stop
// has begun.
func (in *Inbox) fire(path string) {
	in.mu.Lock()
	delete(in.pending, path)
	in.mu.Unlock()

	in.handleMu.Lock()
	defer in.handleMu.Unlock()
	if !in.isRunning() {
		return
	}
	in.handleLocked(path)
}

func (in *Inbox) isRunning() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.running
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if timer, ok := in.pending[path]; ok {
		timer.Stop()
		delete(in.pending, path)
	}
}

func (in *Inbox) run(path string) {
	in.handleMu.Lock()
	defer in.handleMu.Unlock()
	in.handleLocked(path)
}

// handleLocked calls the handler; handleMu must be held.
func (in *Inbox) handleLocked(path string) {
	in.logger.Debug("handling inbox file", "path", path)
	if err := in.handle(path); err != nil {
		in.logger.Error("inbox file failed", "path", path, "error", err)
	}
}
