package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of file events into one render.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes of page inputs: config files, body files and
// everything directly inside htdocs directories.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	files   map[string]bool
	dirs    map[string]bool
	ignore  map[string]bool
	watched map[string]bool
}

// NewWatcher creates a watcher. A zero debounce uses DefaultDebounce.
func NewWatcher(logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = discard
	}
	return &Watcher{
		watcher:  watcher,
		logger:   logger,
		debounce: debounce,
		files:    map[string]bool{},
		dirs:     map[string]bool{},
		ignore:   map[string]bool{},
		watched:  map[string]bool{},
	}, nil
}

func (w *Watcher) watchDir(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.watched[dir] = true
	return nil
}

// AddFile watches a single file. Its directory is watched, which survives
// editors replacing the file.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	w.files[abs] = true
	return w.watchDir(filepath.Dir(abs))
}

// AddDir watches every file directly inside dir.
func (w *Watcher) AddDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	w.dirs[abs] = true
	return w.watchDir(abs)
}

// Ignore drops events for path, such as a rendered output inside htdocs.
func (w *Watcher) Ignore(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		w.ignore[abs] = true
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || w.ignore[name] {
		return false
	}
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

// Run calls onChange after each burst of relevant events until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.logger.Debug("Input change detected", "file", event.Name, "op", event.Op.String())
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		case <-timer.C:
			onChange()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
