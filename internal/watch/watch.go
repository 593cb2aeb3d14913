// Package watch re-triggers runs when files below a suite directory change.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"verdict/internal/discovery"
	"verdict/internal/fsys"
	"verdict/pkg/logging"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Change is a debounced batch of filesystem events.
type Change struct {
	// Paths are the changed files, sorted
	Paths     []string
	Timestamp time.Time
}

// Watcher watches a directory tree with fsnotify. fsnotify watches are not
// recursive, so every directory gets its own watch and directories created
// later are added as they appear.
type Watcher struct {
	root     string
	debounce time.Duration

	watcher *fsnotify.Watcher
	pending map[string]struct{}
}

// New creates a watcher for root.
func New(root string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		pending:  make(map[string]struct{}),
	}
}

// Run watches until ctx is done and calls onChange after every quiet period
// that follows a change. onChange runs on the watching goroutine, so changes
// made while it runs are delivered in the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Change)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("Watcher", err, "Error closing filesystem watcher")
		}
	}()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	logging.Info("Watcher", "Started watching %s for changes", w.root)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Watcher", "Stopped watching %s", w.root)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher", err, "Filesystem watcher error")

		case <-timerC:
			timerC = nil
			change := w.flush()
			logging.Debug("Watcher", "Emitting change of %d file(s)", len(change.Paths))
			onChange(ctx, change)
		}
	}
}

// handleEvent records a relevant event and reports whether it was recorded.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if ignored(event.Name) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.Warn("Watcher", "Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}
	w.pending[event.Name] = struct{}{}
	return true
}

func (w *Watcher) flush() Change {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	clear(w.pending)
	return Change{Paths: paths, Timestamp: time.Now()}
}

// addTree watches dir and every non hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	dirs, err := discovery.DescendantDirs(fsys.OS{}, dir, true, func(d string) bool {
		return !ignored(d)
	})
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		logging.Debug("Watcher", "Watching directory: %s", d)
	}
	return nil
}

// ignored filters hidden entries and editor backup files.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
