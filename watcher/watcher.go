// Package watcher reports changes below the source and test roots of a
// project so that it can be scanned again.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a batch is emitted.
const DefaultDebounceInterval = 500 * time.Millisecond

// IgnoreChecker tells the watcher which paths do not matter.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Watcher provides recursive file system watching with debouncing.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debouncer     *Debouncer
	ignoreChecker IgnoreChecker
	logger        *slog.Logger
	done          chan struct{}
}

// NewWatcher watches every directory below roots that the checker does not
// ignore. Roots that are files are watched through their parent directory.
func NewWatcher(roots []string, ignoreChecker IgnoreChecker, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		debouncer:     NewDebouncer(interval),
		ignoreChecker: ignoreChecker,
		logger:        logger,
		done:          make(chan struct{}),
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		if !info.IsDir() {
			w.add(filepath.Dir(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // Skip entries that can't be read
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && ignoreChecker.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			w.add(path)
			return nil
		})
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) add(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch directory", "path", dir, "error", err)
	}
}

// Changes returns the channel that receives debounced batches. It is closed
// by Close.
func (w *Watcher) Changes() <-chan []Change {
	return w.debouncer.Output()
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// new directories are watched too, their creation alone is no change
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if !w.ignoreChecker.ShouldIgnoreDir(path) {
				w.add(path)
			}
			return
		}
	}

	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

// Close stops watching, waits for the event loop and closes Changes.
func (w *Watcher) Close() error {
	err := w.fsWatcher.Close()
	<-w.done
	w.debouncer.Stop()
	return err
}
