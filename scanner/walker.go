package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// WalkError is a file system failure that aborts the run.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("failed to index files in %s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// walker visits the regular files below a root depth-first, following
// symbolic links.
type walker struct {
	logger *slog.Logger

	// skipDirs are never entered, whatever the patterns say.
	skipDirs      []string
	excludeHidden bool
	// prune reports whether every file below a directory is excluded.
	prune func(dir string) bool
	// excluded reports whether a path would be excluded anyway; permission
	// errors on such paths are ignored.
	excluded func(path string, isDir bool) bool
	visit    func(path string, info fs.FileInfo, hidden bool) error
}

// walk visits root, a directory or a single file. The root itself is never
// considered hidden.
func (w *walker) walk(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &WalkError{Path: root, Err: err}
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil
		}
		return w.visit(root, info, false)
	}
	if w.isSkipped(root) {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return &WalkError{Path: root, Err: err}
	}
	return w.walkDir(root, []string{resolved}, false)
}

func (w *walker) walkDir(dir string, ancestors []string, inHidden bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) && w.excluded(dir, true) {
			return nil
		}
		return &WalkError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && w.excluded(path, entry.IsDir()) {
				continue
			}
			return &WalkError{Path: path, Err: err}
		}

		hidden := inHidden || isHidden(path, info)
		if hidden && w.excludeHidden {
			continue
		}

		if info.IsDir() {
			if w.isSkipped(path) || w.prune(path) {
				continue
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &WalkError{Path: path, Err: err}
			}
			if slices.Contains(ancestors, resolved) {
				w.logger.Warn(fmt.Sprintf("Not indexing due to symlink loop: %s", path))
				continue
			}
			if err := w.walkDir(path, append(ancestors[:len(ancestors):len(ancestors)], resolved), hidden); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}
		if err := w.visit(path, info, hidden); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) isSkipped(dir string) bool {
	for _, skip := range w.skipDirs {
		if dir == skip {
			return true
		}
	}
	return false
}
