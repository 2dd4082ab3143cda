//go:build !windows

package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// isHidden reports whether a file or directory is hidden: its name starts with a dot.
func isHidden(path string, _ fs.FileInfo) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
