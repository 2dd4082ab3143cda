//go:build windows

package scanner

import (
	"io/fs"

	"golang.org/x/sys/windows"
)

// isHidden reports whether a file or directory carries the hidden attribute.
func isHidden(path string, _ fs.FileInfo) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
