// Package exclusion decides which files are in scope from inclusion and
// exclusion glob patterns.
package exclusion

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const absolutePrefix = "file:"

// PathPattern is a glob matched against a relative path, or against the
// absolute path when written with the "file:" prefix.
type PathPattern struct {
	raw      string
	glob     string
	absolute bool
}

// NewPathPattern parses a pattern. Backslashes are read as separators and a
// trailing slash matches everything below the directory.
func NewPathPattern(s string) (*PathPattern, error) {
	raw := strings.TrimSpace(s)
	p := &PathPattern{raw: raw}

	glob := raw
	if strings.HasPrefix(glob, absolutePrefix) {
		p.absolute = true
		glob = strings.TrimPrefix(glob, absolutePrefix)
	}
	glob = strings.ReplaceAll(glob, "\\", "/")
	if strings.HasSuffix(glob, "/") {
		glob += "**"
	}
	if p.absolute {
		if !strings.HasPrefix(glob, "/") && !strings.HasPrefix(glob, "**/") && !hasVolume(glob) {
			glob = "**/" + glob
		}
	} else {
		glob = strings.TrimPrefix(glob, "./")
	}
	if glob == "" || !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid pattern %q", s)
	}
	p.glob = glob
	return p, nil
}

// ParsePatterns parses every non-blank pattern of values.
func ParsePatterns(values []string) ([]*PathPattern, error) {
	patterns := make([]*PathPattern, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		p, err := NewPathPattern(v)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// Match reports whether the file matches. relPath uses forward slashes.
func (p *PathPattern) Match(absPath, relPath string) bool {
	target := relPath
	if p.absolute {
		target = filepath.ToSlash(absPath)
		if strings.HasPrefix(p.glob, "**/") {
			target = strings.TrimPrefix(target, "/")
		}
	}
	return doublestar.MatchUnvalidated(p.glob, target)
}

func (p *PathPattern) String() string {
	return p.raw
}

// excludedDirectory returns the literal directory prefix of a relative
// pattern of the form "<dir>/**/*".
func (p *PathPattern) excludedDirectory() (string, bool) {
	if p.absolute {
		return "", false
	}
	prefix, ok := strings.CutSuffix(p.glob, "/**/*")
	if !ok || prefix == "" || strings.HasSuffix(prefix, "/") {
		return "", false
	}
	if strings.ContainsAny(prefix, "*?[]{}\\!") {
		return "", false
	}
	return prefix, true
}

func hasVolume(p string) bool {
	return len(p) >= 2 && p[1] == ':'
}

func matchAny(patterns []*PathPattern, absPath, relPath string) bool {
	for _, p := range patterns {
		if p.Match(absPath, relPath) {
			return true
		}
	}
	return false
}

func rawPatterns(patterns []*PathPattern) []string {
	raw := make([]string, len(patterns))
	for i, p := range patterns {
		raw[i] = p.raw
	}
	return raw
}
