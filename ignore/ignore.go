// Package ignore answers whether the SCM ignores a file.
package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// ErrNoRepository is returned by Init when no git repository encloses the base directory.
var ErrNoRepository = errors.New("not inside a git repository")

// vcsDirectories are never part of the working tree.
var vcsDirectories = map[string]struct{}{
	".git": {},
	".svn": {},
	".hg":  {},
}

// GitIgnoreOracle reports files ignored by .gitignore files and
// .git/info/exclude of the repository enclosing the project.
// Safe for concurrent use once initialized.
type GitIgnoreOracle struct {
	mu       sync.RWMutex
	repoRoot string
	rules    gitignore.GitIgnore
	exclude  gitignore.GitIgnore
}

// NewGitIgnoreOracle returns an oracle that ignores nothing until Init succeeds.
func NewGitIgnoreOracle() *GitIgnoreOracle {
	return &GitIgnoreOracle{}
}

// Init locates the repository enclosing baseDir and loads its ignore rules.
func (o *GitIgnoreOracle) Init(baseDir string) error {
	root, err := findRepositoryRoot(baseDir)
	if err != nil {
		return err
	}
	rules, err := gitignore.NewRepository(root)
	if err != nil {
		return err
	}
	exclude := loadIgnoreFile(filepath.Join(root, ".git", "info", "exclude"), root)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.repoRoot = root
	o.rules = rules
	o.exclude = exclude
	return nil
}

// RepositoryRoot returns the root found by Init, or "".
func (o *GitIgnoreOracle) RepositoryRoot() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.repoRoot
}

// IsIgnored reports whether the file at absolutePath is ignored. Files
// outside of the repository are never ignored.
func (o *GitIgnoreOracle) IsIgnored(absolutePath string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.rules == nil {
		return false
	}
	relativePath, err := filepath.Rel(o.repoRoot, absolutePath)
	if err != nil {
		return false
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == ".." || strings.HasPrefix(relativePath, "../") {
		return false
	}
	if inVCSDirectory(relativePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Absolute walks the nested .gitignore files between the root and the path
	if match := o.rules.Absolute(absolutePath, isDir); match != nil && match.Ignore() {
		return true
	}
	if o.exclude != nil {
		if match := o.exclude.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// Clean releases the loaded rules.
func (o *GitIgnoreOracle) Clean() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rules = nil
	o.exclude = nil
	o.repoRoot = ""
}

func inVCSDirectory(relativePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		if _, ok := vcsDirectories[part]; ok {
			return true
		}
	}
	return false
}

func findRepositoryRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRepository
		}
		dir = parent
	}
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
