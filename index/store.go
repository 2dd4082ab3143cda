// Package index holds the catalog of files selected for analysis.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/sourcescan/project"
)

var (
	// ErrModuleAlreadyRegistered is returned when a module key is registered twice.
	ErrModuleAlreadyRegistered = errors.New("module already registered")
	// ErrFrozen is returned on writes once indexing is over.
	ErrFrozen = errors.New("store is read-only")
)

// DuplicateFileError is returned when a normalized path is indexed a second time.
type DuplicateFileError struct {
	Path string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("file %s can't be indexed twice. Please check that inclusion/exclusion patterns produce disjoint sets for main and test files", e.Path)
}

// Store is the catalog of indexed files. It is written by a single goroutine
// while indexing and read concurrently once frozen.
type Store struct {
	mu     sync.RWMutex
	frozen bool

	modules     map[string]*project.Module
	moduleOrder []string

	files       map[string]*InputFile            // key: project relative path
	moduleFiles map[string]map[string]*InputFile // key: module key, then module relative path
	sortedPaths []string

	byModule    map[string][]*InputFile
	byFilename  map[string][]*InputFile
	byExtension map[string][]*InputFile

	languages         map[string]struct{}
	languagesByModule map[string]map[string]struct{}
}

// NewStore creates an empty catalog.
func NewStore() *Store {
	return &Store{
		modules:           make(map[string]*project.Module),
		files:             make(map[string]*InputFile),
		moduleFiles:       make(map[string]map[string]*InputFile),
		byModule:          make(map[string][]*InputFile),
		byFilename:        make(map[string][]*InputFile),
		byExtension:       make(map[string][]*InputFile),
		languages:         make(map[string]struct{}),
		languagesByModule: make(map[string]map[string]struct{}),
	}
}

// RegisterModule adds a module to the catalog. A key can be registered once.
func (s *Store) RegisterModule(m *project.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrFrozen
	}
	if _, exists := s.modules[m.Key]; exists {
		return fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, m.Key)
	}
	s.modules[m.Key] = m
	s.moduleOrder = append(s.moduleOrder, m.Key)
	s.moduleFiles[m.Key] = make(map[string]*InputFile)
	s.languagesByModule[m.Key] = make(map[string]struct{})
	return nil
}

// Put adds a file to the catalog. The owning module must be registered.
func (s *Store) Put(file *InputFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrFrozen
	}
	moduleFiles, ok := s.moduleFiles[file.ModuleKey]
	if !ok {
		panic(fmt.Sprintf("no module %q registered for %s", file.ModuleKey, file.ProjectRelativePath))
	}
	if _, exists := s.files[file.ProjectRelativePath]; exists {
		return &DuplicateFileError{Path: file.ProjectRelativePath}
	}
	if _, exists := moduleFiles[file.ModuleRelativePath]; exists {
		return &DuplicateFileError{Path: file.ProjectRelativePath}
	}

	s.files[file.ProjectRelativePath] = file
	moduleFiles[file.ModuleRelativePath] = file
	idx := sort.SearchStrings(s.sortedPaths, file.ProjectRelativePath)
	s.sortedPaths = append(s.sortedPaths, "")
	copy(s.sortedPaths[idx+1:], s.sortedPaths[idx:])
	s.sortedPaths[idx] = file.ProjectRelativePath

	s.byModule[file.ModuleKey] = append(s.byModule[file.ModuleKey], file)
	s.byFilename[file.Filename()] = append(s.byFilename[file.Filename()], file)
	if ext := file.Extension(); ext != "" {
		s.byExtension[ext] = append(s.byExtension[ext], file)
	}
	if file.Language != "" {
		s.languages[file.Language] = struct{}{}
		s.languagesByModule[file.ModuleKey][file.Language] = struct{}{}
	}
	return nil
}

// Freeze ends the indexing phase. Every later write fails.
func (s *Store) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether the catalog is read-only.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Module returns the registered module for key, or nil.
func (s *Store) Module(key string) *project.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[key]
}

// Modules returns the registered modules in registration order.
func (s *Store) Modules() []*project.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modules := make([]*project.Module, 0, len(s.moduleOrder))
	for _, key := range s.moduleOrder {
		modules = append(modules, s.modules[key])
	}
	return modules
}

// File returns the file at a project relative path, or nil.
func (s *Store) File(projectRelativePath string) *InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[projectRelativePath]
}

// ModuleFile returns the file at a module relative path, or nil.
func (s *Store) ModuleFile(moduleKey, moduleRelativePath string) *InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moduleFiles[moduleKey][moduleRelativePath]
}

// FilesByName returns the files with the given file name.
func (s *Store) FilesByName(filename string) []*InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*InputFile(nil), s.byFilename[filename]...)
}

// FilesByExtension returns the files with the given extension, without dot, case-insensitive.
func (s *Store) FilesByExtension(ext string) []*InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*InputFile(nil), s.byExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]...)
}

// ModuleFiles returns the files owned by a module, in indexing order.
func (s *Store) ModuleFiles(moduleKey string) []*InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*InputFile(nil), s.byModule[moduleKey]...)
}

// AllFiles returns every file sorted by project relative path.
func (s *Store) AllFiles() []*InputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*InputFile, 0, len(s.sortedPaths))
	for _, p := range s.sortedPaths {
		result = append(result, s.files[p])
	}
	return result
}

// FileCount returns the number of indexed files.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Languages returns the sorted keys of every detected language.
func (s *Store) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.languages)
}

// ModuleLanguages returns the sorted language keys detected in a module.
func (s *Store) ModuleLanguages(moduleKey string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.languagesByModule[moduleKey])
}

// LanguageCounts returns a map of language -> file count. Files without a language count under "".
func (s *Store) LanguageCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, file := range s.files {
		counts[file.Language]++
	}
	return counts
}

// SearchByGlob returns files whose project relative path matches a doublestar pattern.
func (s *Store) SearchByGlob(pattern string, maxResults int) ([]*InputFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*InputFile
	for _, p := range s.sortedPaths {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, p)
		if err != nil {
			continue
		}
		if matched {
			results = append(results, s.files[p])
		}
	}
	return results, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
