// Package project builds the module tree of the analysed project.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lexandro/sourcescan/charset"
	"github.com/lexandro/sourcescan/config"
)

// DefaultWorkDir is the working directory name used when none is configured.
const DefaultWorkDir = ".sourcescan"

// Module is a unit of the project with its own base directory and
// configuration scope. The root module is the project itself.
type Module struct {
	Key      string
	Name     string
	BaseDir  string // absolute real path
	WorkDir  string // absolute path, never indexed
	Encoding charset.Charset
	Sources  []string // absolute paths of source roots, files or directories
	Tests    []string // absolute paths of test roots

	// Properties are the effective properties: inherited ones overlaid with the module's own.
	Properties config.Properties

	Parent   *Module
	Children []*Module

	// properties handed down to children, before aggregator clean-up
	inheritable config.Properties
}

// IsRoot reports whether m is the project itself.
func (m *Module) IsRoot() bool { return m.Parent == nil }

// DisplayName returns the name when set, the key otherwise.
func (m *Module) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Key
}

// Relative returns path relative to the module base directory with forward
// slashes. ok is false when path is outside of it.
func (m *Module) Relative(path string) (string, bool) {
	return RelativeTo(m.BaseDir, path)
}

// RelativeTo returns path relative to baseDir with forward slashes, or false
// when path does not lie within baseDir.
func RelativeTo(baseDir, path string) (string, bool) {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Contains reports whether path is baseDir or lies within it.
func Contains(baseDir, path string) bool {
	_, ok := RelativeTo(baseDir, path)
	return ok
}

// Tree is the module hierarchy built from a configuration.
type Tree struct {
	Root  *Module
	byKey map[string]*Module
}

// Module returns the module registered under key.
func (t *Tree) Module(key string) *Module {
	return t.byKey[key]
}

// ChildrenFirst returns every module so that children come before their
// parent, siblings sorted by key. The root is last.
func (t *Tree) ChildrenFirst() []*Module {
	var ordered []*Module
	var visit func(*Module)
	visit = func(m *Module) {
		children := append([]*Module(nil), m.Children...)
		sort.Slice(children, func(i, j int) bool { return children[i].Key < children[j].Key })
		for _, child := range children {
			visit(child)
		}
		ordered = append(ordered, m)
	}
	visit(t.Root)
	return ordered
}

// Build resolves the module definitions of cfg into a Tree. Source and test
// folders must exist.
func Build(cfg *config.Config) (*Tree, error) {
	tree := &Tree{byKey: make(map[string]*Module)}

	rootDir, err := realDir(cfg.Project.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("project base directory: %w", err)
	}

	workDir := DefaultWorkDir
	if v, ok := cfg.Project.Properties.Get(config.PropWorkDir); ok && v != "" {
		workDir = v
	}
	if !filepath.IsAbs(workDir) {
		workDir = filepath.Join(rootDir, workDir)
	}

	root, err := tree.build(cfg.Project, nil, rootDir, workDir)
	if err != nil {
		return nil, err
	}
	tree.Root = root
	return tree, nil
}

// properties a module never inherits from its parent
var nonInheritedProperties = []string{config.PropWorkDir}

// sources and tests of a module that has children belong to the children
var aggregatorIgnoredProperties = []string{config.PropSources, config.PropTests}

func (t *Tree) build(def config.ModuleDefinition, parent *Module, baseDir string, workDir string) (*Module, error) {
	if _, exists := t.byKey[def.Key]; exists {
		return nil, fmt.Errorf("module key %q is used more than once", def.Key)
	}

	props := def.Properties
	if parent != nil {
		props = parent.inheritable.Without(nonInheritedProperties...).Merge(def.Properties)
	}

	module := &Module{
		Key:     def.Key,
		Name:    def.Name,
		BaseDir: baseDir,
		WorkDir: workDir,
		Parent:  parent,
	}

	encodingName, ok := props.Get(config.PropEncoding)
	if !ok || encodingName == "" {
		encodingName = string(charset.UTF8)
	}
	var err error
	module.Encoding, err = charset.Lookup(encodingName)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", def.Key, err)
	}

	module.inheritable = props
	if len(def.Modules) > 0 {
		props = props.Without(aggregatorIgnoredProperties...)
	}
	module.Properties = props
	t.byKey[def.Key] = module

	for _, childDef := range def.Modules {
		childBase := childDef.BaseDir
		if childBase == "" {
			childBase = childDef.Key
		}
		if !filepath.IsAbs(childBase) {
			childBase = filepath.Join(baseDir, childBase)
		}
		childBase, err := realDir(childBase)
		if err != nil {
			return nil, fmt.Errorf("module %s base directory: %w", childDef.Key, err)
		}
		child, err := t.build(childDef, module, childBase, filepath.Join(workDir, childDef.Key))
		if err != nil {
			return nil, err
		}
		module.Children = append(module.Children, child)
	}

	if err := module.resolveRoots(len(def.Modules) == 0); err != nil {
		return nil, err
	}
	return module, nil
}

func (m *Module) resolveRoots(leaf bool) error {
	sources := m.Properties.StringArray(config.PropSources)
	tests := m.Properties.StringArray(config.PropTests)
	if leaf && !m.Properties.Has(config.PropSources) && !m.Properties.Has(config.PropTests) {
		// nothing configured: the whole base directory is sources
		sources = []string{"."}
	}

	var err error
	if m.Sources, err = m.resolvePaths(sources); err != nil {
		return err
	}
	m.Tests, err = m.resolvePaths(tests)
	return err
}

func (m *Module) resolvePaths(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(m.BaseDir, p)
		}
		abs = filepath.Clean(abs)
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("the folder '%s' does not exist for '%s' (base directory = %s)", p, m.Key, m.BaseDir)
			}
			return nil, fmt.Errorf("module %s: %w", m.Key, err)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

func realDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}
