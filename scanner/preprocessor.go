package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/exclusion"
	"github.com/lexandro/sourcescan/index"
	"github.com/lexandro/sourcescan/language"
	"github.com/lexandro/sourcescan/project"
)

// DefaultFileSizeLimitMB is the size above which files are left out, in megabytes.
const DefaultFileSizeLimitMB = 20

// IgnoreOracle reports files the SCM ignores.
type IgnoreOracle interface {
	IsIgnored(absolutePath string) bool
}

// candidate is a file kept by the preprocessor, in discovery order.
type candidate struct {
	path     string
	language string
}

// moduleScope holds what is computed once per module before indexing.
type moduleScope struct {
	module     *project.Module
	evaluator  *exclusion.Evaluator
	classifier *language.Classifier
	files      map[index.FileType][]candidate
}

// preprocessor discovers and filters the files of every module without
// reading their content.
type preprocessor struct {
	logger       *slog.Logger
	tree         *project.Tree
	project      *exclusion.Filters
	deprecations *exclusion.Deprecations
	sink         exclusion.WarningSink
	ignore       IgnoreOracle
	hidden       *HiddenFiles

	excludedByPatterns int
	ignoredBySCM       int
}

func newPreprocessor(tree *project.Tree, sink exclusion.WarningSink, ignore IgnoreOracle, hidden *HiddenFiles, logger *slog.Logger) (*preprocessor, error) {
	projectFilters, err := exclusion.NewFilters(tree.Root.BaseDir, tree.Root.Properties, sink)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", tree.Root.Key, err)
	}
	return &preprocessor{
		logger:       logger,
		tree:         tree,
		project:      projectFilters,
		deprecations: exclusion.NewDeprecations(sink, logger),
		sink:         sink,
		ignore:       ignore,
		hidden:       hidden,
	}, nil
}

// run preprocesses modules in the given order.
func (p *preprocessor) run(modules []*project.Module) ([]*moduleScope, error) {
	scopes := make([]*moduleScope, 0, len(modules))
	for _, m := range modules {
		scope, err := p.module(m)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	p.logger.Info(fmt.Sprintf("%s ignored because of inclusion/exclusion patterns", pluralizeFiles(int64(p.excludedByPatterns))))
	if p.ignore != nil {
		p.logger.Info(fmt.Sprintf("%s ignored because of scm ignore settings", pluralizeFiles(int64(p.ignoredBySCM))))
	}
	return scopes, nil
}

func (p *preprocessor) module(m *project.Module) (*moduleScope, error) {
	moduleFilters := p.project
	if !m.IsRoot() {
		var err error
		if moduleFilters, err = exclusion.NewFilters(m.BaseDir, m.Properties, p.sink); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Key, err)
		}
	}
	classifier, err := language.NewClassifier(m.Properties)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Key, err)
	}
	limitMB, err := m.Properties.Int64(config.PropFileSizeLimit, DefaultFileSizeLimitMB)
	if err != nil {
		return nil, err
	}

	scope := &moduleScope{
		module:     m,
		evaluator:  exclusion.NewEvaluator(p.project, moduleFilters, p.deprecations),
		classifier: classifier,
		files:      make(map[index.FileType][]candidate),
	}

	roots := map[index.FileType][]string{index.Main: m.Sources, index.Test: m.Tests}
	for _, t := range index.FileTypes {
		w := &walker{
			logger:        p.logger,
			skipDirs:      []string{p.tree.Root.WorkDir, m.WorkDir},
			excludeHidden: m.Properties.Bool(config.PropExcludeHidden, false),
			prune: func(dir string) bool {
				return scope.evaluator.IsExcludedDirectory(dir, t)
			},
			excluded: func(path string, isDir bool) bool {
				if isDir {
					return scope.evaluator.IsExcludedDirectory(path, t)
				}
				return scope.evaluator.IsExcluded(path, t)
			},
			visit: func(path string, info fs.FileInfo, hidden bool) error {
				return p.file(scope, t, path, info, hidden, limitMB)
			},
		}
		for _, root := range roots[t] {
			if err := w.walk(root); err != nil {
				return nil, err
			}
		}
	}
	return scope, nil
}

func (p *preprocessor) file(scope *moduleScope, t index.FileType, path string, info fs.FileInfo, hidden bool, limitMB int64) error {
	m := scope.module
	root := p.tree.Root

	if !project.Contains(root.BaseDir, path) {
		p.logger.Warn(fmt.Sprintf("File '%s' is ignored. It is not located in project basedir '%s'.", path, root.BaseDir))
		return nil
	}
	if !project.Contains(m.BaseDir, path) {
		p.logger.Warn(fmt.Sprintf("File '%s' is ignored. It is not located in module basedir '%s'.", path, m.BaseDir))
		return nil
	}

	if !scope.evaluator.Accept(path, t) {
		p.excludedByPatterns++
		return nil
	}

	if target, err := filepath.EvalSymlinks(path); err != nil {
		return &WalkError{Path: path, Err: err}
	} else if target != path {
		if !project.Contains(root.BaseDir, target) {
			p.logger.Warn(fmt.Sprintf("File '%s' is ignored. It is a symbolic link targeting a file not located in project basedir.", path))
			return nil
		}
		if !project.Contains(m.BaseDir, target) {
			p.logger.Warn(fmt.Sprintf("File '%s' is ignored. It is a symbolic link targeting a file not located in module basedir.", path))
			return nil
		}
	}

	if p.ignore != nil && p.ignore.IsIgnored(path) {
		p.ignoredBySCM++
		return nil
	}

	if info.Size() > limitMB*1024*1024 {
		p.logger.Warn(fmt.Sprintf("File '%s' is bigger than %dMB and as consequence is removed from the analysis scope.", path, limitMB))
		return nil
	}

	moduleRel, _ := m.Relative(path)
	lang, err := scope.classifier.Classify(path, moduleRel)
	if err != nil {
		return err
	}

	if hidden {
		p.hidden.Mark(m.Key, path)
	}
	scope.files[t] = append(scope.files[t], candidate{path: path, language: lang})
	return nil
}
