package exclusion

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/index"
)

// Deprecations reports module-relative matches of project level patterns,
// once per property for the whole run.
type Deprecations struct {
	mu     sync.Mutex
	warned map[string]struct{}
	sink   WarningSink
	logger *slog.Logger
}

// NewDeprecations creates the run-wide deprecation state. Warnings go to sink,
// which logs them; logger is used only when sink is nil.
func NewDeprecations(sink WarningSink, logger *slog.Logger) *Deprecations {
	return &Deprecations{
		warned: make(map[string]struct{}),
		sink:   sink,
		logger: logger,
	}
}

func (d *Deprecations) warnOnce(property, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, done := d.warned[property]; done {
		return
	}
	d.warned[property] = struct{}{}
	msg := fmt.Sprintf("Specifying module-relative paths at project level in the property '%s' is deprecated. "+
		"To continue matching files like '%s', update this property so that patterns refer to project-relative paths.",
		property, path)
	if d.sink != nil {
		d.sink.AddUnique(msg)
		return
	}
	d.logger.Warn(msg)
}

// Evaluator decides inclusion, exclusion, coverage and duplication for the
// files of one module. A module whose patterns differ from the project's is
// evaluated on its own; otherwise the project patterns are applied to the
// project relative path, falling back to the module relative path with a
// deprecation warning.
type Evaluator struct {
	project      *Filters
	module       *Filters
	deprecations *Deprecations
}

// NewEvaluator pairs the project filters with the filters of one module.
func NewEvaluator(project, module *Filters, deprecations *Deprecations) *Evaluator {
	return &Evaluator{project: project, module: module, deprecations: deprecations}
}

// Module returns the filters of the evaluated module.
func (e *Evaluator) Module() *Filters {
	return e.module
}

// Accept reports whether a file is in scope for t. absPath must lie within
// both base directories.
func (e *Evaluator) Accept(absPath string, t index.FileType) bool {
	projectRel, ok := e.project.Relative(absPath)
	if !ok {
		return false
	}
	moduleRel, ok := e.module.Relative(absPath)
	if !ok {
		return false
	}

	if !slices.Equal(e.module.InclusionsConfig(t), e.project.InclusionsConfig(t)) {
		if !e.module.IsIncluded(absPath, moduleRel, t) {
			return false
		}
	} else if !e.project.IsIncluded(absPath, projectRel, t) {
		if !e.module.IsIncluded(absPath, moduleRel, t) {
			return false
		}
		e.deprecations.warnOnce(inclusionsProperty(t), moduleRel)
	}

	return !e.isExcluded(absPath, projectRel, moduleRel, t)
}

// IsExcluded applies the exclusion patterns of t only, ignoring inclusions.
func (e *Evaluator) IsExcluded(absPath string, t index.FileType) bool {
	projectRel, ok := e.project.Relative(absPath)
	if !ok {
		return false
	}
	moduleRel, ok := e.module.Relative(absPath)
	if !ok {
		return false
	}
	return e.isExcluded(absPath, projectRel, moduleRel, t)
}

func (e *Evaluator) isExcluded(absPath, projectRel, moduleRel string, t index.FileType) bool {
	if !slices.Equal(e.module.ExclusionsConfig(t), e.project.ExclusionsConfig(t)) {
		return e.module.IsExcluded(absPath, moduleRel, t)
	}
	if e.project.IsExcluded(absPath, projectRel, t) {
		return true
	}
	if e.module.IsExcluded(absPath, moduleRel, t) {
		e.deprecations.warnOnce(exclusionsProperty(t), moduleRel)
		return true
	}
	return false
}

// ExcludedForCoverage applies the coverage exclusions.
func (e *Evaluator) ExcludedForCoverage(absPath string) bool {
	return e.excluded(absPath, e.project.Coverage, e.module.Coverage)
}

// ExcludedForDuplication applies the duplication exclusions.
func (e *Evaluator) ExcludedForDuplication(absPath string) bool {
	return e.excluded(absPath, e.project.Duplication, e.module.Duplication)
}

func (e *Evaluator) excluded(absPath string, projectSet, moduleSet *PatternSet) bool {
	projectRel, _ := e.project.Relative(absPath)
	moduleRel, _ := e.module.Relative(absPath)

	if !slices.Equal(moduleSet.Config(), projectSet.Config()) {
		return moduleSet.IsExcluded(absPath, moduleRel)
	}
	if projectSet.IsExcluded(absPath, projectRel) {
		return true
	}
	if moduleSet.IsExcluded(absPath, moduleRel) {
		e.deprecations.warnOnce(projectSet.Property(), moduleRel)
		return true
	}
	return false
}

// IsExcludedDirectory reports whether the walk can skip dir for t. The
// module filters decide when the module customizes its exclusions,
// the project filters otherwise.
func (e *Evaluator) IsExcludedDirectory(dir string, t index.FileType) bool {
	if !slices.Equal(e.module.ExclusionsConfig(t), e.project.ExclusionsConfig(t)) {
		return e.module.IsExcludedAsParentDirectoryOfExcludedChildren(dir, t)
	}
	return e.project.IsExcludedAsParentDirectoryOfExcludedChildren(dir, t)
}

func inclusionsProperty(t index.FileType) string {
	if t == index.Test {
		return config.PropTestInclusions
	}
	return config.PropInclusions
}

func exclusionsProperty(t index.FileType) string {
	if t == index.Test {
		return config.PropTestExclusions
	}
	return config.PropExclusions
}
