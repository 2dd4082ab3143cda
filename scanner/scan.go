// Package scanner discovers, filters and indexes the files of a project.
package scanner

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lexandro/sourcescan/exclusion"
	"github.com/lexandro/sourcescan/index"
	"github.com/lexandro/sourcescan/project"
)

// Options are the collaborators of a scan. Only Logger is required.
type Options struct {
	Logger   *slog.Logger
	Warnings exclusion.WarningSink
	Ignore   IgnoreOracle
	Changes  ChangeOracle
	Baseline Baseline
	Filters  []FileFilter
	// ProgressInterval defaults to DefaultProgressInterval.
	ProgressInterval time.Duration
}

// Result summarizes a scan.
type Result struct {
	Store              *index.Store
	Indexed            int
	ExcludedByPatterns int
	IgnoredBySCM       int
	Duration           time.Duration
}

// Scan indexes every module of tree, children before their parent, and
// returns the frozen store.
func Scan(tree *project.Tree, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger

	modules := tree.ChildrenFirst()
	store := index.NewStore()
	for _, m := range modules {
		if err := store.RegisterModule(m); err != nil {
			return nil, err
		}
	}

	hidden := NewHiddenFiles()
	pre, err := newPreprocessor(tree, opts.Warnings, opts.Ignore, hidden, logger)
	if err != nil {
		return nil, err
	}
	logProjectConfiguration(logger, pre.project)

	scopes, err := pre.run(modules)
	if err != nil {
		return nil, err
	}

	progress := startProgress(logger, opts.ProgressInterval)
	defer progress.cancel()

	ix := &indexer{
		logger: logger,
		store:  store,
		ids:    &IDGenerator{},
		hidden: hidden,
		metadata: &metadataGenerator{
			logger: logger,
			status: &statusDetector{scm: opts.Changes, baseline: opts.Baseline},
		},
		filters:        opts.Filters,
		projectBaseDir: tree.Root.BaseDir,
		progress:       progress,
	}
	for _, scope := range scopes {
		logModuleConfiguration(logger, scope, pre.project)
		if err := ix.index(scope); err != nil {
			return nil, err
		}
	}
	progress.finish()
	store.Freeze()

	return &Result{
		Store:              store,
		Indexed:            ix.indexed,
		ExcludedByPatterns: pre.excludedByPatterns,
		IgnoredBySCM:       pre.ignoredBySCM,
		Duration:           time.Since(start),
	}, nil
}

func logProjectConfiguration(logger *slog.Logger, filters *exclusion.Filters) {
	lines := filters.Describe()
	if len(lines) == 0 {
		return
	}
	logger.Info("Project configuration:")
	for _, line := range lines {
		logger.Info("  " + line)
	}
}

func logModuleConfiguration(logger *slog.Logger, scope *moduleScope, projectFilters *exclusion.Filters) {
	m := scope.module
	logger.Info(fmt.Sprintf("Indexing files of module '%s'", m.DisplayName()))
	logger.Info("  Base dir: " + m.BaseDir)
	logger.Info("  Working dir: " + m.WorkDir)
	if len(m.Sources) > 0 {
		logger.Info("  Source paths: " + relativePaths(m, m.Sources))
	}
	if len(m.Tests) > 0 {
		logger.Info("  Test paths: " + relativePaths(m, m.Tests))
	}
	logger.Info("  Source encoding: " + m.Encoding.String())

	moduleFilters := scope.evaluator.Module()
	if moduleFilters == projectFilters {
		return
	}
	projectLines := projectFilters.Describe()
	for _, line := range moduleFilters.Describe() {
		if !slices.Contains(projectLines, line) {
			logger.Info("  " + line)
		}
	}
}

func relativePaths(m *project.Module, paths []string) string {
	rel := make([]string, len(paths))
	for i, p := range paths {
		if r, ok := m.Relative(p); ok {
			rel[i] = r
		} else {
			rel[i] = p
		}
	}
	return strings.Join(rel, ", ")
}
