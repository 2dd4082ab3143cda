package scanner

import (
	"fmt"
	"log/slog"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/index"
	"github.com/lexandro/sourcescan/project"
)

// FileFilter can veto a file once its metadata is available.
type FileFilter interface {
	Accept(f *index.InputFile) bool
}

// FileFilterFunc adapts a function to FileFilter.
type FileFilterFunc func(f *index.InputFile) bool

// Accept implements FileFilter.
func (fn FileFilterFunc) Accept(f *index.InputFile) bool { return fn(f) }

// indexer turns preprocessed candidates into published InputFiles.
type indexer struct {
	logger         *slog.Logger
	store          *index.Store
	ids            *IDGenerator
	hidden         *HiddenFiles
	metadata       *metadataGenerator
	filters        []FileFilter
	projectBaseDir string
	progress       *progressReporter

	indexed int
}

// index indexes the candidates of a module, MAIN files first.
func (ix *indexer) index(scope *moduleScope) error {
	m := scope.module
	preload := m.Properties.Bool(config.PropPreloadMetadata, false)
	compute := ix.metadata.generate(m.Encoding)

	for _, t := range index.FileTypes {
		for _, c := range scope.files[t] {
			if err := ix.file(scope, t, c, compute, preload); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ix *indexer) file(scope *moduleScope, t index.FileType, c candidate, compute index.MetadataFunc, preload bool) error {
	m := scope.module
	projectRel, ok := project.RelativeTo(ix.projectBaseDir, c.path)
	if !ok {
		panic(fmt.Sprintf("file %s is outside of the project", c.path))
	}
	moduleRel, ok := m.Relative(c.path)
	if !ok {
		panic(fmt.Sprintf("file %s is outside of module %s", c.path, m.Key))
	}
	if ix.store.File(projectRel) != nil {
		return &index.DuplicateFileError{Path: projectRel}
	}

	file := index.NewInputFile(index.IndexedFile{
		ID:                  ix.ids.Next(),
		ProjectRelativePath: projectRel,
		ModuleRelativePath:  moduleRel,
		AbsolutePath:        c.path,
		Type:                t,
		Language:            c.language,
		ModuleKey:           m.Key,
	}, compute)
	file.Hidden = ix.hidden.Take(m.Key, c.path)
	file.ExcludedForCoverage = scope.evaluator.ExcludedForCoverage(c.path)
	file.ExcludedForDuplication = scope.evaluator.ExcludedForDuplication(c.path)

	if preload {
		if _, err := file.Metadata(); err != nil {
			return err
		}
	}

	for _, filter := range ix.filters {
		if !filter.Accept(file) {
			ix.logger.Info(fmt.Sprintf("'%s' excluded by %T", projectRel, filter))
			return nil
		}
	}

	if file.Language != "" {
		Publish(file)
	}
	if err := ix.store.Put(file); err != nil {
		return err
	}
	if file.Language == "" {
		ix.logger.Debug(fmt.Sprintf("'%s' indexed with no language", projectRel))
	}
	ix.indexed++
	ix.progress.increment(projectRel)
	return nil
}

// Publish makes a file visible to the analysis stages that only see published files.
func Publish(f *index.InputFile) {
	f.Published = true
}
