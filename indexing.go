package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/sourcescan/baseline"
	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/ignore"
	"github.com/lexandro/sourcescan/index"
	"github.com/lexandro/sourcescan/project"
	"github.com/lexandro/sourcescan/scanner"
	"github.com/lexandro/sourcescan/scm"
	"github.com/lexandro/sourcescan/warnings"
)

// baselineFileName is created in the project working directory.
const baselineFileName = "baseline.db"

type scanOptions struct {
	baselinePath string
	saveBaseline bool
	noBaseline   bool
}

// scanRun is a finished scan with what is needed to report on it.
type scanRun struct {
	tree       *project.Tree
	configPath string
	result     *scanner.Result
	warnings   []string
	changes    *scm.GitChangeOracle
	baseline   string // database path, empty when not used
	saved      bool
}

// performScan loads the configuration, builds the module tree and indexes it
// with the SCM and baseline collaborators the project properties enable.
func performScan(ctx context.Context, global *globalOptions, opts *scanOptions, logger *slog.Logger) (*scanRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(global.baseDir, global.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Override(global.properties); err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Info("Project configuration loaded", "file", cfg.Path)
	}

	tree, err := project.Build(cfg)
	if err != nil {
		return nil, err
	}
	props := tree.Root.Properties

	collector := warnings.NewCollector(logger)
	scanOpts := scanner.Options{
		Logger:   logger,
		Warnings: collector,
	}
	run := &scanRun{tree: tree, configPath: cfg.Path}

	if !props.Bool(config.PropSCMExclusionsDisabled, false) {
		oracle := ignore.NewGitIgnoreOracle()
		switch err := oracle.Init(tree.Root.BaseDir); {
		case err == nil:
			defer oracle.Clean()
			scanOpts.Ignore = oracle
		case errors.Is(err, ignore.ErrNoRepository):
			logger.Info("SCM ignore settings not applied, no repository found", "baseDir", tree.Root.BaseDir)
		default:
			return nil, fmt.Errorf("loading scm ignore settings: %w", err)
		}
	}

	if reference, ok := props.Get(config.PropSCMReference); ok && reference != "" {
		changes, err := scm.NewGitChangeOracle(tree.Root.BaseDir, reference)
		if err != nil {
			return nil, err
		}
		logger.Info("SCM changes computed", "reference", changes.Reference(), "files", changes.ChangedCount())
		scanOpts.Changes = changes
		run.changes = changes
	}

	branch, _ := props.Get(config.PropBranch)
	var repo *baseline.Repository
	if !opts.noBaseline {
		run.baseline = opts.baselinePath
		if run.baseline == "" {
			run.baseline = filepath.Join(tree.Root.WorkDir, baselineFileName)
		}
		repo, err = baseline.Open(run.baseline)
		if err != nil {
			return nil, err
		}
		defer repo.Close()

		snapshots := scanner.Snapshots{}
		for _, m := range tree.ChildrenFirst() {
			snapshot, err := repo.Snapshot(ctx, baseline.Key(m.Key, branch))
			if err != nil {
				return nil, err
			}
			snapshots[m.Key] = snapshot
		}
		scanOpts.Baseline = snapshots
	}

	result, err := scanner.Scan(tree, scanOpts)
	if err != nil {
		return nil, err
	}
	run.result = result

	if repo != nil && opts.saveBaseline {
		if err := saveBaseline(ctx, repo, result.Store, branch); err != nil {
			return nil, err
		}
		run.saved = true
		logger.Info("Baseline saved", "path", run.baseline)
	}

	run.warnings = collector.Warnings()
	return run, nil
}

// saveBaseline records the hash of every indexed file, which computes the
// metadata of files that were not read yet.
func saveBaseline(ctx context.Context, repo *baseline.Repository, store *index.Store, branch string) error {
	for _, m := range store.Modules() {
		files := store.ModuleFiles(m.Key)
		entries := make([]baseline.Entry, 0, len(files))
		for _, f := range files {
			metadata, err := f.Metadata()
			if err != nil {
				return fmt.Errorf("hashing %s: %w", f.ProjectRelativePath, err)
			}
			entries = append(entries, baseline.Entry{Path: f.ModuleRelativePath, Hash: metadata.Hash})
		}
		if err := repo.Save(ctx, baseline.Key(m.Key, branch), entries); err != nil {
			return err
		}
	}
	return nil
}
