package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lexandro/sourcescan/project"
	"github.com/lexandro/sourcescan/watcher"
)

// vcsDirectories are never watched.
var vcsDirectories = map[string]bool{".git": true, ".svn": true, ".hg": true}

// watchIgnore keeps the scanner's own output and VCS metadata from
// triggering scans.
type watchIgnore struct {
	workDir string
	logFile string
}

func newWatchIgnore(tree *project.Tree, logFile string) *watchIgnore {
	ignore := &watchIgnore{workDir: tree.Root.WorkDir}
	if logFile != "" {
		if abs, err := filepath.Abs(logFile); err == nil {
			ignore.logFile = abs
		}
	}
	return ignore
}

func (i *watchIgnore) ShouldIgnoreDir(path string) bool {
	return vcsDirectories[filepath.Base(path)] || project.Contains(i.workDir, path)
}

func (i *watchIgnore) ShouldIgnore(path string) bool {
	if path == i.logFile || project.Contains(i.workDir, path) {
		return true
	}
	for dir := filepath.Dir(path); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if vcsDirectories[filepath.Base(dir)] {
			return true
		}
	}
	return false
}

// watchRoots returns the source and test roots of every module plus the
// configuration file.
func watchRoots(run *scanRun) []string {
	seen := make(map[string]bool)
	var roots []string
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			roots = append(roots, path)
		}
	}
	for _, m := range run.tree.ChildrenFirst() {
		for _, p := range m.Sources {
			add(p)
		}
		for _, p := range m.Tests {
			add(p)
		}
	}
	add(run.configPath)
	return roots
}

// watchAndScan scans the project, then scans it again after every batch of
// changes until ctx is done. A failing rescan is logged and the previous
// module layout keeps being watched.
func watchAndScan(ctx context.Context, global *globalOptions, opts *scanOptions, interval time.Duration, logger *slog.Logger, out io.Writer) error {
	run, err := performScan(ctx, global, opts, logger)
	if err != nil {
		return err
	}
	writeSummary(out, run)

	for {
		roots := watchRoots(run)
		w, err := watcher.NewWatcher(roots, newWatchIgnore(run.tree, global.logFile), interval, logger)
		if err != nil {
			return fmt.Errorf("watching project: %w", err)
		}
		logger.Info("Watching for changes", "roots", len(roots))

		var batch []watcher.Change
		select {
		case <-ctx.Done():
			w.Close()
			return nil
		case batch = <-w.Changes():
		}
		w.Close()
		if len(batch) == 0 {
			continue
		}

		logger.Info(fmt.Sprintf("%d changes detected, scanning again", len(batch)), "first", batch[0].Path, "op", batch[0].Op)
		next, err := performScan(ctx, global, opts, logger)
		if err != nil {
			logger.Error("scan failed", "error", err)
			continue
		}
		run = next
		writeSummary(out, run)
	}
}
