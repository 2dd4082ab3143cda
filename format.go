package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/index"
)

type listOptions struct {
	glob       string
	maxResults int
	strategy   string
	module     string
	language   string
	details    bool
}

// writeSummary prints the outcome of a scan.
func writeSummary(w io.Writer, run *scanRun) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	store := run.result.Store
	cyan.Fprintln(w, "=== sourcescan summary ===")
	fmt.Fprintf(w, "Project: %s (%s)\n", run.tree.Root.DisplayName(), run.tree.Root.BaseDir)
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(run.result.Duration))
	green.Fprintf(w, "Indexed files: %d\n", run.result.Indexed)
	fmt.Fprintf(w, "Excluded by patterns: %d\n", run.result.ExcludedByPatterns)
	fmt.Fprintf(w, "Ignored by SCM: %d\n", run.result.IgnoredBySCM)
	if run.changes != nil {
		fmt.Fprintf(w, "Changed since %s: %d\n", run.changes.Reference(), run.changes.ChangedCount())
	}
	if run.saved {
		gray.Fprintf(w, "Baseline saved to %s\n", run.baseline)
	}

	modules := store.Modules()
	if len(modules) > 1 {
		fmt.Fprintln(w, "\nModules:")
		for _, m := range modules {
			fmt.Fprintf(w, "  %-30s %d files\n", m.DisplayName(), len(store.ModuleFiles(m.Key)))
		}
	}

	counts := store.LanguageCounts()
	if len(counts) > 0 {
		fmt.Fprintln(w, "\nLanguages:")

		// Sort by count descending
		type langEntry struct {
			lang  string
			count int
		}
		entries := make([]langEntry, 0, len(counts))
		for lang, count := range counts {
			if lang == "" {
				lang = "(none)"
			}
			entries = append(entries, langEntry{lang, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].lang < entries[j].lang
		})
		for _, entry := range entries {
			fmt.Fprintf(w, "  %-20s %d files\n", entry.lang, entry.count)
		}
	}

	if len(run.warnings) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintf(w, "Warnings (%d):\n", len(run.warnings))
		for _, warning := range run.warnings {
			yellow.Fprintf(w, "  - %s\n", warning)
		}
	}
}

// writeFileList prints the files of a view over the catalog.
func writeFileList(w io.Writer, run *scanRun, opts listOptions) error {
	store := run.result.Store

	strategyName := opts.strategy
	if strategyName == "" {
		strategyName, _ = run.tree.Root.Properties.Get(config.PropStrategy)
	}
	strategy, err := index.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	moduleKey := opts.module
	if moduleKey == "" {
		moduleKey = run.tree.Root.Key
	}
	if store.Module(moduleKey) == nil {
		return fmt.Errorf("unknown module %q", moduleKey)
	}

	view := store.View(strategy, moduleKey)
	var files []*index.InputFile
	switch {
	case opts.glob != "" && strategy == index.GlobalStrategy:
		files, err = store.SearchByGlob(opts.glob, opts.maxResults)
		if err != nil {
			return err
		}
		files = filterLanguage(files, opts.language)
	case opts.glob != "":
		files, err = matchModulePaths(view.Files(), opts.glob, opts.maxResults)
		if err != nil {
			return err
		}
		files = filterLanguage(files, opts.language)
	case opts.language != "":
		files = view.FilesWithLanguage(opts.language)
	default:
		files = view.Files()
	}

	fmt.Fprint(w, formatFileResults(files, strategy, opts.details))
	return nil
}

func matchModulePaths(files []*index.InputFile, pattern string, maxResults int) ([]*index.InputFile, error) {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	var matched []*index.InputFile
	for _, f := range files {
		if maxResults > 0 && len(matched) >= maxResults {
			break
		}
		if doublestar.MatchUnvalidated(pattern, f.ModuleRelativePath) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func filterLanguage(files []*index.InputFile, language string) []*index.InputFile {
	if language == "" {
		return files
	}
	var kept []*index.InputFile
	for _, f := range files {
		if f.Language == language {
			kept = append(kept, f)
		}
	}
	return kept
}

// formatFileResults renders one file per line, with its path relative to the view root.
func formatFileResults(files []*index.InputFile, strategy index.Strategy, details bool) string {
	if len(files) == 0 {
		return "No files matched.\n"
	}

	var builder strings.Builder
	for _, f := range files {
		path := f.ProjectRelativePath
		if strategy == index.ModuleStrategy {
			path = f.ModuleRelativePath
		}
		if !details {
			builder.WriteString(path)
			builder.WriteString("\n")
			continue
		}

		language := f.Language
		if language == "" {
			language = "-"
		}
		metadata, err := f.Metadata()
		if err != nil {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %v)\n", path, f.Type, language, err))
			continue
		}
		status, _ := f.Status()
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %s, %s, %d lines)\n",
			path,
			f.Type,
			language,
			metadata.Charset,
			status,
			metadata.Lines,
		))
	}
	return builder.String()
}

// formatDuration renders a duration for humans, sub-second runs in milliseconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
