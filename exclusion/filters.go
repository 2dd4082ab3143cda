package exclusion

import (
	"path/filepath"
	"strings"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/index"
	"github.com/lexandro/sourcescan/project"
)

// WarningSink receives messages shown to the user at the end of the analysis.
type WarningSink interface {
	AddUnique(message string)
}

// Filters holds the inclusion and exclusion patterns of one scope, the
// project or a module, resolved against that scope's base directory.
type Filters struct {
	baseDir string

	inclusions map[index.FileType][]*PathPattern
	exclusions map[index.FileType][]*PathPattern

	Coverage    *PatternSet
	Duplication *PatternSet
}

// NewFilters reads the pattern properties of a scope. Alias warnings go to sink.
func NewFilters(baseDir string, props config.Properties, sink WarningSink) (*Filters, error) {
	f := &Filters{
		baseDir:    baseDir,
		inclusions: make(map[index.FileType][]*PathPattern),
		exclusions: make(map[index.FileType][]*PathPattern),
	}

	read := func(legacy string) ([]*PathPattern, error) {
		values := props.StringArray(legacy)
		if alias, ok := config.AliasOf(legacy); ok {
			var warning string
			values, warning = props.ReconcileAlias(legacy, alias)
			if warning != "" && sink != nil {
				sink.AddUnique(warning)
			}
		}
		return ParsePatterns(values)
	}

	var err error
	if f.inclusions[index.Main], err = read(config.PropInclusions); err != nil {
		return nil, err
	}
	if f.exclusions[index.Main], err = read(config.PropExclusions); err != nil {
		return nil, err
	}
	if f.inclusions[index.Test], err = read(config.PropTestInclusions); err != nil {
		return nil, err
	}
	if f.exclusions[index.Test], err = read(config.PropTestExclusions); err != nil {
		return nil, err
	}
	// a file declared as a test is never a source file
	f.exclusions[index.Main] = append(f.exclusions[index.Main], f.inclusions[index.Test]...)

	coverage, err := read(config.PropCoverageExclusions)
	if err != nil {
		return nil, err
	}
	f.Coverage = &PatternSet{property: config.PropCoverageExclusions, patterns: coverage}

	duplication, err := read(config.PropDuplicationExclusions)
	if err != nil {
		return nil, err
	}
	f.Duplication = &PatternSet{property: config.PropDuplicationExclusions, patterns: duplication}
	return f, nil
}

// BaseDir returns the directory relative paths are computed from.
func (f *Filters) BaseDir() string {
	return f.baseDir
}

// Relative returns absPath relative to the base directory, or false when outside.
func (f *Filters) Relative(absPath string) (string, bool) {
	return project.RelativeTo(f.baseDir, absPath)
}

// InclusionsConfig returns the raw inclusion patterns for a file type.
func (f *Filters) InclusionsConfig(t index.FileType) []string {
	return rawPatterns(f.inclusions[t])
}

// ExclusionsConfig returns the raw exclusion patterns for a file type,
// test inclusions included for MAIN.
func (f *Filters) ExclusionsConfig(t index.FileType) []string {
	return rawPatterns(f.exclusions[t])
}

// HasPattern reports whether any inclusion or exclusion is configured.
func (f *Filters) HasPattern() bool {
	for _, t := range index.FileTypes {
		if len(f.inclusions[t]) > 0 || len(f.exclusions[t]) > 0 {
			return true
		}
	}
	return false
}

// IsIncluded reports whether a file passes the inclusions. No inclusion means everything is included.
func (f *Filters) IsIncluded(absPath, relPath string, t index.FileType) bool {
	inclusions := f.inclusions[t]
	if len(inclusions) == 0 {
		return true
	}
	return matchAny(inclusions, absPath, relPath)
}

// IsExcluded reports whether a file matches an exclusion.
func (f *Filters) IsExcluded(absPath, relPath string, t index.FileType) bool {
	return matchAny(f.exclusions[t], absPath, relPath)
}

// IsExcludedAsParentDirectoryOfExcludedChildren reports whether every file
// below dir is excluded for t by a "<dir>/**/*" pattern, so the directory
// does not need to be walked.
func (f *Filters) IsExcludedAsParentDirectoryOfExcludedChildren(dir string, t index.FileType) bool {
	for _, p := range f.exclusions[t] {
		prefix, ok := p.excludedDirectory()
		if !ok {
			continue
		}
		root := filepath.Join(f.baseDir, filepath.FromSlash(prefix))
		if project.Contains(root, dir) {
			return true
		}
	}
	return false
}

// Describe returns the lines logged for the configuration of a scope.
func (f *Filters) Describe() []string {
	var lines []string
	add := func(label string, patterns []string) {
		if len(patterns) > 0 {
			lines = append(lines, label+": "+strings.Join(patterns, ", "))
		}
	}
	add("Included sources", f.InclusionsConfig(index.Main))
	add("Excluded sources", f.ExclusionsConfig(index.Main))
	add("Included tests", f.InclusionsConfig(index.Test))
	add("Excluded tests", f.ExclusionsConfig(index.Test))
	add("Excluded sources for coverage", f.Coverage.Config())
	add("Excluded sources for duplication", f.Duplication.Config())
	return lines
}
