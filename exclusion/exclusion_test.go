package exclusion

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/index"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) AddUnique(message string) {
	for _, m := range s.messages {
		if m == message {
			return
		}
	}
	s.messages = append(s.messages, message)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustFilters(t *testing.T, baseDir string, props config.Properties) *Filters {
	t.Helper()
	f, err := NewFilters(baseDir, props, nil)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}
	return f
}

func Test_PathPattern_Match(t *testing.T) {
	abs := filepath.FromSlash("/home/dev/project/src/gen/Foo.java")
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		{"src/**/*.java", "src/gen/Foo.java", true},
		{"**/*.java", "Foo.java", true},
		{"src/*.java", "src/gen/Foo.java", false},
		{"src/gen/", "src/gen/Foo.java", true},
		{"src\\gen\\*.java", "src/gen/Foo.java", true},
		{"SRC/**", "src/gen/Foo.java", false},
		{"file:/home/dev/project/src/**", "ignored", true},
		{"file:src/gen/*.java", "ignored", true},
		{"file:/other/**", "src/gen/Foo.java", false},
	}
	for _, tt := range tests {
		p, err := NewPathPattern(tt.pattern)
		if err != nil {
			t.Fatalf("NewPathPattern(%q): %v", tt.pattern, err)
		}
		if got := p.Match(abs, tt.rel); got != tt.want {
			t.Errorf("%q.Match(%q) = %v, want %v", tt.pattern, tt.rel, got, tt.want)
		}
	}
}

func Test_PathPattern_Invalid(t *testing.T) {
	if _, err := NewPathPattern("src/[a-"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func Test_ParsePatterns_SkipsBlank(t *testing.T) {
	patterns, err := ParsePatterns([]string{" ", "**/*.go", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 || patterns[0].String() != "**/*.go" {
		t.Errorf("unexpected patterns: %v", patterns)
	}
}

func Test_Filters_TestInclusionsFoldedIntoMainExclusions(t *testing.T) {
	f := mustFilters(t, "/p", config.Properties{
		config.PropExclusions:     "**/global.exclusions",
		config.PropTestInclusions: "**/global.test.inclusions",
	})

	want := []string{"**/global.exclusions", "**/global.test.inclusions"}
	got := f.ExclusionsConfig(index.Main)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("main exclusions = %v, want %v", got, want)
	}
	if !f.IsExcluded("/p/a/global.test.inclusions", "a/global.test.inclusions", index.Main) {
		t.Error("test inclusion must exclude the file from MAIN")
	}
	if f.IsExcluded("/p/a/global.test.inclusions", "a/global.test.inclusions", index.Test) {
		t.Error("test inclusion must not exclude the file from TEST")
	}

	lines := f.Describe()
	if len(lines) != 2 || lines[0] != "Excluded sources: **/global.exclusions, **/global.test.inclusions" {
		t.Errorf("unexpected description: %v", lines)
	}
	if lines[1] != "Included tests: **/global.test.inclusions" {
		t.Errorf("unexpected description: %v", lines)
	}
}

func Test_Filters_NoInclusionIncludesEverything(t *testing.T) {
	f := mustFilters(t, "/p", config.Properties{})
	if !f.IsIncluded("/p/x.go", "x.go", index.Main) {
		t.Error("expected file to be included")
	}
	if f.HasPattern() {
		t.Error("expected no pattern")
	}

	f = mustFilters(t, "/p", config.Properties{config.PropInclusions: "src/**"})
	if f.IsIncluded("/p/x.go", "x.go", index.Main) {
		t.Error("expected file outside inclusions to be rejected")
	}
	if !f.IsIncluded("/p/src/x.go", "src/x.go", index.Main) {
		t.Error("expected file inside inclusions to be included")
	}
}

func Test_Filters_AliasWarnings(t *testing.T) {
	sink := &recordingSink{}
	f, err := NewFilters("/p", config.Properties{
		config.PropExclusions: "a/**",
		"sources.exclusions":  "b/**",
		"tests.inclusions":    "**/*_test.go",
	}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.ExclusionsConfig(index.Main); got[0] != "a/**" {
		t.Errorf("legacy property must win, got %v", got)
	}
	if got := f.InclusionsConfig(index.Test); len(got) != 1 || got[0] != "**/*_test.go" {
		t.Errorf("alias alone must be used, got %v", got)
	}
	if len(sink.messages) != 2 {
		t.Errorf("expected 2 warnings, got %v", sink.messages)
	}
}

func Test_Filters_ParentDirectoryAgreesWithFileExclusion(t *testing.T) {
	base := filepath.FromSlash("/p")
	f := mustFilters(t, base, config.Properties{
		config.PropExclusions: "build/**/*,src/*/gen/**/*,**/*",
	})
	// "**/*" has no literal prefix and must not prune the base dir
	if f.IsExcludedAsParentDirectoryOfExcludedChildren(base, index.Main) {
		t.Error("base dir must not be pruned")
	}

	f = mustFilters(t, base, config.Properties{config.PropExclusions: "build/**/*,src/*/gen/**/*"})
	tests := []struct {
		dir  string
		want bool
	}{
		{"build", true},
		{"build/classes/x", true},
		{"buildSrc", false},
		{"src/main/gen", false},
		{"src", false},
	}
	for _, tt := range tests {
		dir := filepath.Join(base, filepath.FromSlash(tt.dir))
		got := f.IsExcludedAsParentDirectoryOfExcludedChildren(dir, index.Main)
		if got != tt.want {
			t.Errorf("IsExcludedAsParentDirectoryOfExcludedChildren(%s) = %v, want %v", tt.dir, got, tt.want)
		}
		if !got {
			continue
		}
		for _, child := range []string{"A.java", "deep/er/B.java"} {
			rel := tt.dir + "/" + child
			if !f.IsExcluded(filepath.Join(base, filepath.FromSlash(rel)), rel, index.Main) {
				t.Errorf("pruned directory %s contains non-excluded file %s", tt.dir, rel)
			}
		}
	}
	if f.IsExcludedAsParentDirectoryOfExcludedChildren(filepath.Join(base, "build"), index.Test) {
		t.Error("MAIN exclusions must not prune TEST walks")
	}
}

func Test_Evaluator_ModuleRelativeMatchWarnsOnce(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	moduleDir := filepath.Join(projectDir, "core")
	props := config.Properties{config.PropExclusions: "src/legacy/**"}

	sink := &recordingSink{}
	deprecations := NewDeprecations(sink, discardLogger())
	e := NewEvaluator(mustFilters(t, projectDir, props), mustFilters(t, moduleDir, props), deprecations)

	for _, name := range []string{"A.java", "B.java"} {
		if e.Accept(filepath.Join(moduleDir, "src", "legacy", name), index.Main) {
			t.Errorf("%s should be excluded through the module relative path", name)
		}
	}
	if !e.Accept(filepath.Join(moduleDir, "src", "main", "C.java"), index.Main) {
		t.Error("C.java should be accepted")
	}
	if len(sink.messages) != 1 {
		t.Fatalf("expected exactly one warning, got %v", sink.messages)
	}
	if !strings.Contains(sink.messages[0], "'exclusions'") || !strings.Contains(sink.messages[0], "src/legacy/A.java") {
		t.Errorf("unexpected warning: %s", sink.messages[0])
	}

	// a second module shares the run-wide state
	other := NewEvaluator(mustFilters(t, projectDir, props), mustFilters(t, filepath.Join(projectDir, "web"), props), deprecations)
	other.Accept(filepath.Join(projectDir, "web", "src", "legacy", "D.java"), index.Main)
	if len(sink.messages) != 1 {
		t.Errorf("expected the warning to be emitted once per run, got %v", sink.messages)
	}
}

func Test_Evaluator_ProjectMatchNeedsNoWarning(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	moduleDir := filepath.Join(projectDir, "core")
	props := config.Properties{config.PropExclusions: "core/src/legacy/**"}

	sink := &recordingSink{}
	e := NewEvaluator(mustFilters(t, projectDir, props), mustFilters(t, moduleDir, props), NewDeprecations(sink, discardLogger()))
	if e.Accept(filepath.Join(moduleDir, "src", "legacy", "A.java"), index.Main) {
		t.Error("expected exclusion by the project relative path")
	}
	if len(sink.messages) != 0 {
		t.Errorf("expected no warning, got %v", sink.messages)
	}
}

func Test_Evaluator_CustomizedModuleIsAuthoritative(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	moduleDir := filepath.Join(projectDir, "core")
	projectFilters := mustFilters(t, projectDir, config.Properties{config.PropExclusions: "core/gen/**"})
	moduleFilters := mustFilters(t, moduleDir, config.Properties{config.PropExclusions: "legacy/**/*"})

	sink := &recordingSink{}
	e := NewEvaluator(projectFilters, moduleFilters, NewDeprecations(sink, discardLogger()))

	if !e.Accept(filepath.Join(moduleDir, "gen", "A.java"), index.Main) {
		t.Error("project exclusions must not apply to a customized module")
	}
	if e.Accept(filepath.Join(moduleDir, "legacy", "B.java"), index.Main) {
		t.Error("module exclusions must apply")
	}
	if !e.IsExcludedDirectory(filepath.Join(moduleDir, "legacy"), index.Main) {
		t.Error("expected pruning with the module filters")
	}
	if len(sink.messages) != 0 {
		t.Errorf("expected no warning, got %v", sink.messages)
	}
}

func Test_Evaluator_InclusionFallbackWarns(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	moduleDir := filepath.Join(projectDir, "core")
	props := config.Properties{config.PropTestInclusions: "test/**"}

	sink := &recordingSink{}
	e := NewEvaluator(mustFilters(t, projectDir, props), mustFilters(t, moduleDir, props), NewDeprecations(sink, discardLogger()))
	if !e.Accept(filepath.Join(moduleDir, "test", "FooTest.java"), index.Test) {
		t.Error("expected inclusion through the module relative path")
	}
	if e.Accept(filepath.Join(moduleDir, "main", "Foo.java"), index.Test) {
		t.Error("expected file outside test inclusions to be rejected")
	}
	if len(sink.messages) != 1 || !strings.Contains(sink.messages[0], "'test.inclusions'") {
		t.Errorf("unexpected warnings: %v", sink.messages)
	}
}

func Test_Evaluator_IsExcludedIgnoresInclusions(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	props := config.Properties{config.PropInclusions: "**/*.java", config.PropExclusions: "**/*Gen.java"}
	filters := mustFilters(t, projectDir, props)
	e := NewEvaluator(filters, filters, NewDeprecations(&recordingSink{}, discardLogger()))

	if e.IsExcluded(filepath.Join(projectDir, "src", "Foo.go"), index.Main) {
		t.Error("a file outside the inclusions is not excluded")
	}
	if e.Accept(filepath.Join(projectDir, "src", "Foo.go"), index.Main) {
		t.Error("a file outside the inclusions is not accepted either")
	}
	if !e.IsExcluded(filepath.Join(projectDir, "src", "FooGen.java"), index.Main) {
		t.Error("expected exclusion")
	}
	if e.IsExcluded(filepath.Join(projectDir, "src", "Foo.java"), index.Main) {
		t.Error("unexpected exclusion")
	}
	if e.IsExcluded(filepath.FromSlash("/elsewhere/FooGen.java"), index.Main) {
		t.Error("a path outside the project is never excluded")
	}
}

func Test_Deprecations_SinkOnlyWhenPresent(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sink := &recordingSink{}
	NewDeprecations(sink, logger).warnOnce("exclusions", "src/A.java")
	if len(sink.messages) != 1 || buf.Len() != 0 {
		t.Errorf("expected the sink only, got sink %v and log %q", sink.messages, buf.String())
	}

	NewDeprecations(nil, logger).warnOnce("exclusions", "src/A.java")
	if !strings.Contains(buf.String(), "src/A.java") {
		t.Errorf("expected the logger without a sink, got %q", buf.String())
	}
}

func Test_Evaluator_CoverageAndDuplication(t *testing.T) {
	projectDir := filepath.FromSlash("/p")
	moduleDir := filepath.Join(projectDir, "core")
	props := config.Properties{
		config.PropCoverageExclusions:    "**/*Dto.java",
		config.PropDuplicationExclusions: "generated/**",
	}

	sink := &recordingSink{}
	e := NewEvaluator(mustFilters(t, projectDir, props), mustFilters(t, moduleDir, props), NewDeprecations(sink, discardLogger()))

	if !e.ExcludedForCoverage(filepath.Join(moduleDir, "src", "UserDto.java")) {
		t.Error("expected coverage exclusion")
	}
	if e.ExcludedForCoverage(filepath.Join(moduleDir, "src", "User.java")) {
		t.Error("unexpected coverage exclusion")
	}
	if !e.ExcludedForDuplication(filepath.Join(moduleDir, "generated", "X.java")) {
		t.Error("expected duplication exclusion through the module relative path")
	}
	if len(sink.messages) != 1 || !strings.Contains(sink.messages[0], "'cpd.exclusions'") {
		t.Errorf("unexpected warnings: %v", sink.messages)
	}
}
