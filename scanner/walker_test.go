package scanner

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestWalker(visited *[]string) *walker {
	return &walker{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		prune:    func(string) bool { return false },
		excluded: func(string, bool) bool { return false },
		visit: func(path string, _ fs.FileInfo, _ bool) error {
			*visited = append(*visited, path)
			return nil
		},
	}
}

func Test_walker_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "only.go")
	if err := os.WriteFile(file, []byte("package x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var visited []string
	if err := newTestWalker(&visited).walk(file); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(visited) != 1 || visited[0] != file {
		t.Errorf("unexpected visits %v", visited)
	}
}

func Test_walker_MissingRoot(t *testing.T) {
	var visited []string
	err := newTestWalker(&visited).walk(filepath.Join(t.TempDir(), "nope"))
	if _, ok := err.(*WalkError); !ok {
		t.Errorf("expected WalkError, got %v", err)
	}
}

func Test_walker_SkipsDirectoriesAndOrdersEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.go":        "b",
		"a/z.go":      "z",
		"work/w.go":   "w",
		"pruned/p.go": "p",
	})

	var visited []string
	w := newTestWalker(&visited)
	w.skipDirs = []string{filepath.Join(dir, "work")}
	w.prune = func(d string) bool { return filepath.Base(d) == "pruned" }
	if err := w.walk(dir); err != nil {
		t.Fatalf("walk: %v", err)
	}

	want := []string{filepath.Join(dir, "a", "z.go"), filepath.Join(dir, "b.go")}
	if len(visited) != len(want) || visited[0] != want[0] || visited[1] != want[1] {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func Test_walker_HiddenState(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dot files are not hidden on windows")
	}
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".config/sub/deep.go": "x",
		"visible/v.go":        "x",
	})

	hidden := make(map[string]bool)
	w := newTestWalker(new([]string))
	w.visit = func(path string, _ fs.FileInfo, h bool) error {
		rel, _ := filepath.Rel(dir, path)
		hidden[filepath.ToSlash(rel)] = h
		return nil
	}
	if err := w.walk(dir); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !hidden[".config/sub/deep.go"] {
		t.Error("files below a hidden directory are hidden")
	}
	if hidden["visible/v.go"] {
		t.Error("the hidden state must end with the hidden directory")
	}
}

func Test_HiddenFiles_TakeForgets(t *testing.T) {
	h := NewHiddenFiles()
	h.Mark("core", "/p/.x")

	if h.Take("web", "/p/.x") {
		t.Error("hidden files are recorded per module")
	}
	if !h.Take("core", "/p/.x") {
		t.Error("expected the file to be marked hidden")
	}
	if h.Take("core", "/p/.x") {
		t.Error("a hidden file is forgotten after the first lookup")
	}
	if h.Len() != 0 {
		t.Errorf("expected empty record, got %d", h.Len())
	}
}

func Test_IDGenerator(t *testing.T) {
	var g IDGenerator
	if g.Next() != 1 || g.Next() != 2 {
		t.Error("identities start at 1 and increase")
	}
}
