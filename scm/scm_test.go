package scm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitAll(t *testing.T, wt *git.Worktree, msg string) plumbing.Hash {
	t.Helper()
	if err := wt.AddGlob("."); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func Test_GitChangeOracle_ChangedSinceReference(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(dir, "a.go"), "package a")
	write(t, filepath.Join(dir, "src", "b.go"), "package b")
	base := commitAll(t, wt, "initial")
	if err := repo.Storer.SetReference(plumbing.NewHashReference("refs/heads/base", base)); err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(dir, "a.go"), "package a // changed")
	commitAll(t, wt, "change a")
	write(t, filepath.Join(dir, "src", "c.go"), "package c")

	oracle, err := NewGitChangeOracle(filepath.Join(dir, "src"), "base")
	if err != nil {
		t.Fatalf("NewGitChangeOracle: %v", err)
	}

	tests := map[string]bool{
		"a.go":     true,
		"src/b.go": false,
		"src/c.go": true,
	}
	for rel, want := range tests {
		got, err := oracle.Changed(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("Changed(%s): %v", rel, err)
		}
		if got != want {
			t.Errorf("Changed(%s) = %v, want %v", rel, got, want)
		}
	}

	if _, err := oracle.Changed(filepath.Join(filepath.Dir(dir), "x.go")); !errors.Is(err, ErrOutsideRepository) {
		t.Errorf("expected ErrOutsideRepository, got %v", err)
	}
	if oracle.Reference() != "base" {
		t.Errorf("unexpected reference %s", oracle.Reference())
	}
}

func Test_GitChangeOracle_UnknownReference(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, _ := repo.Worktree()
	write(t, filepath.Join(dir, "a.go"), "package a")
	commitAll(t, wt, "initial")

	if _, err := NewGitChangeOracle(dir, "does-not-exist"); err == nil {
		t.Error("expected error for unknown reference")
	}
}

func Test_GitChangeOracle_NotARepository(t *testing.T) {
	if _, err := NewGitChangeOracle(t.TempDir(), "main"); err == nil {
		t.Skip("temp dir is inside a repository")
	}
}
