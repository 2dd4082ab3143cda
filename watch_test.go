package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/project"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q:\n%s", want, out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func Test_watchAndScan_ScansAgainOnChange(t *testing.T) {
	color.NoColor = true
	base := writeProject(t, map[string]string{"a.go": "package a\n"})
	global := &globalOptions{baseDir: base}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchAndScan(ctx, global, &scanOptions{}, 20*time.Millisecond, testLogger(), &out)
	}()

	waitFor(t, &out, "Indexed files: 1")
	// the watcher is registered right after the first summary
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(base, "b.go"), []byte("package b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, &out, "Indexed files: 2")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchAndScan: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchAndScan did not stop")
	}
}

func Test_watchAndScan_FailingFirstScan(t *testing.T) {
	base := writeProject(t, map[string]string{"a.go": "package a\n"})
	global := &globalOptions{baseDir: base, properties: []string{"sources=missing"}}

	err := watchAndScan(context.Background(), global, &scanOptions{noBaseline: true}, 20*time.Millisecond, testLogger(), &syncBuffer{})
	if err == nil {
		t.Fatal("expected the missing source folder to fail the scan")
	}
}

func Test_watchIgnore_WorkDirAndVCS(t *testing.T) {
	base := t.TempDir()
	tree, err := project.Build(config.Default(base))
	if err != nil {
		t.Fatal(err)
	}
	logFile := filepath.Join(base, "scan.log")
	ignore := newWatchIgnore(tree, logFile)

	if !ignore.ShouldIgnoreDir(tree.Root.WorkDir) {
		t.Error("work dir should not be watched")
	}
	if !ignore.ShouldIgnoreDir(filepath.Join(tree.Root.BaseDir, ".git")) {
		t.Error(".git should not be watched")
	}
	if !ignore.ShouldIgnore(filepath.Join(tree.Root.BaseDir, ".git", "refs", "heads", "main")) {
		t.Error("files below .git should be ignored")
	}
	if !ignore.ShouldIgnore(filepath.Join(tree.Root.WorkDir, "baseline.db")) {
		t.Error("baseline should be ignored")
	}
	if ignore.logFile != "" && !ignore.ShouldIgnore(ignore.logFile) {
		t.Error("log file should be ignored")
	}
	if ignore.ShouldIgnore(filepath.Join(tree.Root.BaseDir, "src", "main.go")) {
		t.Error("sources must not be ignored")
	}
}
