package scanner

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
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

func Test_progressReporter_LogsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out syncBuffer
	p := startProgress(slog.New(slog.NewTextHandler(&out, nil)), 5*time.Millisecond)
	p.increment("src/a.go")
	p.increment("src/b.go")

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "2 files indexed...") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.finish()

	logged := out.String()
	if !strings.Contains(logged, "(last one was src/b.go)") {
		t.Errorf("expected periodic progress, got %q", logged)
	}
	if !strings.Contains(logged, "msg=\"2 files indexed\"") {
		t.Errorf("expected the final count, got %q", logged)
	}
}

func Test_progressReporter_SingularCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out syncBuffer
	p := startProgress(slog.New(slog.NewTextHandler(&out, nil)), time.Hour)
	p.increment("src/a.go")
	p.finish()

	if !strings.Contains(out.String(), "msg=\"1 file indexed\"") {
		t.Errorf("expected a singular count, got %q", out.String())
	}
}

func Test_pluralizeFiles(t *testing.T) {
	for n, want := range map[int64]string{0: "0 files", 1: "1 file", 2: "2 files"} {
		if got := pluralizeFiles(n); got != want {
			t.Errorf("pluralizeFiles(%d) = %q, want %q", n, got, want)
		}
	}
}

func Test_progressReporter_CancelTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := startProgress(slog.New(slog.NewTextHandler(&syncBuffer{}, nil)), time.Hour)
	p.cancel()
	p.cancel()
}

func Test_Scan_LeavesNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	writeFiles(t, base, map[string]string{"a.go": "package a\n"})
	mustScan(t, buildTree(t, base, nil), Options{})
}
