package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPrintfTimestampsLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	}

	log.Printf("batch %d/%d: dispatching %d tasks\n", 1, 5, 6)
	want := "[2026-03-14T09:30:00Z] batch 1/5: dispatching 6 tasks\n"
	if got := buf.String(); got != want {
		t.Fatalf("journal line mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestWarnfPrefixesWarning(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Warnf("dropping invalid target %q", "Home Page!")
	if !strings.Contains(buf.String(), "warning: dropping invalid target") {
		t.Fatalf("expected warning prefix, got %q", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Printf("ignored")
	log.Warnf("ignored")
	if err := log.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestNewAppendsToJournalFile(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Printf("first run")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	log2, err := New(dir)
	if err != nil {
		t.Fatalf("reopen logger: %v", err)
	}
	log2.Printf("second run")
	if err := log2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if !strings.Contains(string(data), "first run") || !strings.Contains(string(data), "second run") {
		t.Fatalf("journal should accumulate across opens, got:\n%s", data)
	}
}
