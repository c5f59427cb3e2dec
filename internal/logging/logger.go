// Package logging writes the run journal: one timestamped line per event,
// appended under runs/logs/ so a finished or crashed run can still be
// reconstructed from disk.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const logFileName = "protoloom.log"

// Logger serializes journal writes. All methods are nil-safe so callers can
// carry an optional logger without guarding every call site.
type Logger struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
	now  func() time.Time
}

// New opens (or creates) the journal file inside logsDir and appends to it.
func New(logsDir string) (*Logger, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logsDir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open journal: %w", err)
	}
	return &Logger{out: f, file: f, now: time.Now}, nil
}

// NewWithWriter builds a logger over an arbitrary writer. Tests use this to
// capture journal output without touching the filesystem.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{out: w, now: time.Now}
}

// Close releases the journal file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf appends one timestamped line to the journal.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s\n", l.now().Format(time.RFC3339), line)
}

// Warnf appends a warning line. Warnings are journal-only; they never abort
// a run.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.Printf("warning: "+format, args...)
}
