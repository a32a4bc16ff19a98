package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// Appender receives one line per event, in order, append-only.
type Appender interface {
	Append(line string) error
}

const bannerWidth = 80

// FileAppender appends lines to a local file. Writes are serialized; the file
// is opened in append mode so restarts extend the existing log.
type FileAppender struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileAppender opens (creating if needed) the file at path. When title is
// non-empty a banner header with the start timestamp is written, marking where
// this process's entries begin.
func NewFileAppender(path, title string) (*FileAppender, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	a := &FileAppender{file: file}

	if title != "" {
		rule := strings.Repeat("=", bannerWidth)
		banner := fmt.Sprintf("%s\n%s - Started at %s\n%s\n",
			rule, title, time.Now().Format(transaction.TimeFormat), rule)

		if _, err := file.WriteString(banner); err != nil {
			file.Close()
			return nil, fmt.Errorf("write log banner %s: %w", path, err)
		}
	}

	return a, nil
}

// Append writes one line followed by a newline.
func (a *FileAppender) Append(line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append log line: %w", err)
	}

	return nil
}

// Close closes the underlying file. Appends after Close fail.
func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.file.Close()
}

// MemoryAppender records lines in memory. It is intended for tests and for
// consumers that post-process the log without touching disk.
type MemoryAppender struct {
	mu    sync.Mutex
	lines []string
}

// NewMemoryAppender creates an empty in-memory appender.
func NewMemoryAppender() *MemoryAppender {
	return &MemoryAppender{}
}

// Append records one line.
func (a *MemoryAppender) Append(line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines = append(a.lines, line)

	return nil
}

// Lines returns a copy of all recorded lines in append order.
func (a *MemoryAppender) Lines() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, len(a.lines))
	copy(out, a.lines)

	return out
}

// Len returns the number of recorded lines.
func (a *MemoryAppender) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.lines)
}

// MultiAppender fans each line out to every target in order. The first failure
// is returned, but all targets are attempted.
type MultiAppender struct {
	targets []Appender
}

// NewMultiAppender creates a fan-out over targets. Nil targets are skipped.
func NewMultiAppender(targets ...Appender) *MultiAppender {
	m := &MultiAppender{}

	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}

	return m
}

// Append forwards line to every target.
func (m *MultiAppender) Append(line string) error {
	var firstErr error

	for _, t := range m.targets {
		if err := t.Append(line); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
