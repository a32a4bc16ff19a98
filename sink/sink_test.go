package sink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAppenderWritesBannerAndLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "transactions.log")

	a, err := NewFileAppender(path, "TRANSACTION LOG")
	require.NoError(t, err)

	require.NoError(t, a.Append("first"))
	require.NoError(t, a.Append("second"))
	require.NoError(t, a.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "TRANSACTION LOG - Started at ")
	assert.Contains(t, content, strings.Repeat("=", 80))
	assert.Contains(t, content, "first\nsecond\n")
}

func TestFileAppenderAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	first, err := NewFileAppender(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Append("run-1"))
	require.NoError(t, first.Close())

	second, err := NewFileAppender(path, "")
	require.NoError(t, err)
	require.NoError(t, second.Append("run-2"))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1\nrun-2\n", string(data))
}

func TestMemoryAppenderIsConcurrencySafe(t *testing.T) {
	a := NewMemoryAppender()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = a.Append("line")
		}()
	}

	wg.Wait()

	assert.Equal(t, 25, a.Len())
	assert.Len(t, a.Lines(), 25)

	// The returned slice is a copy.
	lines := a.Lines()
	lines[0] = "mutated"
	assert.Equal(t, "line", a.Lines()[0])
}

type failingAppender struct{ err error }

func (f failingAppender) Append(string) error { return f.err }

func TestMultiAppenderFansOut(t *testing.T) {
	first := NewMemoryAppender()
	second := NewMemoryAppender()

	m := NewMultiAppender(first, nil, second)

	require.NoError(t, m.Append("hello"))
	assert.Equal(t, []string{"hello"}, first.Lines())
	assert.Equal(t, []string{"hello"}, second.Lines())
}

func TestMultiAppenderAttemptsAllTargetsOnFailure(t *testing.T) {
	boom := errors.New("disk full")
	last := NewMemoryAppender()

	m := NewMultiAppender(failingAppender{err: boom}, last)

	assert.ErrorIs(t, m.Append("hello"), boom)
	assert.Equal(t, []string{"hello"}, last.Lines(), "later targets still receive the line")
}
