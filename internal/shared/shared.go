// package shared defines shared helpers
package shared

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewPlainLogger creates a [log.Logger] without caller reporting, for output that is shown to users
// (job output, notification bodies).
func NewPlainLogger(w io.Writer) *log.Logger {
	opts := log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// LineBuffer is an [io.Writer] that collects complete lines. It is safe for concurrent use.
type LineBuffer struct {
	mu      sync.Mutex
	partial bytes.Buffer
	lines   []string
}

// Write splits p into lines, holding back any trailing partial line.
func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		b.lines = append(b.lines, strings.TrimRight(string(data[:idx]), "\r"))
		b.partial.Next(idx + 1)
	}
	return len(p), nil
}

// Lines returns a copy of the lines written so far, including a trailing partial line.
func (b *LineBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines), len(b.lines)+1)
	copy(out, b.lines)
	if b.partial.Len() > 0 {
		out = append(out, b.partial.String())
	}
	return out
}
