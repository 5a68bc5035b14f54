// Package testhelpers contains helpers shared by tests and test-like commands.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/yogaflow/internal/logging"
)

// NewLogger creates a debug level logger with the given log sink such as [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

// NewTestLogger creates a logger that writes through t.Log.
func NewTestLogger(t TB) *slog.Logger {
	return NewLogger(NewWriter(t))
}
