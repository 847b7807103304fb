package logging

import (
	"io"
	"log/slog"
)

var _ Logger = (*SlogLogger)(nil)

// NewNop returns a Logger that discards everything. Handy in tests.
func NewNop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
