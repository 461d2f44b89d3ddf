package logger

import (
	"log/slog"
	"os"
)

var level = new(slog.LevelVar)

// NewLogger builds the process-wide logger. Records are rendered as one JSON
// object per line so the log shipper can forward them to ELK unchanged.
func NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)

	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}

// SetDebug lowers the level of every logger created by NewLogger. Called once
// after flag parsing when --debug is set.
func SetDebug() {
	level.Set(slog.LevelDebug)
}
