// Package logger builds the structured logger shared by badge-cli components.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to w at the given level. When logging
// is disabled every record is discarded.
func New(w io.Writer, enabled bool, level string) *slog.Logger {
	if !enabled {
		return slog.New(slog.DiscardHandler)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Init builds a stderr logger and installs it as the slog default.
// Stdout is reserved for command output.
func Init(enabled bool, level string) *slog.Logger {
	l := New(os.Stderr, enabled, level)
	slog.SetDefault(l)
	l.Debug("logger initialized", "level", level)
	return l
}
