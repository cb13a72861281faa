// Package logger provides the process-wide structured logger, a thin wrapper
// around slog with the level taken from LOG_LEVEL.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON slog logger writing to stderr at the given level.
// Unrecognized levels fall back to info.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
