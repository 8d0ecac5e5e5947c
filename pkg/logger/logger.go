package logger

import (
	"log/slog"
	"strings"
)

// New builds a logger emitting JSON events at or above the named level.
func New(level string) *slog.Logger {
	return slog.New(NewJSONHandler(ParseLevel(level)))
}

// ParseLevel maps a config string onto a slog level. Unknown or empty
// values fall back to info rather than erroring, since the level comes
// from an env var.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
