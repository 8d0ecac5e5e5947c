package helpers

import (
	"context"
	"log/slog"

	"finboard/pkg/logger"
)

// TestCtx returns a context carrying a test logger.
func TestCtx() context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	return logger.ToContext(context.Background(), log)
}

// TestLogger returns a logger that discards all output.
func TestLogger() *slog.Logger {
	return slog.New(logger.NewTestHandler(slog.LevelInfo))
}
