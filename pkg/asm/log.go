package asm

import (
	"context"
	"log/slog"
)

// LevelTrace is below slog.LevelDebug and is used for per-line traces.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
