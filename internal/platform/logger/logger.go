package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level defaults to info;
// set COMPASS_LOG_LEVEL=debug for verbose pipeline tracing.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("COMPASS_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
