package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger. Services and handlers take the logger
// explicitly; there is no package-level default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
