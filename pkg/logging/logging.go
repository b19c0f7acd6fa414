// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup("debug", os.Stderr)
//
// Levels: debug, info, warn, error. Anything else means info.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tint handler on w as the slog default and returns it.
func Setup(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	logger := slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			AddSource:  lvl == slog.LevelDebug,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
