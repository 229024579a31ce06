package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/randalmurphal/trackr/internal/config"
)

// newLogger builds the process logger. --verbose forces debug and --quiet
// drops everything below error.
func newLogger(w io.Writer, cfg config.LogConfig, verbose, quiet bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
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
