// Package logging builds the application's slog.Logger: JSON for
// machines, text or tint-colored output for terminals, and an optional
// GCP Cloud Logging wrapper.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
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

// NewLogger returns a logger for the given format ("json", "text" or
// "pretty") and cloud mode ("", "gcp" or "gcp_with_resource").
func NewLogger(w io.Writer, level slog.Level, format, cloudFormat string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	switch format {
	case "pretty":
		base = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  level == slog.LevelDebug,
			TimeFormat: "15:04:05.000",
		})
	case "text":
		base = slog.NewTextHandler(w, opts)
	default:
		base = slog.NewJSONHandler(w, opts)
	}

	switch cloudFormat {
	case "gcp":
		base = NewGCPHandler(base, false)
	case "gcp_with_resource":
		base = NewGCPHandler(base, true)
	}
	return slog.New(base)
}
