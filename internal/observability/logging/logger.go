package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger builds the structured logger used by long-running services.
func NewJSONLogger(service, level string) *slog.Logger {
	return newLogger(os.Stdout, service, level, "json")
}

// Setup installs a logger as the process default. Format "text" targets
// interactive CLI use; anything else yields JSON.
func Setup(w io.Writer, service, level, format string) *slog.Logger {
	logger := newLogger(w, service, level, format)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
