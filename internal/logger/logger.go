package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/polkiloo/receiptwatch/internal/config"
)

// New creates a preconfigured slog.Logger at the configured level.
func New(cfg *config.Config) *slog.Logger {
	return NewWithWriter(os.Stdout, ParseLevel(cfg.LogLevel))
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, falling back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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
