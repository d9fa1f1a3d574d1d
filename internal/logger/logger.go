package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Format selects the slog output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config controls the harness's own operational logging. Daemon output
// capture is configured separately through Mirror.
type Config struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error (default info)
	Format Format `json:"format" mapstructure:"format"` // text or json (default text)
	Color  bool   `json:"color" mapstructure:"color"`   // ANSI level colors, text format only
}

// NewLogger builds a slog.Logger writing to w according to the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	var h slog.Handler
	switch {
	case c.Format == FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case c.Color:
		h = NewColorTextHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
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
