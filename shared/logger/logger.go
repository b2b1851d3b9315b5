// Package logger builds the application slog.Logger: tinted console output
// for interactive use, JSON for everything else.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds logger settings.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // console timestamp layout
	AddSource  bool
}

// New creates a logger writing to w.
func New(w io.Writer, cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	switch cfg.Format {
	case "console":
		timeFormat := cfg.TimeFormat
		if timeFormat == "" {
			timeFormat = time.TimeOnly
		}
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: timeFormat,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		})
	}

	return slog.New(handler)
}

// NewDefault creates a console logger on stderr at info level.
func NewDefault() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	}))
}

func parseLevel(level string) slog.Level {
	switch level {
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
