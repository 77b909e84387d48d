// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// Options configures logger setup.
type Options struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string

	// Format selects the handler: "text" (default) or "json".
	Format string

	// Output defaults to stderr.
	Output io.Writer
}

// New builds a slog.Logger from Options.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	case "text", "":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	return slog.New(handler), nil
}

// Setup builds a logger from Options and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	log, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}
