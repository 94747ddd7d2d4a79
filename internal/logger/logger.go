// Package logger holds the process-wide structured logger used by the
// allocator layers. Logging is discarded unless enabled through Init or the
// MEMKIT_LOG environment variable.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger instance. It discards all output by default.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// EnvVar names the environment variable read at startup. Its value is a level
// name ("debug", "info", "warn", "error"); any other non-empty value means debug.
const EnvVar = "MEMKIT_LOG"

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Output  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
	JSON    bool       // Emit JSON records instead of text
}

func init() {
	if v := os.Getenv(EnvVar); v != "" {
		Init(Options{Enabled: true, Level: parseLevel(v)})
	}
}

// Init configures logging. Call before any allocation if output is wanted
// from heap initialization.
func Init(opts Options) {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(out, handlerOpts))
		return
	}
	L = slog.New(slog.NewTextHandler(out, handlerOpts))
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
