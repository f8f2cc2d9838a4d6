// Package logger holds the process-wide slog logger for buflibctl.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	closer  io.Closer
	enabled bool
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	File    string     // JSON log file; empty means text to stderr
	Level   slog.Level // Minimum log level
}

// Init configures logging. Call before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	Close()
	enabled = opts.Enabled
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.File == "" {
		L = slog.New(slog.NewTextHandler(os.Stderr, hopts))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		enabled = false
		return err
	}
	closer = f
	L = slog.New(slog.NewJSONHandler(f, hopts))
	return nil
}

// Close releases the log file, if any, and resets L to discard.
func Close() {
	if closer != nil {
		closer.Close()
		closer = nil
		enabled = false
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Enabled reports whether Init turned logging on.
func Enabled() bool { return enabled }

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
