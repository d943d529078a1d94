// Package logger provides leveled logging for kbase.
// Debug, Info and Warn messages are printed only in verbose mode (the
// --verbose flag). Error messages are always printed: they flag setup
// mistakes such as a collection conflict that the user has to fix.
//
// Services take a *Logger so tests can capture or silence output; the
// package-level functions write to the default logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes prefixed lines to an output writer.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	output  io.Writer
}

// New creates a logger writing to w.
func New(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{verbose: verbose, output: w}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, false)
}

var std = New(os.Stderr, false)

// Default returns the process-wide logger.
func Default() *Logger {
	return std
}

// OrDefault returns l, or the default logger when l is nil.
func OrDefault(l *Logger) *Logger {
	if l == nil {
		return std
	}
	return l
}

// SetVerbose enables or disables verbose logging.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.printf(true, "[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) {
	l.printf(true, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) {
	l.printf(true, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func (l *Logger) Error(format string, args ...any) {
	l.printf(false, "[ERROR] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.verbose {
		fmt.Fprintf(l.output, "\n=== %s ===\n", name)
	}
}

func (l *Logger) printf(verboseOnly bool, prefix, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if verboseOnly && !l.verbose {
		return
	}
	fmt.Fprintf(l.output, prefix+format+"\n", args...)
}

// SetVerbose enables or disables verbose logging on the default logger.
func SetVerbose(v bool) { std.SetVerbose(v) }

// IsVerbose reports whether the default logger is verbose.
func IsVerbose() bool { return std.IsVerbose() }

// SetOutput sets the default logger's writer. Useful for testing.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// Debug logs to the default logger.
func Debug(format string, args ...any) { std.Debug(format, args...) }

// Info logs to the default logger.
func Info(format string, args ...any) { std.Info(format, args...) }

// Warn logs to the default logger.
func Warn(format string, args ...any) { std.Warn(format, args...) }

// Error logs to the default logger.
func Error(format string, args ...any) { std.Error(format, args...) }

// Section logs a header to the default logger.
func Section(name string) { std.Section(name) }
