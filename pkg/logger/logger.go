package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger provides levelled, printf-style logging. It is safe for use by
// several goroutines; batch workers share one instance.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	level   LogLevel
	verbose bool
}

// NewLogger creates a new logger with specified level and verbose mode
func NewLogger(level string, verbose bool) *Logger {
	return &Logger{
		out:     os.Stdout,
		level:   ParseLevel(level),
		verbose: verbose,
	}
}

// Discard returns a logger that writes nothing. Used by tests and library callers.
func Discard() *Logger {
	return &Logger{out: io.Discard, level: LevelError + 1}
}

// SetOutput redirects all subsequent log lines to w
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Verbose reports whether verbose progress output is enabled
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Debug logs debug information (only in debug mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.log("DEBUG", fmt.Sprintf(format, args...))
	}
}

// Info logs informational messages (only in verbose mode)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.verbose && l.level <= LevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...))
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.log("WARN", fmt.Sprintf(format, args...))
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.log("ERROR", fmt.Sprintf(format, args...))
	}
}

// ProgressAlways logs milestones the user should see regardless of verbose mode
func (l *Logger) ProgressAlways(emoji, format string, args ...interface{}) {
	l.write(fmt.Sprintf("%s %s\n", emoji, fmt.Sprintf(format, args...)))
}

// Progress logs step-by-step details (only in verbose mode)
func (l *Logger) Progress(emoji, format string, args ...interface{}) {
	if l.verbose {
		l.write(fmt.Sprintf("%s %s\n", emoji, fmt.Sprintf(format, args...)))
	}
}

func (l *Logger) log(level, message string) {
	l.write(fmt.Sprintf("[%s] %s\n", level, message))
}

func (l *Logger) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}
	_, _ = io.WriteString(l.out, line)
}

// ParseLevel converts a string level to LogLevel, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger returns a default logger instance
func DefaultLogger() *Logger {
	return NewLogger("info", false)
}

// Fatal logs a fatal error and exits the program
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log("FATAL", fmt.Sprintf(format, args...))
	os.Exit(1)
}
