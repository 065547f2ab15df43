package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "adoc",
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "adoc",
		Level:           level,
	})
	return &Logger{Logger: l}
}

// ParseLevel maps a level name ("debug", "info", "warn", "error") to a
// level, falling back to warn.
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseStarted logs the start of a parse
func (l *Logger) ParseStarted(source string, safeMode string) {
	l.Debug("parse started",
		"source", source,
		"safe_mode", safeMode)
}

// ParseCompleted logs the end of a parse
func (l *Logger) ParseCompleted(blocks, warnings int, duration time.Duration) {
	l.Debug("parse completed",
		"blocks", blocks,
		"warnings", warnings,
		"duration", duration.Round(time.Microsecond))
}

// Warning logs a recoverable diagnostic
func (l *Logger) Warning(category, message, location string) {
	l.Warn(message,
		"category", category,
		"at", location)
}

// IncludeResolved logs an include that was read
func (l *Logger) IncludeResolved(target, path string, lines int) {
	l.Debug("include resolved",
		"target", target,
		"path", path,
		"lines", lines)
}

// IncludeSkipped logs an include that was not read
func (l *Logger) IncludeSkipped(target, reason string) {
	l.Debug("include skipped",
		"target", target,
		"reason", reason)
}

// AttributeLocked logs an attribute entry ignored because the caller locked it
func (l *Logger) AttributeLocked(name string) {
	l.Debug("attribute locked",
		"name", name)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(path string) {
	l.Debug("config loaded",
		"path", path)
}
