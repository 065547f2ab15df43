// Package diag holds the diagnostics shared by the reader, parser and
// substitutions engine: recoverable warnings and the two fatal error
// types.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
)

// Category classifies a diagnostic.
type Category string

const (
	// MalformedSyntax covers unterminated fences, bad cell specs and
	// non-conforming headers. Always recovered locally.
	MalformedSyntax Category = "syntax"
	// AttributeResolution covers missing attribute references.
	AttributeResolution Category = "attribute"
	// IncludeResolution covers missing files, unreachable URIs and
	// exceeded include depth.
	IncludeResolution Category = "include"
	// SecurityViolation covers paths escaping the permitted root.
	SecurityViolation Category = "security"
	// Encoding covers undecodable input.
	Encoding Category = "encoding"
)

// Warning is a recoverable diagnostic tied to a source location.
type Warning struct {
	Category Category
	Message  string
	Cursor   model.Cursor
}

func (w Warning) String() string {
	if w.Cursor.IsZero() {
		return fmt.Sprintf("[%s] %s", w.Category, w.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", w.Cursor.LineInfo(), w.Category, w.Message)
}

// Collector accumulates warnings during a parse and logs each one.
type Collector struct {
	warnings []Warning
	log      *logger.Logger
}

// NewCollector returns a collector logging through l. A nil logger
// discards output.
func NewCollector(l *logger.Logger) *Collector {
	if l == nil {
		l = logger.Discard()
	}
	return &Collector{log: l}
}

// Warn records a warning.
func (c *Collector) Warn(cat Category, cursor model.Cursor, format string, args ...interface{}) {
	w := Warning{Category: cat, Message: fmt.Sprintf(format, args...), Cursor: cursor}
	c.warnings = append(c.warnings, w)
	c.log.Warning(string(cat), w.Message, cursor.LineInfo())
}

// Add records an already built warning.
func (c *Collector) Add(w Warning) {
	c.warnings = append(c.warnings, w)
	c.log.Warning(string(w.Category), w.Message, w.Cursor.LineInfo())
}

// Warnings returns a copy of the recorded warnings.
func (c *Collector) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// Len returns the number of recorded warnings.
func (c *Collector) Len() int { return len(c.warnings) }

// Logger returns the logger the collector writes to.
func (c *Collector) Logger() *logger.Logger { return c.log }

// Format renders warnings one per line.
func Format(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, w := range warnings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(w.String())
	}
	return sb.String()
}

// ErrorCode identifies the kind of a fatal error.
type ErrorCode string

const (
	ErrNone     ErrorCode = ""
	ErrLoad     ErrorCode = "load"
	ErrSecurity ErrorCode = "security"
	ErrInternal ErrorCode = "internal"
)

// LoadError reports an unreadable or undecodable top-level source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("adoc: failed to load source: %v", e.Err)
	}
	return fmt.Sprintf("adoc: failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Code returns ErrLoad.
func (e *LoadError) Code() ErrorCode { return ErrLoad }

// SecurityError reports a resolved path escaping the permitted root.
type SecurityError struct {
	Target string
	Root   string
	Cursor model.Cursor
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("adoc: %s: %s is outside of jail %s", e.Cursor.LineInfo(), e.Target, e.Root)
}

// Code returns ErrSecurity.
func (e *SecurityError) Code() ErrorCode { return ErrSecurity }

// ErrBinaryInput is wrapped by a LoadError when the source is not text.
var ErrBinaryInput = errors.New("input is not valid text")

type coded interface {
	error
	Code() ErrorCode
}

// Code returns the error code associated with err. It returns ErrNone for
// nil and ErrInternal for errors without a code.
func Code(err error) ErrorCode {
	if err == nil {
		return ErrNone
	}
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ErrInternal
}

// IsFatal reports whether err halts a parse: load failures and security
// violations that were not recovered.
func IsFatal(err error) bool {
	switch Code(err) {
	case ErrLoad, ErrSecurity:
		return true
	}
	return false
}
