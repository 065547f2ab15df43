package model

import (
	"fmt"
	"path/filepath"
)

// Cursor identifies a position in the source: the file it came from, the
// directory used to resolve relative includes, the logical path shown in
// diagnostics and a 1-based line number.
type Cursor struct {
	File   string
	Dir    string
	Path   string
	LineNo int
}

// NewCursor builds a cursor for file at lineno. Dir and Path are derived
// from file when it is not empty.
func NewCursor(file string, lineno int) Cursor {
	c := Cursor{File: file, LineNo: lineno}
	if file != "" {
		c.Dir = filepath.Dir(file)
		c.Path = filepath.Base(file)
	}
	return c
}

// IsZero reports whether the cursor carries no location at all.
func (c Cursor) IsZero() bool {
	return c.File == "" && c.Path == "" && c.LineNo == 0
}

// LineInfo returns "path: line N", using "<stdin>" when the path is unknown.
func (c Cursor) LineInfo() string {
	path := c.Path
	if path == "" {
		path = "<stdin>"
	}
	return fmt.Sprintf("%s: line %d", path, c.LineNo)
}

func (c Cursor) String() string {
	return c.LineInfo()
}

// Advance returns a copy of the cursor moved n lines forward.
func (c Cursor) Advance(n int) Cursor {
	c.LineNo += n
	return c
}

// LineOnly returns a copy of the cursor stripped down to its line number.
// Used when the sourcemap is disabled.
func (c Cursor) LineOnly() Cursor {
	return Cursor{LineNo: c.LineNo}
}
