package reader

import (
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
)

// processor hooks line processing into a Reader. PreprocessorReader
// implements it to evaluate directives as lines are peeked.
type processor interface {
	// processLine inspects the next line. It returns the line and true when
	// the line stays in the stream, or false when the buffer changed and
	// the next line must be peeked again.
	processLine(line string) (string, bool)
	// popFrame resumes the enclosing include frame once the current one
	// is exhausted. It returns false when there is none.
	popFrame() bool
}

// Reader presents source lines one at a time with look-ahead and
// push-back. Lines are kept in reverse order so that the next line is
// the last element.
type Reader struct {
	lines []string
	file  string
	dir   string
	path  string
	// lineno is the number of the next line to be read.
	lineno int

	// lookAhead counts lines at the top of the buffer that have already
	// been processed and must not be processed again.
	lookAhead int
	// unescapeNext strips the leading backslash of the next line when it is
	// read, so that repeated peeks see the same unescaped text.
	unescapeNext bool
	processLines bool
	savedLineno  int
	unterminated bool
	// lag makes Cursor report one line early; see PreprocessorReader.
	lag bool

	hook  processor
	warns *diag.Collector
	err   error
}

// New creates a reader over lines starting at cursor. A zero cursor
// starts at line 1 of "<stdin>".
func New(lines []string, cursor model.Cursor, warns *diag.Collector) *Reader {
	r := &Reader{}
	r.init(lines, cursor, warns)
	return r
}

func (r *Reader) init(lines []string, cursor model.Cursor, warns *diag.Collector) {
	r.file = cursor.File
	r.dir = cursor.Dir
	r.path = cursor.Path
	r.lineno = cursor.LineNo
	if r.lineno == 0 {
		r.lineno = 1
	}
	if r.dir == "" && r.file == "" {
		r.dir = "."
	}
	if warns == nil {
		warns = diag.NewCollector(nil)
	}
	r.warns = warns
	r.processLines = true
	r.lines = reversed(lines)
}

func reversed(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[len(lines)-1-i] = l
	}
	return out
}

// Err returns the fatal error that stopped the reader, if any.
func (r *Reader) Err() error { return r.err }

// Warnings returns the collector the reader reports to.
func (r *Reader) Warnings() *diag.Collector { return r.warns }

// HasMoreLines reports whether another line can be read. Peeking may
// process preprocessor directives.
func (r *Reader) HasMoreLines() bool {
	_, ok := r.PeekLine()
	return ok
}

// Empty reports whether no lines remain.
func (r *Reader) Empty() bool { return !r.HasMoreLines() }

// NextLineEmpty reports whether the next line is blank or missing.
func (r *Reader) NextLineEmpty() bool {
	line, ok := r.PeekLine()
	return !ok || line == ""
}

// PeekLine returns the next line without consuming it.
func (r *Reader) PeekLine() (string, bool) {
	return r.peekLine(false)
}

// PeekLineDirect returns the next line without processing it.
func (r *Reader) PeekLineDirect() (string, bool) {
	return r.peekLine(true)
}

func (r *Reader) peekLine(direct bool) (string, bool) {
	for {
		if r.err != nil {
			return "", false
		}
		if len(r.lines) == 0 {
			r.lookAhead = 0
			if r.hook != nil && r.hook.popFrame() {
				continue
			}
			return "", false
		}
		top := r.lines[len(r.lines)-1]
		if direct || r.lookAhead > 0 {
			if r.unescapeNext {
				return top[1:], true
			}
			return top, true
		}
		if r.hook == nil || !r.processLines {
			if r.processLines {
				r.lookAhead++
			}
			return top, true
		}
		if line, ok := r.hook.processLine(top); ok {
			return line, true
		}
	}
}

// PeekLines returns up to n upcoming lines without consuming them; n < 0
// means all. With direct set the lines are not processed.
func (r *Reader) PeekLines(n int, direct bool) []string {
	oldLookAhead, lag := r.lookAhead, r.lag
	var result []string
	for i := 0; n < 0 || i < n; i++ {
		var (
			line string
			ok   bool
		)
		if direct {
			if len(r.lines) > 0 {
				line, ok = r.shift(), true
			}
		} else {
			line, ok = r.ReadLine()
		}
		if !ok {
			break
		}
		result = append(result, line)
	}
	if len(result) > 0 {
		r.UnshiftLines(result)
		if direct {
			r.lookAhead = oldLookAhead
		}
		r.lag = lag
	}
	return result
}

// ReadLine consumes and returns the next line.
func (r *Reader) ReadLine() (string, bool) {
	if r.lookAhead > 0 || r.HasMoreLines() {
		return r.shift(), true
	}
	return "", false
}

// ReadLines consumes all remaining lines.
func (r *Reader) ReadLines() []string {
	var lines []string
	for r.HasMoreLines() {
		lines = append(lines, r.shift())
	}
	return lines
}

// Read consumes all remaining lines joined with newlines.
func (r *Reader) Read() string {
	return strings.Join(r.ReadLines(), "\n")
}

// Advance consumes the next line and reports whether there was one.
func (r *Reader) Advance() bool {
	_, ok := r.ReadLine()
	return ok
}

// Unshift pushes line back onto the reader.
func (r *Reader) Unshift(line string) {
	r.lineno--
	r.lookAhead++
	r.lines = append(r.lines, line)
}

// UnshiftLines pushes lines back so that lines[0] is read next.
func (r *Reader) UnshiftLines(lines []string) {
	r.lineno -= len(lines)
	r.lookAhead += len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		r.lines = append(r.lines, lines[i])
	}
}

// ReplaceNextLine consumes the next line and puts line in its place.
func (r *Reader) ReplaceNextLine(line string) {
	r.shift()
	r.Unshift(line)
}

func (r *Reader) shift() string {
	if len(r.lines) == 0 {
		return ""
	}
	r.lineno++
	if r.lookAhead > 0 {
		r.lookAhead--
	}
	line := r.lines[len(r.lines)-1]
	r.lines = r.lines[:len(r.lines)-1]
	if r.unescapeNext {
		r.unescapeNext = false
		line = line[1:]
	}
	r.lag = false
	return line
}

// SkipBlankLines consumes blank lines and returns how many were skipped.
func (r *Reader) SkipBlankLines() int {
	n := 0
	for {
		line, ok := r.PeekLine()
		if !ok || line != "" {
			return n
		}
		r.shift()
		n++
	}
}

// SkipCommentLines consumes line comments and comment blocks.
func (r *Reader) SkipCommentLines() {
	for {
		line, ok := r.PeekLine()
		if !ok || !strings.HasPrefix(line, "//") {
			return
		}
		if strings.HasPrefix(line, "///") {
			if len(line) > 3 && strings.Trim(line, "/") == "" {
				r.ReadLinesUntil(UntilOptions{Terminator: line, SkipFirstLine: true, ReadLastLine: true, SkipProcessing: true, Context: "comment"}, nil)
				continue
			}
			return
		}
		r.shift()
	}
}

// Terminate discards all remaining lines of the current frame.
func (r *Reader) Terminate() {
	r.lineno += len(r.lines)
	r.lines = nil
	r.lookAhead = 0
}

// UntilOptions controls ReadLinesUntil.
type UntilOptions struct {
	// Terminator ends the read at an identical line. When set, the blank
	// line and continuation options are ignored.
	Terminator string
	// BreakOnBlankLines ends the read at a blank line.
	BreakOnBlankLines bool
	// BreakOnListContinuation ends the read at a "+" line that follows
	// content; the "+" is pushed back.
	BreakOnListContinuation bool
	SkipFirstLine           bool
	// ReadLastLine includes the line that ended the read.
	ReadLastLine bool
	// PreserveLastLine pushes the line that ended the read back.
	PreserveLastLine bool
	// SkipProcessing disables preprocessor directives while reading.
	SkipProcessing bool
	// SkipLineComments drops "//" comment lines.
	SkipLineComments bool
	// Context names the block in the unterminated warning; defaults to the
	// terminator.
	Context string
	// Cursor is reported in the unterminated warning; defaults to the
	// cursor at the start of the read.
	Cursor *model.Cursor
}

// ReadLinesUntil reads lines until the terminator, a break condition or
// pred returns true. A missing terminator is reported as an unterminated
// block and every remaining line is returned.
func (r *Reader) ReadLinesUntil(opts UntilOptions, pred func(line string) bool) []string {
	var result []string
	restoreProcessLines := false
	if r.processLines && opts.SkipProcessing {
		r.processLines = false
		restoreProcessLines = true
	}
	start := r.Cursor()
	if opts.Cursor != nil {
		start = *opts.Cursor
	}
	hasTerm := opts.Terminator != ""
	breakOnBlank := opts.BreakOnBlankLines && !hasTerm
	breakOnContinuation := opts.BreakOnListContinuation && !hasTerm
	preserve := opts.PreserveLastLine

	if opts.SkipFirstLine {
		r.shift()
	}
	lineRead, lineRestored, terminated := false, false, false
	for {
		line, ok := r.ReadLine()
		if !ok {
			break
		}
		stop := false
		switch {
		case hasTerm:
			stop = line == opts.Terminator
		case breakOnBlank && line == "":
			stop = true
		case breakOnContinuation && lineRead && line == "+":
			stop = true
			preserve = true
		case pred != nil && pred(line):
			stop = true
		}
		if stop {
			terminated = true
			if opts.ReadLastLine {
				result = append(result, line)
			}
			if preserve {
				r.Unshift(line)
				lineRestored = true
			}
			break
		}
		if !(opts.SkipLineComments && strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "///")) {
			result = append(result, line)
			lineRead = true
		}
	}
	if restoreProcessLines {
		r.processLines = true
		if lineRestored && !hasTerm {
			r.lookAhead--
		}
	}
	if hasTerm && !terminated {
		context := opts.Context
		if context == "" {
			context = opts.Terminator
		}
		r.warns.Warn(diag.MalformedSyntax, start, "unterminated %s block", context)
		r.unterminated = true
	}
	return result
}

// Unterminated reports whether the last terminated read hit the end of
// input, and clears the flag.
func (r *Reader) Unterminated() bool {
	u := r.unterminated
	r.unterminated = false
	return u
}

// Cursor returns the position of the next line.
func (r *Reader) Cursor() model.Cursor {
	lineno := r.lineno
	if r.lag {
		lineno--
	}
	return model.Cursor{File: r.file, Dir: r.dir, Path: r.path, LineNo: lineno}
}

// CursorAtLine returns a cursor in the current file at lineno.
func (r *Reader) CursorAtLine(lineno int) model.Cursor {
	return model.Cursor{File: r.file, Dir: r.dir, Path: r.path, LineNo: lineno}
}

// CursorAtPrevLine returns the position of the line just read.
func (r *Reader) CursorAtPrevLine() model.Cursor {
	return r.CursorAtLine(r.lineno - 1)
}

// Mark records the current line number.
func (r *Reader) Mark() { r.savedLineno = r.lineno }

// CursorAtMark returns the position recorded by Mark.
func (r *Reader) CursorAtMark() model.Cursor {
	return r.CursorAtLine(r.savedLineno)
}

// LineNo returns the number of the next line.
func (r *Reader) LineNo() int { return r.lineno }

// Dir returns the directory of the current frame.
func (r *Reader) Dir() string { return r.dir }

// Path returns the logical path of the current frame.
func (r *Reader) Path() string { return r.path }

// LineInfo returns "path: line N" for the next line.
func (r *Reader) LineInfo() string { return r.Cursor().LineInfo() }

// Lines returns a copy of the remaining lines of the current frame in
// order, without processing them.
func (r *Reader) Lines() []string { return reversed(r.lines) }

// String joins the remaining lines of the current frame.
func (r *Reader) String() string { return strings.Join(r.Lines(), "\n") }

// Warn records a warning at the current cursor.
func (r *Reader) Warn(cat diag.Category, format string, args ...interface{}) {
	r.warns.Warn(cat, r.Cursor(), format, args...)
}

// Fail stops the reader with a fatal error.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
