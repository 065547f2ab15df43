// Package adoc provides a fluent API for loading AsciiDoc documents into a
// tree of sections and blocks with substitutions applied.
//
// Basic usage:
//
//	doc, warnings, err := adoc.Open("guide.adoc").Document()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", adoc.FormatWarnings(warnings))
//	}
//
// With options:
//
//	doc, _, err := adoc.Open("guide.adoc").
//	    SafeMode(model.SafeModeSafe).
//	    Attributes("product=ACME sectnums").
//	    Sourcemap().
//	    Document()
//
// For advanced use cases, the lower-level reader, parser and subs
// packages are also available.
package adoc

import (
	"io"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
)

// Open returns a Loader for the AsciiDoc file at filename. The file is
// read by the terminal operation.
//
// Example:
//
//	doc, warnings, err := adoc.Open("guide.adoc").Document()
func Open(filename string) *Loader {
	return &Loader{
		filename: filename,
		options:  defaultOptions(),
	}
}

// Load returns a Loader for AsciiDoc source text.
//
// Example:
//
//	doc, _, err := adoc.Load("= Title\n\nHello, *world*.").Document()
func Load(source string) *Loader {
	return LoadLines(format.SplitLines(source))
}

// LoadLines returns a Loader for source already split into lines.
func LoadLines(lines []string) *Loader {
	return &Loader{
		lines:   append([]string(nil), lines...),
		options: defaultOptions(),
	}
}

// LoadReader reads all of r and returns a Loader for it. Read and decoding
// errors are reported by the terminal operation.
func LoadReader(r io.Reader) *Loader {
	l := &Loader{options: defaultOptions()}
	data, err := io.ReadAll(r)
	if err != nil {
		l.err = &diag.LoadError{Source: "<stdin>", Err: err}
		return l
	}
	text, err := format.Decode(data)
	if err != nil {
		l.err = &diag.LoadError{Source: "<stdin>", Err: err}
		return l
	}
	l.lines = format.SplitLines(text)
	return l
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	cfg := adoc.Must(config.Load(""))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustDocument is a helper that wraps a call to Document(), Header() or
// Lines() and panics if the error is non-nil. It discards warnings and
// returns just the value.
//
// Example:
//
//	doc := adoc.MustDocument(adoc.Load(src).Document())
func MustDocument[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
