// Package format provides source format detection and input decoding.
package format

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format represents the markup format of an include target.
type Format int

const (
	// Unknown indicates an unrecognized format. Include targets of unknown
	// format are read verbatim, without preprocessor directives.
	Unknown Format = iota
	// AsciiDoc indicates AsciiDoc source.
	AsciiDoc
	// Markdown indicates Markdown source.
	Markdown
	// HTML indicates an HTML document.
	HTML
	// Binary indicates content that is not text.
	Binary
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case AsciiDoc:
		return "AsciiDoc"
	case Markdown:
		return "Markdown"
	case HTML:
		return "HTML"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// IsAsciiDoc reports whether preprocessor directives apply to content of
// this format.
func (f Format) IsAsciiDoc() bool {
	return f == AsciiDoc
}

var asciidocExtensions = map[string]bool{
	".adoc":     true,
	".asciidoc": true,
	".asc":      true,
	".ad":       true,
	".txt":      true,
}

// Detect determines the format from a file name or URI extension. Query
// strings and fragments are ignored.
func Detect(filename string) Format {
	if i := strings.IndexAny(filename, "?#"); i >= 0 && strings.Contains(filename, "://") {
		filename = filename[:i]
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case asciidocExtensions[ext]:
		return AsciiDoc
	case ext == ".md" || ext == ".markdown":
		return Markdown
	case ext == ".html" || ext == ".htm":
		return HTML
	default:
		return Unknown
	}
}

// DetectFromMagic inspects leading bytes. It recognizes HTML documents and
// binary content; anything else is Unknown.
func DetectFromMagic(data []byte) Format {
	if len(data) == 0 {
		return Unknown
	}
	if looksBinary(data) {
		return Binary
	}
	if detectHTMLMagic(data) {
		return HTML
	}
	return Unknown
}

// looksBinary reports NUL bytes in content without a UTF-16 byte order
// mark.
func looksBinary(data []byte) bool {
	if DetectEncoding(data) == UTF16LE || DetectEncoding(data) == UTF16BE {
		return false
	}
	sample := data
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return false
	}
	n := len(data)
	if n > 500 {
		n = 500
	}
	upper := strings.ToUpper(string(data[:n]))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") || strings.HasPrefix(upper, "<HTML") {
		return true
	}
	return strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML")
}

// ValidText reports whether data is valid UTF-8 without NUL bytes.
func ValidText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}
