package format

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding is the byte encoding of a source as detected from its byte order
// mark.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF8BOM
	UTF16LE
	UTF16BE
)

func (e Encoding) String() string {
	switch e {
	case UTF8BOM:
		return "UTF-8 (BOM)"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	default:
		return "UTF-8"
	}
}

var (
	// ErrInvalidEncoding reports input that is not valid in its detected encoding.
	ErrInvalidEncoding = errors.New("format: input is not valid UTF-8")
	// ErrBinary reports input containing NUL bytes.
	ErrBinary = errors.New("format: input appears to be binary")
	// ErrUnknownEncoding reports an encoding name that is not registered.
	ErrUnknownEncoding = errors.New("format: unknown encoding")
)

// DetectEncoding inspects the byte order mark.
func DetectEncoding(data []byte) Encoding {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return UTF8BOM
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return UTF16LE
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return UTF16BE
	}
	return UTF8
}

// Decode converts data to a UTF-8 string. A UTF-8 or UTF-16 byte order
// mark selects the encoding and is removed; otherwise the input must be
// valid UTF-8 text.
func Decode(data []byte) (string, error) {
	switch DetectEncoding(data) {
	case UTF8:
		if !ValidText(data) {
			if looksBinary(data) {
				return "", ErrBinary
			}
			return "", ErrInvalidEncoding
		}
		return string(data), nil
	case UTF8BOM:
		data = data[3:]
		if !ValidText(data) {
			return "", ErrInvalidEncoding
		}
		return string(data), nil
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(out), nil
}

// DecodeNamed converts data from the named encoding (an IANA name such as
// "ISO-8859-1" or "windows-1252") to UTF-8. An empty name or a UTF-8 name
// falls back to Decode.
func DecodeNamed(data []byte, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return Decode(data)
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return decodeWith(enc, data)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(out), nil
}

// SplitLines splits decoded text into lines. Line endings may be LF or
// CRLF; trailing whitespace is removed from every line and a final empty
// line produced by a trailing newline is dropped.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r\f\v")
	}
	return lines
}
