package format

import (
	"errors"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{AsciiDoc, "AsciiDoc"},
		{Markdown, "Markdown"},
		{HTML, "HTML"},
		{Binary, "Binary"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"document.adoc", AsciiDoc},
		{"document.ADOC", AsciiDoc},
		{"document.asciidoc", AsciiDoc},
		{"document.asc", AsciiDoc},
		{"document.ad", AsciiDoc},
		{"document.txt", AsciiDoc},
		{"README.md", Markdown},
		{"page.htm", HTML},
		{"main.go", Unknown},
		{"data.csv", Unknown},
		{"document", Unknown},
		{"", Unknown},
		{"/path/to/chapter.adoc", AsciiDoc},
		{"https://example.org/include.adoc?ref=main", AsciiDoc},
		{"https://example.org/snippet.rb#L1", Unknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"HTML with DOCTYPE", []byte("<!DOCTYPE html>\n<html>"), HTML},
		{"HTML with whitespace", []byte("  \n  <html><head>"), HTML},
		{"XHTML", []byte("<?xml version=\"1.0\"?>\n<html xmlns=\"x\">"), HTML},
		{"binary", []byte{0x89, 'P', 'N', 'G', 0x00, 0x00}, Binary},
		{"UTF-16 is not binary", []byte{0xFF, 0xFE, 'a', 0x00}, Unknown},
		{"plain text", []byte("= Title\n\nParagraph."), Unknown},
		{"empty data", []byte{}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		data []byte
		want Encoding
	}{
		{[]byte("abc"), UTF8},
		{[]byte{0xEF, 0xBB, 0xBF, 'a'}, UTF8BOM},
		{[]byte{0xFF, 0xFE, 'a', 0}, UTF16LE},
		{[]byte{0xFE, 0xFF, 0, 'a'}, UTF16BE},
	}
	for _, tt := range tests {
		if got := DetectEncoding(tt.data); got != tt.want {
			t.Errorf("DetectEncoding(%v) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr error
	}{
		{"utf8", []byte("= Title"), "= Title", nil},
		{"utf8 bom", []byte("\xEF\xBB\xBF= Title"), "= Title", nil},
		{"utf16le", []byte{0xFF, 0xFE, '=', 0, ' ', 0, 'T', 0}, "= T", nil},
		{"utf16be", []byte{0xFE, 0xFF, 0, '=', 0, ' ', 0, 'T'}, "= T", nil},
		{"invalid utf8", []byte{'a', 0xC3, 0x28}, "", ErrInvalidEncoding},
		{"binary", []byte{'P', 'K', 0x03, 0x04, 0x00}, "", ErrBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeNamed(t *testing.T) {
	got, err := DecodeNamed([]byte{'c', 'a', 'f', 0xE9}, "ISO-8859-1")
	if err != nil {
		t.Fatalf("DecodeNamed() error = %v", err)
	}
	if got != "café" {
		t.Errorf("DecodeNamed() = %q, want café", got)
	}
	if _, err := DecodeNamed([]byte("x"), "no-such-charset"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("DecodeNamed(unknown) error = %v", err)
	}
	if got, _ := DecodeNamed([]byte("x"), "UTF-8"); got != "x" {
		t.Errorf("DecodeNamed(UTF-8) = %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("one  \r\ntwo\n\nthree\n")
	want := []string{"one", "two", "", "three"}
	if len(got) != len(want) {
		t.Fatalf("SplitLines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if SplitLines("") != nil {
		t.Error("SplitLines(\"\") should be nil")
	}
}
