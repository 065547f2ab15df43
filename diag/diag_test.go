package diag

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
)

func TestCollectorWarn(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(logger.New(&buf))
	c.Warn(MalformedSyntax, model.Cursor{Path: "doc.adoc", LineNo: 7}, "unterminated %s block", "listing")

	ws := c.Warnings()
	if len(ws) != 1 {
		t.Fatalf("len(Warnings()) = %d, want 1", len(ws))
	}
	if ws[0].Message != "unterminated listing block" {
		t.Errorf("Message = %q", ws[0].Message)
	}
	if !strings.Contains(buf.String(), "unterminated listing block") {
		t.Errorf("warning not logged: %q", buf.String())
	}
	if got := ws[0].String(); got != "doc.adoc: line 7: [syntax] unterminated listing block" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	ws := []Warning{
		{Category: IncludeResolution, Message: "missing a.adoc", Cursor: model.Cursor{LineNo: 1}},
		{Category: AttributeResolution, Message: "dropping line"},
	}
	want := "<stdin>: line 1: [include] missing a.adoc\n[attribute] dropping line"
	if got := Format(ws); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
}

func TestCodeAndIsFatal(t *testing.T) {
	load := &LoadError{Source: "x.adoc", Err: ErrBinaryInput}
	sec := &SecurityError{Target: "../../etc/passwd", Root: "/docs"}
	wrapped := fmt.Errorf("parse: %w", sec)

	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		fatal bool
	}{
		{"nil", nil, ErrNone, false},
		{"load", load, ErrLoad, true},
		{"security wrapped", wrapped, ErrSecurity, true},
		{"plain", errors.New("x"), ErrInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
		})
	}

	if !errors.Is(load, ErrBinaryInput) {
		t.Error("LoadError should unwrap to its cause")
	}
	var se *SecurityError
	if !errors.As(wrapped, &se) || se.Root != "/docs" {
		t.Error("errors.As should find the SecurityError")
	}
}
