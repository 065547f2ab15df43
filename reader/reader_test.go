package reader

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/resolver"
)

var attrRefRx = regexp.MustCompile(`\{([\w-]+)\}`)

// substituter expands {name} references from doc. Missing names become
// empty strings.
func substituter(doc *model.Document) AttributeSubstituter {
	return func(text, _ string) (string, bool) {
		return attrRefRx.ReplaceAllStringFunc(text, func(m string) string {
			return doc.Attrs.Value(m[1 : len(m)-1])
		}), true
	}
}

func newPreprocessor(doc *model.Document, src string, opts ...Option) (*PreprocessorReader, *diag.Collector) {
	warns := diag.NewCollector(nil)
	opts = append([]Option{WithAttributeSubstituter(substituter(doc))}, opts...)
	return NewPreprocessor(doc, strings.Split(src, "\n"), model.Cursor{}, warns, opts...), warns
}

// writeFiles creates files under a temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return dir
}

// includeReader returns a preprocessor reading main from dir with
// includes enabled in the safe mode.
func includeReader(t *testing.T, dir, main string) (*PreprocessorReader, *diag.Collector) {
	t.Helper()
	doc := model.NewDocument()
	doc.SafeMode = model.SafeModeSafe
	res := resolver.NewResolver(resolver.WithBaseDir(dir), resolver.WithSafeMode(model.SafeModeSafe))
	warns := diag.NewCollector(nil)
	cursor := model.NewCursor(filepath.Join(dir, "main.adoc"), 1)
	p := NewPreprocessor(doc, strings.Split(main, "\n"), cursor, warns,
		WithResolver(res), WithAttributeSubstituter(substituter(doc)))
	return p, warns
}

// ============================================================================
// Reader
// ============================================================================

func TestReaderPeekAndRead(t *testing.T) {
	r := New([]string{"a", "b", "c"}, model.Cursor{}, nil)

	line, ok := r.PeekLine()
	require.True(t, ok)
	assert.Equal(t, "a", line)
	assert.Equal(t, 1, r.LineNo())

	line, ok = r.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "a", line)
	assert.Equal(t, 2, r.LineNo())

	r.Unshift("x")
	assert.Equal(t, 1, r.LineNo())
	assert.Equal(t, []string{"x", "b"}, r.PeekLines(2, false))
	assert.Equal(t, 1, r.LineNo(), "PeekLines must not consume")

	assert.Equal(t, []string{"x", "b", "c"}, r.ReadLines())
	assert.False(t, r.HasMoreLines())
	_, ok = r.ReadLine()
	assert.False(t, ok)
}

func TestReaderCursor(t *testing.T) {
	r := New([]string{"one", "two"}, model.NewCursor("/tmp/docs/guide.adoc", 1), nil)
	r.ReadLine()

	c := r.Cursor()
	assert.Equal(t, "guide.adoc", c.Path)
	assert.Equal(t, 2, c.LineNo)
	assert.Equal(t, "guide.adoc: line 2", r.LineInfo())
	assert.Equal(t, 1, r.CursorAtPrevLine().LineNo)

	r.Mark()
	r.ReadLine()
	assert.Equal(t, 2, r.CursorAtMark().LineNo)
}

func TestReaderStdinCursor(t *testing.T) {
	r := New([]string{"x"}, model.Cursor{}, nil)
	assert.Equal(t, "<stdin>: line 1", r.LineInfo())
}

func TestSkipBlankLines(t *testing.T) {
	r := New([]string{"", "", "a"}, model.Cursor{}, nil)
	assert.Equal(t, 2, r.SkipBlankLines())
	line, _ := r.PeekLine()
	assert.Equal(t, "a", line)
	assert.Equal(t, 3, r.LineNo())
}

func TestSkipCommentLines(t *testing.T) {
	r := New([]string{"// note", "////", "hidden", "////", "a"}, model.Cursor{}, nil)
	r.SkipCommentLines()
	line, _ := r.PeekLine()
	assert.Equal(t, "a", line)
}

func TestReadLinesUntil(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		opts  UntilOptions
		want  []string
		next  string
	}{
		{
			name:  "terminator",
			lines: []string{"one", "two", "----", "after"},
			opts:  UntilOptions{Terminator: "----"},
			want:  []string{"one", "two"},
			next:  "after",
		},
		{
			name:  "read last line",
			lines: []string{"one", "----", "after"},
			opts:  UntilOptions{Terminator: "----", ReadLastLine: true},
			want:  []string{"one", "----"},
			next:  "after",
		},
		{
			name:  "blank line",
			lines: []string{"a", "b", "", "c"},
			opts:  UntilOptions{BreakOnBlankLines: true},
			want:  []string{"a", "b"},
			next:  "c",
		},
		{
			name:  "list continuation",
			lines: []string{"a", "+", "b"},
			opts:  UntilOptions{BreakOnListContinuation: true},
			want:  []string{"a"},
			next:  "+",
		},
		{
			name:  "skip line comments",
			lines: []string{"a", "// gone", "b", "", "c"},
			opts:  UntilOptions{BreakOnBlankLines: true, SkipLineComments: true},
			want:  []string{"a", "b"},
			next:  "c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.lines, model.Cursor{}, nil)
			got := r.ReadLinesUntil(tt.opts, nil)
			assert.Equal(t, tt.want, got)
			next, _ := r.PeekLine()
			assert.Equal(t, tt.next, next)
			assert.False(t, r.Unterminated())
		})
	}
}

func TestReadLinesUntilPredicate(t *testing.T) {
	r := New([]string{"a", "b", "STOP", "c"}, model.Cursor{}, nil)
	got := r.ReadLinesUntil(UntilOptions{PreserveLastLine: true}, func(line string) bool {
		return line == "STOP"
	})
	assert.Equal(t, []string{"a", "b"}, got)
	next, _ := r.PeekLine()
	assert.Equal(t, "STOP", next)
}

func TestReadLinesUntilUnterminated(t *testing.T) {
	warns := diag.NewCollector(nil)
	r := New([]string{"====", "one", "two"}, model.Cursor{}, warns)
	got := r.ReadLinesUntil(UntilOptions{Terminator: "====", SkipFirstLine: true, Context: "example"}, nil)

	assert.Equal(t, []string{"one", "two"}, got)
	assert.True(t, r.Unterminated())
	assert.False(t, r.Unterminated(), "flag should reset after it is read")
	require.Equal(t, 1, warns.Len())
	w := warns.Warnings()[0]
	assert.Equal(t, diag.MalformedSyntax, w.Category)
	assert.Equal(t, "unterminated example block", w.Message)
	assert.Equal(t, 1, w.Cursor.LineNo)
}

func TestTerminate(t *testing.T) {
	r := New([]string{"a", "b"}, model.Cursor{}, nil)
	r.Terminate()
	assert.False(t, r.HasMoreLines())
	assert.Equal(t, 3, r.LineNo())
}

// ============================================================================
// Conditionals
// ============================================================================

func TestConditionals(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		src   string
		want  []string
	}{
		{
			name: "ifdef unset",
			src:  "before\nifdef::flag[]\ncontent\nendif::flag[]\nafter",
			want: []string{"before", "after"},
		},
		{
			name:  "ifdef set",
			attrs: map[string]string{"flag": ""},
			src:   "before\nifdef::flag[]\ncontent\nendif::flag[]\nafter",
			want:  []string{"before", "content", "after"},
		},
		{
			name: "only the region is dropped",
			src:  "ifdef::flag[]\ncontent\n\nmore\nendif::flag[]",
			want: nil,
		},
		{
			name:  "ifndef set",
			attrs: map[string]string{"flag": ""},
			src:   "ifndef::flag[]\ncontent\nendif::[]\nafter",
			want:  []string{"after"},
		},
		{
			name:  "any of",
			attrs: map[string]string{"b": ""},
			src:   "ifdef::a,b[]\ncontent\nendif::a,b[]",
			want:  []string{"content"},
		},
		{
			name:  "all of",
			attrs: map[string]string{"b": ""},
			src:   "ifdef::a+b[]\ncontent\nendif::a+b[]",
			want:  nil,
		},
		{
			name:  "name is case-insensitive",
			attrs: map[string]string{"flag": ""},
			src:   "ifdef::FLAG[]\ncontent\nendif::flag[]",
			want:  []string{"content"},
		},
		{
			name:  "single line form",
			attrs: map[string]string{"flag": ""},
			src:   "ifdef::flag[Flag is set]\nnext",
			want:  []string{"Flag is set", "next"},
		},
		{
			name: "single line form unset",
			src:  "ifdef::flag[Flag is set]\nnext",
			want: []string{"next"},
		},
		{
			name:  "nested true outer",
			attrs: map[string]string{"a": ""},
			src:   "ifdef::a[]\nifdef::b[]\nx\nendif::b[]\ny\nendif::a[]\nz",
			want:  []string{"y", "z"},
		},
		{
			name: "nested false outer",
			src:  "ifdef::a[]\nifdef::b[]\nx\nendif::b[]\ny\nendif::a[]\nz",
			want: []string{"z"},
		},
		{
			name: "escaped directive",
			src:  "\\ifdef::flag[]\nx\n\\endif::flag[]",
			want: []string{"ifdef::flag[]", "x", "endif::flag[]"},
		},
		{
			name:  "ifeval numeric",
			attrs: map[string]string{"level": "2"},
			src:   "ifeval::[{level} > 1]\nhigh\nendif::[]\nifeval::[{level} >= 3]\nhigher\nendif::[]",
			want:  []string{"high"},
		},
		{
			name:  "ifeval string",
			attrs: map[string]string{"backend": "html5"},
			src:   "ifeval::[\"{backend}\" == \"html5\"]\nhtml\nendif::[]",
			want:  []string{"html"},
		},
		{
			name: "ifeval float against int",
			src:  "ifeval::[1.5 < 2]\nyes\nendif::[]",
			want: []string{"yes"},
		},
		{
			name: "ifeval mixed kinds",
			src:  "ifeval::[\"1\" == 1]\nequal\nendif::[]\nifeval::[\"1\" != 1]\nunequal\nendif::[]",
			want: []string{"unequal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.NewDocument()
			for k, v := range tt.attrs {
				doc.Attrs.Set(k, v, model.ProvenanceAPI)
			}
			p, warns := newPreprocessor(doc, tt.src)
			assert.Equal(t, tt.want, p.ReadLines())
			assert.Equal(t, 0, warns.Len(), diag.Format(warns.Warnings()))
		})
	}
}

func TestConditionalWarnings(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []string
		message string
	}{
		{
			name:    "malformed ifeval is false",
			src:     "ifeval::[foo bar]\nhidden\nendif::[]\nshown",
			want:    []string{"shown"},
			message: "invalid expression",
		},
		{
			name:    "bare word operand",
			src:     "ifeval::[foo == 1]\nhidden\nendif::[]\nshown",
			want:    []string{"shown"},
			message: "invalid operand",
		},
		{
			name:    "unmatched endif",
			src:     "endif::x[]\na",
			want:    []string{"a"},
			message: "unmatched preprocessor directive",
		},
		{
			name:    "mismatched endif",
			src:     "ifdef::a[]\nendif::b[]\nendif::a[]\nz",
			want:    []string{"z"},
			message: "mismatched preprocessor directive",
		},
		{
			name:    "missing target",
			src:     "ifdef::[]\na",
			want:    []string{"a"},
			message: "missing target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, warns := newPreprocessor(model.NewDocument(), tt.src)
			assert.Equal(t, tt.want, p.ReadLines())
			require.Equal(t, 1, warns.Len())
			assert.Contains(t, warns.Warnings()[0].Message, tt.message)
			assert.Equal(t, diag.MalformedSyntax, warns.Warnings()[0].Category)
		})
	}
}

func TestLineAfterSkippedRegion(t *testing.T) {
	p, _ := newPreprocessor(model.NewDocument(), "ifdef::flag[]\nskipped\nendif::flag[]\npara\nnext")

	line, ok := p.PeekLine()
	require.True(t, ok)
	assert.Equal(t, "para", line)
	assert.Equal(t, 4, p.LineNo())
	assert.Equal(t, 3, p.Cursor().LineNo)

	p.ReadLine()
	assert.Equal(t, 5, p.Cursor().LineNo)
}

func TestMultiLinePeekKeepsSkippedRegionOffset(t *testing.T) {
	p, _ := newPreprocessor(model.NewDocument(), "ifdef::flag[]\nskipped\nendif::flag[]\npara\nnext")

	p.PeekLine()
	assert.Equal(t, []string{"para", "next"}, p.PeekLines(2, false))
	assert.Equal(t, 3, p.Cursor().LineNo, "peeking ahead must not clear the offset")

	p.ReadLine()
	assert.Equal(t, 5, p.Cursor().LineNo)
}

func TestPeekDoesNotRepeatDirectives(t *testing.T) {
	doc := model.NewDocument()
	doc.Attrs.Set("flag", "", model.ProvenanceAPI)
	p, _ := newPreprocessor(doc, "\\include::x.adoc[]\nifdef::flag[]\na\nendif::flag[]")

	for i := 0; i < 3; i++ {
		line, _ := p.PeekLine()
		assert.Equal(t, "include::x.adoc[]", line)
	}
	assert.Equal(t, []string{"include::x.adoc[]", "a"}, p.ReadLines())
}

// ============================================================================
// Includes
// ============================================================================

func TestIncludeFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": "one  \ntwo\n"})
	p, warns := includeReader(t, dir, "before\ninclude::part.adoc[]\nafter")

	line, _ := p.ReadLine()
	assert.Equal(t, "before", line)
	line, _ = p.ReadLine()
	assert.Equal(t, "one", line)
	assert.Equal(t, "part.adoc", p.Path())
	assert.Equal(t, 2, p.LineNo())
	assert.Equal(t, 1, p.IncludeDepth())

	assert.Equal(t, []string{"two", "after"}, p.ReadLines())
	assert.Equal(t, 0, p.IncludeDepth())
	assert.Equal(t, 0, warns.Len())
	assert.True(t, p.Document().Catalog.HasInclude("part"))
}

func TestIncludeRelativeToIncludingFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"chapters/ch1.adoc":         "include::shared/note.adoc[]",
		"chapters/shared/note.adoc": "note",
	})
	p, warns := includeReader(t, dir, "include::chapters/ch1.adoc[]")
	assert.Equal(t, []string{"note"}, p.ReadLines())
	assert.Equal(t, 0, warns.Len(), diag.Format(warns.Warnings()))
}

func TestIncludeNonAsciiDocKeepsWhitespace(t *testing.T) {
	dir := writeFiles(t, map[string]string{"code.go": "func main() {  \r\n}\n"})
	p, _ := includeReader(t, dir, "include::code.go[]")
	assert.Equal(t, []string{"func main() {  ", "}"}, p.ReadLines())
}

func TestIncludeMissing(t *testing.T) {
	dir := writeFiles(t, nil)
	p, warns := includeReader(t, dir, "include::missing.adoc[]\nafter")
	assert.Equal(t, []string{"include::missing.adoc[]", "after"}, p.ReadLines())
	require.Equal(t, 1, warns.Len())
	assert.Equal(t, diag.IncludeResolution, warns.Warnings()[0].Category)
	assert.Contains(t, warns.Warnings()[0].Message, "not found")
}

func TestIncludeOptionalMissing(t *testing.T) {
	dir := writeFiles(t, nil)
	p, warns := includeReader(t, dir, "include::missing.adoc[opts=optional]\nafter")
	assert.Equal(t, []string{"after"}, p.ReadLines())
	assert.Equal(t, 0, warns.Len())
}

func TestIncludeLines(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": "l1\nl2\nl3\nl4\nl5\n"})
	tests := []struct {
		attrs string
		want  []string
	}{
		{"lines=2..3;5", []string{"l2", "l3", "l5"}},
		{`lines="1,3..-1"`, []string{"l1", "l3", "l4", "l5"}},
		{"lines=4..", []string{"l4", "l5"}},
		{"lines=9", nil},
	}
	for _, tt := range tests {
		t.Run(tt.attrs, func(t *testing.T) {
			p, _ := includeReader(t, dir, "include::part.adoc["+tt.attrs+"]")
			assert.Equal(t, tt.want, p.ReadLines())
			assert.False(t, p.Document().Catalog.HasInclude("part"), "partial includes are not cataloged")
		})
	}
}

func TestIncludeLinesCursorStartsAtSelection(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": "l1\nl2\nl3\n"})
	p, _ := includeReader(t, dir, "include::part.adoc[lines=2..3]")
	p.PeekLine()
	assert.Equal(t, 2, p.LineNo())
}

const taggedSource = `intro
// tag::a[]
alpha
// end::a[]
// tag::b[]
beta
// end::b[]
outro
`

func TestIncludeTags(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": taggedSource})
	tests := []struct {
		attrs string
		want  []string
	}{
		{"tag=a", []string{"alpha"}},
		{"tags=a;b", []string{"alpha", "beta"}},
		{"tag=!b", []string{"intro", "alpha", "outro"}},
		{"tags=*", []string{"alpha", "beta"}},
		{"tags=**", []string{"intro", "alpha", "beta", "outro"}},
		{"tags=**;!a", []string{"intro", "beta", "outro"}},
	}
	for _, tt := range tests {
		t.Run(tt.attrs, func(t *testing.T) {
			p, warns := includeReader(t, dir, "include::part.adoc["+tt.attrs+"]")
			assert.Equal(t, tt.want, p.ReadLines())
			assert.Equal(t, 0, warns.Len(), diag.Format(warns.Warnings()))
		})
	}
}

func TestIncludeTagWarnings(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"part.adoc":     taggedSource,
		"unclosed.adoc": "// tag::x[]\ninside\n",
	})

	p, warns := includeReader(t, dir, "include::part.adoc[tag=zzz]\nafter")
	assert.Equal(t, []string{"after"}, p.ReadLines())
	require.Equal(t, 1, warns.Len())
	assert.Contains(t, warns.Warnings()[0].Message, "tag 'zzz' not found")

	p, warns = includeReader(t, dir, "include::unclosed.adoc[tag=x]")
	assert.Equal(t, []string{"inside"}, p.ReadLines())
	require.Equal(t, 1, warns.Len())
	assert.Contains(t, warns.Warnings()[0].Message, "unclosed tag 'x'")
}

func TestIncludeLevelOffset(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": "== Section\n"})
	p, _ := includeReader(t, dir, "include::part.adoc[leveloffset=+1]")
	assert.Equal(t, []string{":leveloffset: +1", "", "== Section", "", ":leveloffset!:"}, p.ReadLines())
}

func TestIncludeIndent(t *testing.T) {
	dir := writeFiles(t, map[string]string{"code.rb": "    def x\n      y\n    end\n"})
	p, _ := includeReader(t, dir, "include::code.rb[indent=2]")
	assert.Equal(t, []string{"  def x", "    y", "  end"}, p.ReadLines())
}

func TestIncludeMaxDepth(t *testing.T) {
	dir := writeFiles(t, map[string]string{"loop.adoc": "include::loop.adoc[]\nx\n"})
	doc := model.NewDocument()
	doc.SafeMode = model.SafeModeSafe
	doc.Attrs.Set("max-include-depth", "1", model.ProvenanceAPI)
	res := resolver.NewResolver(resolver.WithBaseDir(dir), resolver.WithSafeMode(model.SafeModeSafe))
	warns := diag.NewCollector(nil)
	p := NewPreprocessor(doc, []string{"include::loop.adoc[]"}, model.NewCursor(filepath.Join(dir, "main.adoc"), 1), warns, WithResolver(res))

	assert.Equal(t, []string{"include::loop.adoc[]", "x"}, p.ReadLines())
	require.Equal(t, 1, warns.Len())
	assert.Equal(t, "maximum include depth of 1 exceeded", warns.Warnings()[0].Message)
}

func TestIncludeSecureMode(t *testing.T) {
	p, _ := newPreprocessor(model.NewDocument(), "include::part.adoc[]")
	assert.Equal(t, []string{"link:part.adoc[role=include]"}, p.ReadLines())
}

func TestIncludeEscaped(t *testing.T) {
	dir := writeFiles(t, map[string]string{"part.adoc": "one\n"})
	p, _ := includeReader(t, dir, "\\include::part.adoc[]")
	assert.Equal(t, []string{"include::part.adoc[]"}, p.ReadLines())
}

func TestIncludeTargetAttribute(t *testing.T) {
	dir := writeFiles(t, map[string]string{"parts/a.adoc": "from a\n"})
	p, _ := includeReader(t, dir, ":ignored:\ninclude::{partsdir}/a.adoc[]")
	p.Document().Attrs.Set("partsdir", "parts", model.ProvenanceAPI)
	assert.Equal(t, []string{":ignored:", "from a"}, p.ReadLines())
}

func TestIncludeOutsideJail(t *testing.T) {
	dir := writeFiles(t, nil)
	p, _ := includeReader(t, dir, "a\ninclude::../secret.adoc[]\nb")

	assert.Equal(t, []string{"a"}, p.ReadLines())
	var secErr *diag.SecurityError
	require.True(t, errors.As(p.Err(), &secErr))
	assert.Equal(t, diag.ErrSecurity, diag.Code(p.Err()))
}

func TestIncludeInsideSkippedRegion(t *testing.T) {
	p, _ := newPreprocessor(model.NewDocument(), "ifdef::flag[]\ninclude::part.adoc[]\nendif::flag[]\nafter")
	assert.Equal(t, []string{"after"}, p.ReadLines())
}

// ============================================================================
// Attribute entries
// ============================================================================

func TestReadAttributeEntry(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  AttributeEntry
		next  string
	}{
		{
			name:  "simple",
			lines: []string{":name: value", "next"},
			want:  AttributeEntry{Name: "name", Value: "value", Lines: []string{":name: value"}},
			next:  "next",
		},
		{
			name:  "empty value",
			lines: []string{":toc:", "next"},
			want:  AttributeEntry{Name: "toc", Lines: []string{":toc:"}},
			next:  "next",
		},
		{
			name:  "unset suffix",
			lines: []string{":name!:"},
			want:  AttributeEntry{Name: "name", Unset: true, Lines: []string{":name!:"}},
		},
		{
			name:  "unset prefix",
			lines: []string{":!name:"},
			want:  AttributeEntry{Name: "name", Unset: true, Lines: []string{":!name:"}},
		},
		{
			name:  "continuation",
			lines: []string{`:desc: one \`, `  two \`, "three", "after"},
			want:  AttributeEntry{Name: "desc", Value: "one two three", Lines: []string{`:desc: one \`, `  two \`, "three"}},
			next:  "after",
		},
		{
			name:  "plus continuation",
			lines: []string{":desc: one +", "two", "after"},
			want:  AttributeEntry{Name: "desc", Value: "one two", Lines: []string{":desc: one +", "two"}},
			next:  "after",
		},
		{
			name:  "continuation stops at blank line",
			lines: []string{`:desc: one \`, "", "after"},
			want:  AttributeEntry{Name: "desc", Value: "one", Lines: []string{`:desc: one \`}},
			next:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.lines, model.Cursor{}, nil)
			got, ok := r.ReadAttributeEntry()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			next, _ := r.PeekLine()
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestReadAttributeEntryRejects(t *testing.T) {
	for _, line := range []string{"plain", ":not an entry", "::", ": x:"} {
		r := New([]string{line}, model.Cursor{}, nil)
		_, ok := r.ReadAttributeEntry()
		assert.False(t, ok, line)
		assert.False(t, IsAttributeEntry(line), line)
		assert.Equal(t, 1, r.LineNo())
	}
}

func TestProcessAttributeEntry(t *testing.T) {
	doc := model.NewDocument()
	doc.Attrs.Set("locked", "x", model.ProvenanceLocked)
	doc.Attrs.Set("gone", "y", model.ProvenanceAPI)
	r := New([]string{":locked: changed", ":free: {locked}!", ":gone!:"}, model.Cursor{}, nil)
	upper := func(s string) string { return strings.ToUpper(s) }

	for i := 0; i < 3; i++ {
		_, ok := r.ProcessAttributeEntry(doc, upper)
		require.True(t, ok)
	}
	assert.Equal(t, "x", doc.Attrs.Value("locked"))
	assert.Equal(t, "{LOCKED}!", doc.Attrs.Value("free"))
	assert.False(t, doc.Attrs.Has("gone"))
}

func TestEntriesApplyInOrder(t *testing.T) {
	doc := model.NewDocument()
	p, _ := newPreprocessor(doc, ":flag:\nifdef::flag[]\nshown\nendif::flag[]")
	_, ok := p.ProcessAttributeEntry(doc, nil)
	require.True(t, ok)
	assert.Equal(t, []string{"shown"}, p.ReadLines())
}
