package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
	"github.com/tsawler/adoc/subs"
)

// parse runs the preprocessor and the parser over src.
func parse(t *testing.T, src string, attrs map[string]string) (*model.Document, *diag.Collector) {
	t.Helper()
	doc := model.NewDocument()
	for k, v := range attrs {
		doc.Attrs.Set(k, v, model.ProvenanceAPI)
	}
	warns := diag.NewCollector(nil)
	r := reader.NewPreprocessor(doc, strings.Split(src, "\n"), model.NewCursor("doc.adoc", 1), warns,
		reader.WithAttributeSubstituter(subs.New(doc, warns).SubAttributes))
	require.NoError(t, New(doc, warns).Parse(r))
	return doc, warns
}

func messages(warns *diag.Collector) []string {
	var out []string
	for _, w := range warns.Warnings() {
		out = append(out, w.Message)
	}
	return out
}

func block(t *testing.T, n model.Node) *model.Block {
	t.Helper()
	b, ok := n.(*model.Block)
	require.True(t, ok, "node is %T", n)
	return b
}

// ============================================================================
// Delimited Blocks
// ============================================================================

func TestListingFence(t *testing.T) {
	doc, warns := parse(t, "----\nline one\n\nline two\n----\nafter", nil)

	require.Len(t, doc.Blocks, 2)
	listing := block(t, doc.Blocks[0])
	assert.Equal(t, model.ContextListing, listing.Context())
	assert.Equal(t, []string{"line one", "", "line two"}, listing.Lines)
	assert.Equal(t, model.VerbatimSubs, listing.Subs)
	assert.Equal(t, []string{"after"}, block(t, doc.Blocks[1]).Lines)
	assert.Empty(t, warns.Warnings())
}

func TestUnterminatedFence(t *testing.T) {
	doc, warns := parse(t, "====\ninside\n\nstill inside", nil)

	require.Len(t, doc.Blocks, 1)
	example := block(t, doc.Blocks[0])
	assert.Equal(t, model.ContextExample, example.Context())
	assert.Len(t, example.Blocks, 2)
	assert.Equal(t, []string{"unterminated example block"}, messages(warns))
	assert.Equal(t, 1, warns.Warnings()[0].Cursor.LineNo)
}

func TestFenceMasquerade(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		ctx   model.Context
		style string
		attrs map[string]string
	}{
		{"source listing", "[source,ruby]\n----\nputs 1\n----", model.ContextListing, "source", map[string]string{"language": "ruby"}},
		{"backtick fence", "```go\nfmt.Println()\n```", model.ContextListing, "source", map[string]string{"language": "go"}},
		{"open as sidebar", "[sidebar]\n--\ntext\n--", model.ContextSidebar, "sidebar", nil},
		{"example as admonition", "[NOTE]\n====\ntext\n====", model.ContextAdmonition, "NOTE", map[string]string{"name": "note", "textlabel": "Note"}},
		{"quote attribution", "[quote,Someone,Some Book]\n____\ntext\n____", model.ContextQuote, "quote", map[string]string{"attribution": "Someone", "citetitle": "Some Book"}},
		{"verse", "[verse,Poet]\n____\nline\n  indented\n____", model.ContextVerse, "verse", map[string]string{"attribution": "Poet"}},
		{"pass", "++++\n<b>raw</b>\n++++", model.ContextPass, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := parse(t, tt.src, nil)
			require.Len(t, doc.Blocks, 1)
			b := block(t, doc.Blocks[0])
			assert.Equal(t, tt.ctx, b.Context())
			assert.Equal(t, tt.style, b.Style)
			for k, v := range tt.attrs {
				assert.Equal(t, v, b.Attributes.Value(k), k)
			}
		})
	}
}

func TestCommentBlocksAreSkipped(t *testing.T) {
	doc, _ := parse(t, "////\nhidden\n////\n// line comment\n[comment]\nalso hidden\n\nshown", nil)

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, []string{"shown"}, block(t, doc.Blocks[0]).Lines)
}

func TestBlockAfterSkippedRegionLine(t *testing.T) {
	doc, _ := parse(t, "ifdef::flag[]\nskipped\nendif::flag[]\npara", nil)

	require.Len(t, doc.Blocks, 1)
	b := block(t, doc.Blocks[0])
	assert.Equal(t, []string{"para"}, b.Lines)
	assert.Equal(t, 3, b.Cursor.LineNo, "first line after a false conditional is reported one line early")
}

// ============================================================================
// Paragraphs and Single Line Blocks
// ============================================================================

func TestParagraphKinds(t *testing.T) {
	doc, _ := parse(t, "NOTE: Mind the gap.\n\n  indented\n    more\n\n'''\n\n<<<\n\nimage::images/sunset-view.png[]", nil)

	require.Len(t, doc.Blocks, 5)
	note := block(t, doc.Blocks[0])
	assert.Equal(t, model.ContextAdmonition, note.Context())
	assert.Equal(t, []string{"Mind the gap."}, note.Lines)
	assert.Equal(t, "note", note.Attributes.Value("name"))

	literal := block(t, doc.Blocks[1])
	assert.Equal(t, model.ContextLiteral, literal.Context())
	assert.Equal(t, []string{"indented", "  more"}, literal.Lines)

	assert.Equal(t, model.ContextThematicBreak, doc.Blocks[2].Base().Context())
	assert.Equal(t, model.ContextPageBreak, doc.Blocks[3].Base().Context())

	image := block(t, doc.Blocks[4])
	assert.Equal(t, model.ContextImage, image.Context())
	assert.Equal(t, "images/sunset-view.png", image.Attributes.Value("target"))
	assert.Equal(t, "sunset view", image.Attributes.Value("alt"))
}

func TestBlockMetadata(t *testing.T) {
	doc, warns := parse(t, "[[intro,Introduction]]\n.The Title\n[.lead]\nSome text.", nil)

	require.Len(t, doc.Blocks, 1)
	b := block(t, doc.Blocks[0])
	assert.Equal(t, "intro", b.ID)
	assert.Equal(t, "The Title", b.Title)
	assert.Equal(t, "Introduction", b.Reftext)
	assert.True(t, b.HasRole("lead"))
	ref, ok := doc.Catalog.Resolve("intro")
	require.True(t, ok)
	assert.Equal(t, "Introduction", ref.Reftext)
	assert.Empty(t, warns.Warnings())
}

func TestDuplicateID(t *testing.T) {
	_, warns := parse(t, "[#dup]\none\n\n[#dup]\ntwo", nil)
	assert.Equal(t, []string{"id assigned to block already in use: dup"}, messages(warns))
}

func TestExampleCaption(t *testing.T) {
	doc, _ := parse(t, ".First\n====\na\n====\n\n.Second\n====\nb\n====", nil)

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "Example 1. ", doc.Blocks[0].Base().Caption)
	assert.Equal(t, "Example 2. ", doc.Blocks[1].Base().Caption)
}

func TestSubsAttribute(t *testing.T) {
	doc, warns := parse(t, "[subs=\"+attributes,bogus\"]\n----\n{x}\n----", nil)

	b := block(t, doc.Blocks[0])
	assert.True(t, model.HasSub(b.Subs, model.SubAttributes))
	assert.Equal(t, []string{"invalid substitution type: bogus"}, messages(warns))
}

// ============================================================================
// Lists
// ============================================================================

func TestListContinuation(t *testing.T) {
	doc, warns := parse(t, "* first\n+\nattached paragraph\n+\n* second", nil)

	require.Len(t, doc.Blocks, 1)
	list, ok := doc.Blocks[0].(*model.List)
	require.True(t, ok)
	items := list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Text)
	require.Len(t, items[0].Blocks, 1)
	assert.Equal(t, []string{"attached paragraph"}, block(t, items[0].Blocks[0]).Lines)
	assert.Equal(t, "second", items[1].Text)
	assert.Empty(t, items[1].Blocks)
	assert.Empty(t, warns.Warnings())
}

func TestRepeatedListContinuation(t *testing.T) {
	doc, warns := parse(t, "* a\n+\n+\npara", nil)

	require.Len(t, doc.Blocks, 1)
	list, ok := doc.Blocks[0].(*model.List)
	require.True(t, ok)
	items := list.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Text)
	require.Len(t, items[0].Blocks, 1)
	assert.Equal(t, []string{"para"}, block(t, items[0].Blocks[0]).Lines)
	assert.Empty(t, warns.Warnings())
}

func TestNestedUnorderedList(t *testing.T) {
	doc, _ := parse(t, "* Foo\n** Boo\n* Blech", nil)

	list := doc.Blocks[0].(*model.List)
	items := list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Foo", items[0].Text)
	require.Len(t, items[0].Blocks, 1)
	nested, ok := items[0].Blocks[0].(*model.List)
	require.True(t, ok)
	require.Len(t, nested.Items(), 1)
	assert.Equal(t, "Boo", nested.Items()[0].Text)
	assert.Equal(t, 2, nested.Items()[0].Depth)
	assert.Equal(t, "Blech", items[1].Text)
}

func TestListItemTextFolding(t *testing.T) {
	doc, _ := parse(t, ". one\n  wrapped\n. two", nil)

	list := doc.Blocks[0].(*model.List)
	assert.Equal(t, model.ContextOList, list.Context())
	assert.Equal(t, "arabic", list.Style)
	items := list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "one\nwrapped", items[0].Text)
	assert.Empty(t, items[0].Blocks)
}

func TestOrderedListStart(t *testing.T) {
	doc, _ := parse(t, "3. three\n4. four", nil)

	list := doc.Blocks[0].(*model.List)
	assert.Equal(t, "3", list.Attributes.Value("start"))
	assert.Equal(t, 2, list.Len())
}

func TestChecklist(t *testing.T) {
	doc, _ := parse(t, "* [x] done\n* [ ] todo", nil)

	list := doc.Blocks[0].(*model.List)
	assert.True(t, list.HasOption("checklist"))
	items := list.Items()
	assert.True(t, items[0].Attributes.Has("checked"))
	assert.False(t, items[1].Attributes.Has("checked"))
	assert.Equal(t, "todo", items[1].Text)
}

func TestDescriptionList(t *testing.T) {
	doc, _ := parse(t, "term1:: def1\nterm2:: def2", nil)

	require.Len(t, doc.Blocks, 1)
	list := doc.Blocks[0].(*model.List)
	assert.Equal(t, model.ContextDList, list.Context())
	require.Len(t, list.Entries, 2)

	var got [][2]string
	for _, e := range list.Entries {
		require.Len(t, e.Terms, 1)
		require.NotNil(t, e.Description)
		got = append(got, [2]string{e.Terms[0].Text, e.Description.Text})
	}
	want := [][2]string{{"term1", "def1"}, {"term2", "def2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptionListSharedTerms(t *testing.T) {
	doc, _ := parse(t, "alpha::\nbeta::\n  Greek letters.", nil)

	list := doc.Blocks[0].(*model.List)
	require.Len(t, list.Entries, 1)
	assert.Len(t, list.Entries[0].Terms, 2)
	require.NotNil(t, list.Entries[0].Description)
	assert.Equal(t, "Greek letters.", list.Entries[0].Description.Text)
}

func TestCalloutList(t *testing.T) {
	doc, warns := parse(t, "----\nrun <1>\nstop <2>\n----\n<1> Runs.\n<2> Stops.\n<3> Nothing.", nil)

	require.Len(t, doc.Blocks, 2)
	colist := doc.Blocks[1].(*model.List)
	items := colist.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "CO1-1", items[0].Attributes.Value("coids"))
	assert.Equal(t, "CO1-2", items[1].Attributes.Value("coids"))
	assert.Equal(t, []string{"no callout found for <3>"}, messages(warns))
}

// ============================================================================
// Tables
// ============================================================================

func TestTableEscapedSeparator(t *testing.T) {
	doc, warns := parse(t, "|===\nA \\| here| a \\| there\n|===", nil)

	require.Len(t, doc.Blocks, 1)
	table := doc.Blocks[0].(*model.Table)
	require.Equal(t, 1, table.RowCount())
	require.Equal(t, 2, table.ColCount())
	assert.Equal(t, "A | here", table.GetCell(0, 0).Source)
	assert.Equal(t, "a | there", table.GetCell(0, 1).Source)
	assert.Equal(t, []string{"table missing leading separator; recovering automatically"}, messages(warns))
}

func TestTableHeaderAndSpans(t *testing.T) {
	src := strings.Join([]string{
		".Results",
		"|===",
		"|Name |Score",
		"",
		"2+^|merged",
		"|a |b",
		"|===",
	}, "\n")
	doc, warns := parse(t, src, nil)

	table := doc.Blocks[0].(*model.Table)
	assert.Empty(t, warns.Warnings())
	assert.Equal(t, "Table 1. ", table.Caption)
	require.Len(t, table.Rows.Head, 1)
	require.Len(t, table.Rows.Body, 2)
	merged := table.Rows.Body[0][0]
	assert.Equal(t, "merged", merged.Source)
	assert.Equal(t, 2, merged.ColSpan)
	assert.Equal(t, "center", merged.HAlign)
	assert.Equal(t, "b", table.Rows.Body[1][1].Source)
}

func TestTableColumnsAndStyles(t *testing.T) {
	src := "[cols=\"1,2a\"]\n|===\n|plain |* item\n|===\n"
	doc, _ := parse(t, src, nil)

	table := doc.Blocks[0].(*model.Table)
	require.Equal(t, 2, table.ColCount())
	assert.Equal(t, 2, table.Columns[1].Width)
	cell := table.GetCell(0, 1)
	assert.Equal(t, model.CellStyleAsciiDoc, cell.Style)
	require.NotNil(t, cell.Inner)
	require.Len(t, cell.Inner.Blocks, 1)
	_, isList := cell.Inner.Blocks[0].(*model.List)
	assert.True(t, isList)
}

func TestCSVTable(t *testing.T) {
	doc, _ := parse(t, ",===\na,\"b, c\"\nd,e\n,===", nil)

	table := doc.Blocks[0].(*model.Table)
	assert.Equal(t, "csv", table.Format)
	require.Equal(t, 2, table.RowCount())
	assert.Equal(t, "b, c", table.GetCell(0, 1).Source)
}

func TestIncompleteTableRow(t *testing.T) {
	doc, warns := parse(t, "[cols=2]\n|===\n|a |b\n|c\n|===", nil)

	table := doc.Blocks[0].(*model.Table)
	assert.Equal(t, 1, table.RowCount())
	assert.Equal(t, []string{"dropping cells from incomplete row detected end of table"}, messages(warns))
}

// ============================================================================
// Sections and Header
// ============================================================================

func TestUnderlinedSections(t *testing.T) {
	src := strings.Join([]string{
		"Document",
		"========",
		"",
		"Intro.",
		"",
		"First",
		"-----",
		"",
		"Nested",
		"~~~~~~",
		"",
		"text",
		"",
		"Second",
		"------",
		"",
		"more",
	}, "\n")
	doc, warns := parse(t, src, nil)

	assert.Empty(t, warns.Warnings())
	assert.Equal(t, "Document", doc.Header.Title)
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, model.ContextPreamble, doc.Blocks[0].Base().Context())

	first := doc.Blocks[1].(*model.Section)
	assert.Equal(t, 1, first.Level)
	assert.Equal(t, "_first", first.ID)
	require.Len(t, first.Sections(), 1)
	nested := first.Sections()[0]
	assert.Equal(t, 2, nested.Level)
	assert.Equal(t, []string{"text"}, block(t, nested.Blocks[0]).Lines)

	second := doc.Blocks[2].(*model.Section)
	assert.Equal(t, "Second", second.Title)
	assert.Equal(t, 1, second.Level)
}

func TestSectionOutOfSequence(t *testing.T) {
	doc, warns := parse(t, "== One\n\n==== Deep", nil)

	one := doc.Blocks[0].(*model.Section)
	require.Len(t, one.Sections(), 1)
	assert.Equal(t, []string{"section title out of sequence: expected level 2, got level 3"}, messages(warns))
}

func TestSectionIDs(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		attrs map[string]string
		want  []string
	}{
		{"default", "== Getting Started\n\n== Getting Started", nil, []string{"_getting_started", "_getting_started_2"}},
		{"prefix and separator", "== A Title", map[string]string{"idprefix": "", "idseparator": "-"}, []string{"a-title"}},
		{"explicit", "[#custom]\n== Named", nil, []string{"custom"}},
		{"inline anchor", "== Named [[anchor,Label]]", nil, []string{"anchor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := parse(t, tt.src, tt.attrs)
			var got []string
			for _, s := range doc.Sections() {
				got = append(got, s.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionNumbering(t *testing.T) {
	src := "= Book\n:sectnums:\n\n== One\n\n=== One A\n\n== Two\n\n[appendix]\n== Extra"
	doc, _ := parse(t, src, nil)

	var secs []*model.Section
	for _, s := range doc.Sections() {
		if s.Level == 1 {
			secs = append(secs, s)
		}
	}
	require.Len(t, secs, 3)
	assert.Equal(t, "1", secs[0].Numeral)
	assert.Equal(t, "1.1", secs[0].Sections()[0].Numeral)
	assert.Equal(t, "2", secs[1].Numeral)
	assert.Equal(t, "A", secs[2].Numeral)
	assert.Equal(t, "appendix", secs[2].Name)
}

func TestDocumentHeader(t *testing.T) {
	src := strings.Join([]string{
		"= The Document",
		"Doc Writer <doc@example.com>; Jane_Ann Smith",
		"v1.2, 2024-05-01: Revised",
		":toc:",
		"",
		"Preamble text.",
		"",
		"== First Section",
		"",
		"Body.",
	}, "\n")
	doc, warns := parse(t, src, nil)

	assert.Empty(t, warns.Warnings())
	assert.True(t, doc.HasHeader)
	assert.Equal(t, "The Document", doc.Attrs.Value("doctitle"))
	require.Len(t, doc.Header.Authors, 2)
	want := model.Author{Name: "Doc Writer", FirstName: "Doc", LastName: "Writer", Initials: "DW", Email: "doc@example.com"}
	if diff := cmp.Diff(want, doc.Header.Authors[0]); diff != "" {
		t.Errorf("author mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Jane Ann", doc.Header.Authors[1].FirstName)
	assert.Equal(t, "2", doc.Attrs.Value("authorcount"))
	assert.Equal(t, model.Revision{Number: "1.2", Date: "2024-05-01", Remark: "Revised"}, doc.Header.Revision)
	assert.True(t, doc.Attrs.Has("toc"))

	require.Len(t, doc.Blocks, 2)
	preamble := block(t, doc.Blocks[0])
	assert.Equal(t, model.ContextPreamble, preamble.Context())
	require.Len(t, preamble.Blocks, 1)
	sec := doc.Blocks[1].(*model.Section)
	assert.Equal(t, "_first_section", sec.ID)
}

func TestNoSectionsUnwrapsPreamble(t *testing.T) {
	doc, _ := parse(t, "= Title\n\nJust text.", nil)

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, model.ContextParagraph, doc.Blocks[0].Base().Context())
}

func TestHeaderOnly(t *testing.T) {
	doc := model.NewDocument()
	warns := diag.NewCollector(nil)
	r := reader.NewPreprocessor(doc, []string{"= Title", ":foo: bar", "", "body"}, model.Cursor{}, warns)
	require.NoError(t, New(doc, warns, WithHeaderOnly()).Parse(r))

	assert.Equal(t, "Title", doc.Header.Title)
	assert.Equal(t, "bar", doc.Attrs.Value("foo"))
	assert.Empty(t, doc.Blocks)
}

func TestFrontMatter(t *testing.T) {
	doc, _ := parse(t, "---\ntitle: Front\ntags: [a, b]\n---\n= Real Title", map[string]string{"skip-front-matter": ""})

	assert.Equal(t, "Front", doc.FrontMatter["title"])
	assert.Equal(t, "Real Title", doc.Header.Title)
}

func TestDiscreteHeading(t *testing.T) {
	doc, _ := parse(t, "[discrete]\n== Not a Section\n\ntext", nil)

	require.Len(t, doc.Blocks, 2)
	b := block(t, doc.Blocks[0])
	assert.Equal(t, model.ContextFloatingTitle, b.Context())
	assert.Equal(t, "Not a Section", b.Title)
	assert.Equal(t, "1", b.Attributes.Value("level"))
	assert.Empty(t, doc.Sections())
}

// ============================================================================
// References
// ============================================================================

func TestForwardReference(t *testing.T) {
	doc, warns := parse(t, "See <<later>>.\n\n[[later]]\n== Later\n\nText.", nil)
	subs.New(doc, warns).ApplyDocument()

	para := block(t, doc.Blocks[0])
	assert.Equal(t, "See Later.", para.Content)
}

func TestInlineAnchorPrescan(t *testing.T) {
	doc, _ := parse(t, "Go to <<spot>>.\n\nHere [[spot,The Spot]] it is.", nil)
	subs.New(doc, diag.NewCollector(nil)).ApplyDocument()

	assert.Equal(t, "Go to The Spot.", block(t, doc.Blocks[0]).Content)
}
