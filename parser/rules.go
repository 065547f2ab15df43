package parser

import (
	"regexp"
	"strings"

	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
)

var (
	blockAnchorRx   = regexp.MustCompile(`^\[\[([\p{L}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+))?\]\]$`)
	blockTitleRx    = regexp.MustCompile(`^\.(\.?[^ \t.].*)$`)
	blockAttrListRx = regexp.MustCompile(`^\[(|[\p{L}\p{N}_.#%{,"'].*)\]$`)
	admonitionRx    = regexp.MustCompile(`^(NOTE|TIP|IMPORTANT|WARNING|CAUTION):[ \t]+(.*)$`)
	blockMacroRx    = regexp.MustCompile(`^(image|video|audio|toc)::(\S|\S.*?\S)?\[(.*)\]$`)
	layoutBreakRx   = regexp.MustCompile(`^(?:'{3,}|<{3,}|---|\*\*\*|___|- - -|\* \* \*|_ _ _)$`)
)

// fenceKind identifies the block a delimiter line opens.
type fenceKind int

const (
	fenceNone fenceKind = iota
	fenceOpen
	fenceListing
	fenceLiteral
	fenceExample
	fenceSidebar
	fenceQuote
	fencePass
	fenceComment
	fenceSource
	fenceTable
)

func (k fenceKind) String() string {
	switch k {
	case fenceOpen:
		return "open"
	case fenceListing, fenceSource:
		return "listing"
	case fenceLiteral:
		return "literal"
	case fenceExample:
		return "example"
	case fenceSidebar:
		return "sidebar"
	case fenceQuote:
		return "quote"
	case fencePass:
		return "pass"
	case fenceComment:
		return "comment"
	case fenceTable:
		return "table"
	default:
		return "none"
	}
}

var fenceTips = map[string]fenceKind{
	"----": fenceListing,
	"....": fenceLiteral,
	"====": fenceExample,
	"****": fenceSidebar,
	"____": fenceQuote,
	"++++": fencePass,
	"////": fenceComment,
	"|===": fenceTable,
	",===": fenceTable,
	":===": fenceTable,
	"!===": fenceTable,
}

// fence is an opened delimiter. The block closes at a line equal to close.
type fence struct {
	kind  fenceKind
	close string
	// lang is the language following a ``` fence.
	lang string
}

// parseFence recognizes a delimiter line. Delimiters other than "--" and
// "```" may be extended by repeating their last character.
func parseFence(line string) (fence, bool) {
	switch {
	case line == "--":
		return fence{kind: fenceOpen, close: line}, true
	case strings.HasPrefix(line, "```"):
		if len(line) > 3 && line[3] == '`' {
			return fence{}, false
		}
		return fence{kind: fenceSource, close: "```", lang: strings.TrimSpace(line[3:])}, true
	case len(line) < 4:
		return fence{}, false
	}
	kind, ok := fenceTips[line[:4]]
	if !ok || strings.Trim(line[4:], line[3:4]) != "" {
		return fence{}, false
	}
	return fence{kind: kind, close: line}, true
}

func isCommentFence(line string) bool {
	f, ok := parseFence(line)
	return ok && f.kind == fenceComment
}

// startsBlock reports whether line interrupts a paragraph.
func startsBlock(line string) bool {
	if _, ok := parseFence(line); ok {
		return true
	}
	return strings.HasPrefix(line, "[") && blockAttrListRx.MatchString(line)
}

// blockState is the dispatch state for the next line.
type blockState struct {
	r      *reader.Reader
	parent model.Node
	attrs  model.Attributes
	line   string
	cursor model.Cursor
	// textOnly restricts dispatch to metadata, lists and paragraphs. It is
	// set for the text adjacent to a list marker.
	textOnly bool
	// inList is set when the parent is a list item and no blank line
	// precedes the block, so a list marker ends a paragraph.
	inList bool
	fence  fence
	match  []string
}

func (st *blockState) style() string { return st.attrs.Value("style") }

// clearAttrs drops collected metadata; used by blocks that are skipped.
func (st *blockState) clearAttrs() {
	for k := range st.attrs {
		delete(st.attrs, k)
	}
}

// blockRule is one entry of the dispatch table. Metadata rules consume
// their line into the collected attributes and dispatch starts over.
type blockRule struct {
	name     string
	metadata bool
	textOnly bool
	match    func(st *blockState) bool
	build    func(p *Parser, st *blockState) (model.Node, error)
}

var blockRules []blockRule

func init() {
	blockRules = []blockRule{
		{name: "anchor", metadata: true, textOnly: true, match: matchAnchor, build: (*Parser).readAnchor},
		{name: "title", metadata: true, textOnly: true, match: matchTitle, build: (*Parser).readTitle},
		{name: "attributes", metadata: true, textOnly: true, match: matchAttributeLine, build: (*Parser).readAttributeLine},
		{name: "entry", metadata: true, textOnly: true, match: matchEntry, build: (*Parser).readEntry},
		{name: "comment", metadata: true, textOnly: true, match: matchComment, build: (*Parser).skipComment},
		{name: "delimited", match: matchDelimited, build: (*Parser).buildDelimited},
		{name: "table", match: matchTable, build: (*Parser).buildTable},
		{name: "break", match: matchBreak, build: (*Parser).buildBreak},
		{name: "colist", textOnly: true, match: matchColist, build: (*Parser).buildList},
		{name: "ulist", textOnly: true, match: matchUList, build: (*Parser).buildList},
		{name: "olist", textOnly: true, match: matchOList, build: (*Parser).buildList},
		{name: "dlist", textOnly: true, match: matchDList, build: (*Parser).buildDList},
		{name: "block macro", match: matchBlockMacro, build: (*Parser).buildBlockMacro},
		{name: "floating title", match: matchFloatingTitle, build: (*Parser).buildFloatingTitle},
		{name: "admonition", match: matchAdmonition, build: (*Parser).buildAdmonitionParagraph},
		{name: "literal", match: matchLiteral, build: (*Parser).buildLiteralParagraph},
		{name: "paragraph", textOnly: true, match: func(*blockState) bool { return true }, build: (*Parser).buildParagraph},
	}
}

// dispatch returns the first rule that matches st.
func dispatch(st *blockState) *blockRule {
	for i := range blockRules {
		rule := &blockRules[i]
		if st.textOnly && !rule.textOnly {
			continue
		}
		if rule.match(st) {
			return rule
		}
	}
	return nil
}

// nextBlock reads metadata lines into attrs and builds the block that
// follows them. Skipped blocks such as comments yield nil.
func (p *Parser) nextBlock(r *reader.Reader, parent model.Node, attrs model.Attributes, textOnly bool) (model.Node, error) {
	if attrs == nil {
		attrs = model.Attributes{}
	}
	_, inItem := parent.(*model.ListItem)
	skipped := r.SkipBlankLines()
	for {
		if err := r.Err(); err != nil {
			return nil, err
		}
		line, ok := r.PeekLine()
		if !ok {
			return nil, r.Err()
		}
		if line == "" {
			skipped += r.SkipBlankLines()
			continue
		}
		st := &blockState{
			r:        r,
			parent:   parent,
			attrs:    attrs,
			line:     line,
			cursor:   r.Cursor(),
			textOnly: textOnly,
			inList:   inItem && skipped == 0,
		}
		rule := dispatch(st)
		node, err := rule.build(p, st)
		if err != nil {
			return nil, err
		}
		if rule.metadata {
			continue
		}
		if node != nil {
			p.finish(node, st)
		}
		return node, r.Err()
	}
}

// readMetadata consumes blank lines and metadata lines into attrs. It
// returns the anchor, title and attribute lines it read so they can be
// pushed back.
func (p *Parser) readMetadata(r *reader.Reader, parent model.Node, attrs model.Attributes) ([]string, error) {
	var kept []string
	for {
		r.SkipBlankLines()
		line, ok := r.PeekLine()
		if !ok {
			return kept, r.Err()
		}
		st := &blockState{r: r, parent: parent, attrs: attrs, line: line, cursor: r.Cursor()}
		rule := dispatch(st)
		if !rule.metadata {
			return kept, nil
		}
		if _, err := rule.build(p, st); err != nil {
			return kept, err
		}
		switch rule.name {
		case "anchor", "title", "attributes":
			kept = append(kept, line)
		}
	}
}

func matchAnchor(st *blockState) bool {
	return strings.HasPrefix(st.line, "[[") && blockAnchorRx.MatchString(st.line)
}

func matchTitle(st *blockState) bool {
	return strings.HasPrefix(st.line, ".") && blockTitleRx.MatchString(st.line)
}

func matchAttributeLine(st *blockState) bool {
	return strings.HasPrefix(st.line, "[") && blockAttrListRx.MatchString(st.line)
}

func matchEntry(st *blockState) bool {
	return reader.IsAttributeEntry(st.line)
}

func matchComment(st *blockState) bool {
	if !strings.HasPrefix(st.line, "//") {
		return false
	}
	return !strings.HasPrefix(st.line, "///") || isCommentFence(st.line)
}

func matchDelimited(st *blockState) bool {
	f, ok := parseFence(st.line)
	if !ok || f.kind == fenceTable || f.kind == fenceComment {
		return false
	}
	st.fence = f
	return true
}

func matchTable(st *blockState) bool {
	f, ok := parseFence(st.line)
	if !ok || f.kind != fenceTable {
		return false
	}
	st.fence = f
	return true
}

func matchBreak(st *blockState) bool {
	return layoutBreakRx.MatchString(st.line)
}

func matchBlockMacro(st *blockState) bool {
	if !strings.Contains(st.line, "::") {
		return false
	}
	m := blockMacroRx.FindStringSubmatch(st.line)
	if m == nil || (m[1] != "toc" && m[2] == "") {
		return false
	}
	st.match = m
	return true
}

func matchFloatingTitle(st *blockState) bool {
	if style := st.style(); style != "discrete" && style != "float" {
		return false
	}
	next := ""
	if lines := st.r.PeekLines(2, false); len(lines) > 1 {
		next = lines[1]
	}
	_, ok := parseHeading(st.line, next)
	return ok
}

func matchAdmonition(st *blockState) bool {
	if !strings.Contains(st.line, ":") {
		return false
	}
	m := admonitionRx.FindStringSubmatch(st.line)
	if m == nil {
		return false
	}
	st.match = m
	return true
}

func matchLiteral(st *blockState) bool {
	return st.line[0] == ' ' || st.line[0] == '\t'
}

func (p *Parser) readAnchor(st *blockState) (model.Node, error) {
	m := blockAnchorRx.FindStringSubmatch(st.line)
	st.r.Advance()
	st.attrs.Set("id", m[1])
	if m[2] != "" {
		st.attrs.Set("reftext", m[2])
	}
	return nil, nil
}

func (p *Parser) readTitle(st *blockState) (model.Node, error) {
	st.r.Advance()
	st.attrs.Set("title", st.line[1:])
	return nil, nil
}

func (p *Parser) readEntry(st *blockState) (model.Node, error) {
	if _, ok := st.r.ProcessAttributeEntry(p.doc, p.subs.ApplyHeader); !ok {
		st.r.Advance()
	}
	return nil, nil
}

func (p *Parser) skipComment(st *blockState) (model.Node, error) {
	if isCommentFence(st.line) {
		cur := st.cursor
		st.r.ReadLinesUntil(reader.UntilOptions{
			Terminator:     st.line,
			SkipFirstLine:  true,
			SkipProcessing: true,
			Context:        "comment",
			Cursor:         &cur,
		}, nil)
		return nil, nil
	}
	st.r.Advance()
	return nil, nil
}
