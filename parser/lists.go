package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
)

var (
	ulistRx    = regexp.MustCompile(`^[ \t]*(-|\*{1,5}|\x{2022}{1,5})[ \t]+(.*)$`)
	olistRx    = regexp.MustCompile(`^[ \t]*(\.{1,5}|\d+\.|[a-zA-Z]\.|[IVXivx]+\))[ \t]+(.*)$`)
	dlistRx    = regexp.MustCompile(`^[ \t]*([^ \t].*?)(:::{0,2}|;;)(?:$|[ \t]+(.*)$)`)
	colistRx   = regexp.MustCompile(`^<(\d+|\.)>[ \t]+(.*)$`)
	checkboxRx = regexp.MustCompile(`^\[([ x*])\][ \t]+(.*)$`)
	arabicRx   = regexp.MustCompile(`^\d+\.$`)
	alphaRx    = regexp.MustCompile(`^[a-zA-Z]\.$`)
	romanRx    = regexp.MustCompile(`^[IVXivx]+\)$`)
)

// orderedStyles is the numbering style of each depth of a dotted list.
var orderedStyles = []string{"arabic", "loweralpha", "lowerroman", "upperalpha", "upperroman"}

const listContinuation = "+"

func matchUList(st *blockState) bool  { return matchListRx(ulistRx, st) }
func matchOList(st *blockState) bool  { return matchListRx(olistRx, st) }
func matchColist(st *blockState) bool { return st.line[0] == '<' && matchListRx(colistRx, st) }

func matchDList(st *blockState) bool {
	if strings.HasPrefix(st.line, "//") {
		return false
	}
	return matchListRx(dlistRx, st)
}

func matchListRx(rx *regexp.Regexp, st *blockState) bool {
	m := rx.FindStringSubmatch(st.line)
	if m == nil {
		return false
	}
	st.match = m
	return true
}

// isListLine reports whether line starts an item of any list.
func isListLine(line string) bool {
	if ulistRx.MatchString(line) || olistRx.MatchString(line) || colistRx.MatchString(line) {
		return true
	}
	return !strings.HasPrefix(line, "//") && dlistRx.MatchString(line)
}

// listTrait is what a line must share with the first item of a list to
// be a sibling item.
type listTrait struct {
	ctx model.Context
	// marker is the exact ulist marker, the olist dot run or the dlist
	// delimiter.
	marker string
	// style is the numbering style of an olist with explicit numbers.
	style string
}

func orderedTrait(marker string) listTrait {
	t := listTrait{ctx: model.ContextOList}
	switch {
	case marker[0] == '.':
		t.marker = marker
	case arabicRx.MatchString(marker):
		t.style = "arabic"
	case alphaRx.MatchString(marker):
		if marker[0] >= 'a' {
			t.style = "loweralpha"
		} else {
			t.style = "upperalpha"
		}
	case romanRx.MatchString(marker):
		if marker[0] >= 'a' {
			t.style = "lowerroman"
		} else {
			t.style = "upperroman"
		}
	}
	return t
}

func (t listTrait) sibling(line string) bool {
	switch t.ctx {
	case model.ContextUList:
		m := ulistRx.FindStringSubmatch(line)
		return m != nil && m[1] == t.marker
	case model.ContextOList:
		m := olistRx.FindStringSubmatch(line)
		return m != nil && orderedTrait(m[1]) == t
	case model.ContextColist:
		return colistRx.MatchString(line)
	case model.ContextDList:
		if strings.HasPrefix(line, "//") {
			return false
		}
		m := dlistRx.FindStringSubmatch(line)
		return m != nil && m[2] == t.marker
	}
	return false
}

// nestedList reports the kind of list line would start inside an item.
// Inside a nested list only a description list can begin.
func nestedList(line string, withinNested bool) (model.Context, []string) {
	if !withinNested {
		if m := ulistRx.FindStringSubmatch(line); m != nil {
			return model.ContextUList, m
		}
		if m := olistRx.FindStringSubmatch(line); m != nil {
			return model.ContextOList, m
		}
	}
	if !strings.HasPrefix(line, "//") {
		if m := dlistRx.FindStringSubmatch(line); m != nil {
			return model.ContextDList, m
		}
	}
	return model.ContextUnknown, nil
}

func markerDepth(ctx model.Context, marker string) int {
	switch ctx {
	case model.ContextUList:
		if marker == "-" {
			return 1
		}
		return utf8.RuneCountInString(marker)
	case model.ContextOList:
		if marker[0] == '.' {
			return len(marker)
		}
	}
	return 1
}

// buildList reads an unordered, ordered or callout list.
func (p *Parser) buildList(st *blockState) (model.Node, error) {
	r := st.r
	marker := st.match[1]
	var trait listTrait
	switch {
	case st.line[0] == '<' && colistRx.MatchString(st.line):
		trait = listTrait{ctx: model.ContextColist}
	case ulistRx.MatchString(st.line):
		trait = listTrait{ctx: model.ContextUList, marker: marker}
	default:
		trait = orderedTrait(marker)
	}
	list := model.NewList(trait.ctx)
	if trait.ctx == model.ContextOList {
		p.orderedStyle(list, trait, st.attrs, marker)
	}
	bibliography := st.style() == "bibliography" || isBibliographySection(st.parent)

	for {
		line, ok := r.PeekLine()
		if !ok || !trait.sibling(line) {
			break
		}
		item, err := p.parseListItem(r, list, trait, line)
		if err != nil {
			return nil, err
		}
		if bibliography {
			p.catalogBiblioAnchor(item.Text, item.Cursor)
		}
		list.AddItem(item)
		r.SkipBlankLines()
		if !r.HasMoreLines() {
			break
		}
	}
	if trait.ctx == model.ContextColist {
		p.linkCallouts(list)
	}
	return list, r.Err()
}

func isBibliographySection(n model.Node) bool {
	for n != nil {
		if sec, ok := n.(*model.Section); ok {
			return sec.Name == "bibliography"
		}
		n = n.Base().Parent()
	}
	return false
}

// orderedStyle sets the numbering style and start of an ordered list.
func (p *Parser) orderedStyle(list *model.List, trait listTrait, attrs model.Attributes, marker string) {
	if attrs.Value("style") != "" {
		return
	}
	if trait.style == "" {
		depth := markerDepth(model.ContextOList, marker)
		list.Style = orderedStyles[(depth-1)%len(orderedStyles)]
		return
	}
	list.Style = trait.style
	start := 0
	switch trait.style {
	case "arabic":
		start, _ = strconv.Atoi(strings.TrimSuffix(marker, "."))
	case "loweralpha":
		start = int(marker[0]-'a') + 1
	case "upperalpha":
		start = int(marker[0]-'A') + 1
	}
	if start > 1 {
		list.Attributes.Set("start", strconv.Itoa(start))
	}
}

// parseListItem reads the item at line and the lines attached to it.
func (p *Parser) parseListItem(r *reader.Reader, list *model.List, trait listTrait, line string) (*model.ListItem, error) {
	var m []string
	switch trait.ctx {
	case model.ContextUList:
		m = ulistRx.FindStringSubmatch(line)
	case model.ContextOList:
		m = olistRx.FindStringSubmatch(line)
	default:
		m = colistRx.FindStringSubmatch(line)
	}
	cursor := r.Cursor()
	r.Advance()

	item := model.NewListItem(m[2])
	item.Marker = m[1]
	item.Depth = markerDepth(trait.ctx, m[1])
	item.Cursor = p.cursor(cursor)
	switch trait.ctx {
	case model.ContextUList:
		if cm := checkboxRx.FindStringSubmatch(item.Text); cm != nil {
			item.Attributes.Set("checkbox", "")
			if cm[1] != " " {
				item.Attributes.Set("checked", "")
			}
			item.Text = cm[2]
			list.Attributes.SetOption("checklist")
		}
	case model.ContextColist:
		ordinal := len(list.Items()) + 1
		if m[1] != "." {
			n, _ := strconv.Atoi(m[1])
			if n != ordinal {
				p.warn(diag.MalformedSyntax, cursor, "callout list item index: expected %d, got %d", ordinal, n)
			}
			ordinal = n
		}
		item.Attributes.Set("ordinal", strconv.Itoa(ordinal))
	}

	lines := p.readListItemLines(r, trait, item.HasText())
	if err := p.parseItemBlocks(item, lines, cursor.Advance(1), r.Warnings()); err != nil {
		return nil, err
	}
	p.catalogInlineAnchors(item.Text, cursor)
	return item, nil
}

// linkCallouts points each callout list item at the markers registered
// for its ordinal and starts a new callout list.
func (p *Parser) linkCallouts(list *model.List) {
	for _, item := range list.Items() {
		ordinal, _ := strconv.Atoi(item.Attributes.Value("ordinal"))
		ids := p.doc.Callouts.IDs(ordinal)
		if ids == "" {
			p.warn(diag.MalformedSyntax, item.Cursor, "no callout found for <%d>", ordinal)
			continue
		}
		item.Attributes.Set("coids", ids)
	}
	p.doc.Callouts.NextList()
}

// parseItemBlocks parses the attached lines of an item. A paragraph that
// directly follows the marker line is folded into the item text.
func (p *Parser) parseItemBlocks(item *model.ListItem, lines []string, cursor model.Cursor, warns *diag.Collector) error {
	if len(lines) == 0 {
		return nil
	}
	sub := reader.New(lines, cursor, warns)
	adjacent := lines[0] != ""
	if adjacent {
		block, err := p.nextBlock(sub, item, nil, true)
		if err != nil {
			return err
		}
		if block != nil {
			item.Append(block)
		}
	}
	if err := p.parseBlocks(sub, item); err != nil {
		return err
	}
	if adjacent {
		item.FoldFirst()
	}
	return nil
}

// buildDList reads a description list. Consecutive terms without a
// description share the next one.
func (p *Parser) buildDList(st *blockState) (model.Node, error) {
	r := st.r
	trait := listTrait{ctx: model.ContextDList, marker: st.match[2]}
	list := model.NewList(model.ContextDList)
	var terms []*model.ListItem
	for {
		line, ok := r.PeekLine()
		if !ok || !trait.sibling(line) {
			break
		}
		term, desc, err := p.parseDListItem(r, trait, line)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		if desc != nil {
			list.AddEntry(&model.DListEntry{Terms: terms, Description: desc})
			terms = nil
		}
		r.SkipBlankLines()
		if !r.HasMoreLines() {
			break
		}
	}
	if len(terms) > 0 {
		list.AddEntry(&model.DListEntry{Terms: terms})
	}
	return list, r.Err()
}

func (p *Parser) parseDListItem(r *reader.Reader, trait listTrait, line string) (*model.ListItem, *model.ListItem, error) {
	m := dlistRx.FindStringSubmatch(line)
	cursor := r.Cursor()
	r.Advance()

	term := model.NewListItem(m[1])
	term.Marker = m[2]
	term.Cursor = p.cursor(cursor)
	term.Depth = len(m[2]) - 1
	desc := model.NewListItem(m[3])
	desc.Marker = m[2]
	desc.Cursor = term.Cursor
	desc.Depth = term.Depth

	lines := p.readListItemLines(r, trait, desc.HasText())
	if err := p.parseItemBlocks(desc, lines, cursor.Advance(1), r.Warnings()); err != nil {
		return nil, nil, err
	}
	p.catalogInlineAnchors(term.Text, cursor)
	p.catalogInlineAnchors(desc.Text, cursor)
	if !desc.HasText() && len(desc.Blocks) == 0 {
		desc = nil
	}
	return term, desc, nil
}

type continuationState int

const (
	continuationInactive continuationState = iota
	continuationActive
)

// readListItemLines collects the lines that belong to the current item:
// text adjacent to the marker, blocks attached with "+", nested lists and
// indented literal paragraphs. It stops at a sibling item or at a line
// that is separated from the item by a blank line and does not belong to
// it. The line that ended the item is left on the reader.
func (p *Parser) readListItemLines(r *reader.Reader, trait listTrait, hasText bool) []string {
	var buf []string
	continuation := continuationInactive
	withinNested := false
	detached := -1
	dlist := trait.ctx == model.ContextDList

	var line string
	pending := false
	for {
		next, ok := r.ReadLine()
		if !ok {
			pending = false
			break
		}
		line, pending = next, true
		if trait.sibling(line) {
			break
		}
		prev, hasPrev := "", len(buf) > 0
		if hasPrev {
			prev = buf[len(buf)-1]
		}

		if hasPrev && prev == listContinuation {
			if continuation == continuationInactive {
				continuation = continuationActive
				hasText = true
				if !withinNested {
					buf[len(buf)-1] = ""
				}
			}
			// Repeated markers collapse into the first.
			if line == listContinuation {
				pending = false
				continue
			}
		}

		if f, ok := parseFence(line); ok {
			if continuation != continuationActive {
				break
			}
			buf = append(buf, line)
			buf = append(buf, r.ReadLinesUntil(reader.UntilOptions{
				Terminator:   f.close,
				ReadLastLine: true,
				Context:      f.kind.String(),
			}, nil)...)
			continuation = continuationInactive
		} else if dlist && continuation != continuationActive && strings.HasPrefix(line, "[") && blockAttrListRx.MatchString(line) {
			attrLines := []string{line}
			interrupt := false
			for {
				peek, ok := r.PeekLine()
				if !ok {
					interrupt = true
					break
				}
				if _, fenced := parseFence(peek); fenced {
					interrupt = true
				} else if peek == "" || (strings.HasPrefix(peek, "[") && blockAttrListRx.MatchString(peek)) {
					r.Advance()
					attrLines = append(attrLines, peek)
					continue
				} else if isListLine(peek) && !trait.sibling(peek) {
					buf = append(buf, attrLines...)
				} else {
					interrupt = true
				}
				break
			}
			if interrupt {
				pending = false
				r.UnshiftLines(attrLines)
				break
			}
		} else if continuation == continuationActive && line != "" {
			switch {
			case isLiteralLine(line):
				r.Unshift(line)
				buf = append(buf, p.readIndented(r, trait)...)
				continuation = continuationInactive
			case isMetadataLine(line):
				buf = append(buf, line)
			default:
				if ctx, m := nestedList(line, withinNested); ctx != model.ContextUnknown {
					withinNested = true
					if ctx == model.ContextDList && m[3] == "" {
						hasText = false
					}
				}
				buf = append(buf, line)
				continuation = continuationInactive
			}
		} else if hasPrev && prev == "" {
			if line == "" {
				r.SkipBlankLines()
				next, ok := r.ReadLine()
				if !ok {
					pending = false
					break
				}
				line = next
				if trait.sibling(line) {
					break
				}
			}
			if line == listContinuation {
				detached = len(buf)
				buf = append(buf, line)
			} else if hasText {
				if trait.sibling(line) {
					break
				}
				if ctx, m := nestedList(line, withinNested); ctx != model.ContextUnknown {
					buf = append(buf, line)
					withinNested = true
					if ctx == model.ContextDList && m[3] == "" {
						hasText = false
					}
				} else if isLiteralLine(line) {
					r.Unshift(line)
					buf = append(buf, p.readIndented(r, trait)...)
				} else {
					break
				}
			} else {
				if !withinNested {
					buf = buf[:len(buf)-1]
				}
				buf = append(buf, line)
				hasText = true
			}
		} else {
			if line != "" {
				hasText = true
			}
			if ctx, m := nestedList(line, withinNested); ctx != model.ContextUnknown {
				withinNested = true
				if ctx == model.ContextDList && m[3] == "" {
					hasText = false
				}
			}
			buf = append(buf, line)
		}
		pending = false
	}
	if pending {
		r.Unshift(line)
	}

	if detached >= 0 && detached < len(buf) {
		buf = append(buf[:detached], buf[detached+1:]...)
	}
	for len(buf) > 0 && buf[len(buf)-1] == "" {
		buf = buf[:len(buf)-1]
	}
	if len(buf) > 0 && buf[len(buf)-1] == listContinuation {
		buf = buf[:len(buf)-1]
	}
	return buf
}

// readIndented reads an indented literal paragraph inside a list item.
func (p *Parser) readIndented(r *reader.Reader, trait listTrait) []string {
	var pred func(string) bool
	if trait.ctx == model.ContextDList {
		pred = trait.sibling
	}
	return r.ReadLinesUntil(reader.UntilOptions{
		BreakOnBlankLines:       true,
		BreakOnListContinuation: true,
		PreserveLastLine:        true,
	}, pred)
}

func isLiteralLine(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func isMetadataLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "."):
		return blockTitleRx.MatchString(line)
	case strings.HasPrefix(line, "["):
		return blockAttrListRx.MatchString(line)
	case strings.HasPrefix(line, ":"):
		return reader.IsAttributeEntry(line)
	}
	return false
}
