package parser

import (
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/attrlist"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
)

// buildDelimited reads a fenced block and builds it according to the
// fence and the masquerading style.
func (p *Parser) buildDelimited(st *blockState) (model.Node, error) {
	f := st.fence
	cur := st.cursor
	lines := st.r.ReadLinesUntil(reader.UntilOptions{
		Terminator:    f.close,
		SkipFirstLine: true,
		Context:       f.kind.String(),
		Cursor:        &cur,
	}, nil)
	style := st.style()

	switch f.kind {
	case fenceOpen:
		return p.buildOpen(st, lines, style)
	case fenceListing:
		if style == "literal" {
			return p.verbatim(st, model.ContextLiteral, lines), nil
		}
		return p.listing(st, lines, style == "source"), nil
	case fenceSource:
		st.attrs.Set("style", "source")
		if f.lang != "" {
			lang, rest, _ := strings.Cut(f.lang, ",")
			st.attrs.Set("language", strings.TrimSpace(lang))
			if strings.TrimSpace(rest) == "linenums" {
				st.attrs.SetOption("linenums")
			}
		}
		return p.listing(st, lines, true), nil
	case fenceLiteral:
		if style == "source" || style == "listing" {
			return p.listing(st, lines, style == "source"), nil
		}
		return p.verbatim(st, model.ContextLiteral, lines), nil
	case fenceExample:
		if model.AdmonitionStyles[style] {
			b, err := p.compound(st, model.ContextAdmonition, lines)
			if err != nil {
				return nil, err
			}
			p.admonition(b, style, st.attrs)
			return b, nil
		}
		return p.compound(st, model.ContextExample, lines)
	case fenceSidebar:
		return p.compound(st, model.ContextSidebar, lines)
	case fenceQuote:
		attrlist.Rekey(st.attrs, []string{"", "attribution", "citetitle"})
		if style == "verse" {
			return p.verse(lines), nil
		}
		return p.compound(st, model.ContextQuote, lines)
	case fencePass:
		return p.raw(lines), nil
	}
	return nil, nil
}

// buildOpen handles "--", which can masquerade as most other blocks.
func (p *Parser) buildOpen(st *blockState, lines []string, style string) (model.Node, error) {
	switch {
	case model.AdmonitionStyles[style]:
		b, err := p.compound(st, model.ContextAdmonition, lines)
		if err != nil {
			return nil, err
		}
		p.admonition(b, style, st.attrs)
		return b, nil
	case style == "source" || style == "listing":
		return p.listing(st, lines, style == "source"), nil
	case style == "literal":
		return p.verbatim(st, model.ContextLiteral, lines), nil
	case style == "pass":
		return p.raw(lines), nil
	case style == "comment":
		st.clearAttrs()
		return nil, nil
	case style == "example":
		return p.compound(st, model.ContextExample, lines)
	case style == "sidebar":
		return p.compound(st, model.ContextSidebar, lines)
	case style == "quote":
		attrlist.Rekey(st.attrs, []string{"", "attribution", "citetitle"})
		return p.compound(st, model.ContextQuote, lines)
	case style == "verse":
		attrlist.Rekey(st.attrs, []string{"", "attribution", "citetitle"})
		return p.verse(lines), nil
	}
	return p.compound(st, model.ContextOpen, lines)
}

// compound parses lines as child blocks of a new block.
func (p *Parser) compound(st *blockState, ctx model.Context, lines []string) (*model.Block, error) {
	b := model.NewBlock(ctx, model.ContentCompound)
	sub := reader.New(lines, st.cursor.Advance(1), st.r.Warnings())
	if err := p.parseBlocks(sub, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Parser) verbatim(st *blockState, ctx model.Context, lines []string) *model.Block {
	b := model.NewBlock(ctx, model.ContentVerbatim)
	b.Lines = trimBlankLines(lines)
	if v, ok := st.attrs.Get("indent"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			b.Lines = adjustIndentation(b.Lines, n)
		}
	}
	b.Subs = model.VerbatimSubs
	return b
}

func (p *Parser) listing(st *blockState, lines []string, source bool) *model.Block {
	b := p.verbatim(st, model.ContextListing, lines)
	if !source {
		return b
	}
	b.Style = "source"
	attrlist.Rekey(st.attrs, []string{"", "language", "linenums"})
	if !st.attrs.Has("language") {
		if lang := p.doc.Attrs.Value("source-language"); lang != "" {
			st.attrs.Set("language", lang)
		}
	}
	if st.attrs.Value("linenums") != "" {
		st.attrs.SetOption("linenums")
	}
	return b
}

func (p *Parser) verse(lines []string) *model.Block {
	b := model.NewBlock(model.ContextVerse, model.ContentVerbatim)
	b.Lines = trimBlankLines(lines)
	b.Subs = model.NormalSubs
	return b
}

func (p *Parser) raw(lines []string) *model.Block {
	b := model.NewBlock(model.ContextPass, model.ContentRaw)
	b.Lines = trimBlankLines(lines)
	return b
}

func (p *Parser) simple(ctx model.Context, lines []string) *model.Block {
	b := model.NewBlock(ctx, model.ContentSimple)
	b.Lines = lines
	b.Subs = model.NormalSubs
	return b
}

// readParagraphLines reads from the current line up to a blank line, a
// list continuation or a line that starts another block.
func (p *Parser) readParagraphLines(st *blockState) []string {
	first := true
	return st.r.ReadLinesUntil(reader.UntilOptions{
		BreakOnBlankLines:       true,
		BreakOnListContinuation: true,
		PreserveLastLine:        true,
		SkipLineComments:        st.textOnly,
	}, func(line string) bool {
		if first {
			first = false
			return false
		}
		return startsBlock(line) || (st.inList && isListLine(line))
	})
}

func (p *Parser) buildParagraph(st *blockState) (model.Node, error) {
	lines := p.readParagraphLines(st)
	if st.textOnly {
		for i, l := range lines {
			lines[i] = strings.TrimLeft(l, " \t")
		}
		return p.simple(model.ContextParagraph, lines), nil
	}
	return p.styledParagraph(st, lines, st.style())
}

// styledParagraph builds the block a paragraph style turns lines into.
func (p *Parser) styledParagraph(st *blockState, lines []string, style string) (model.Node, error) {
	switch style {
	case "comment":
		st.clearAttrs()
		return nil, nil
	case "source", "listing":
		return p.listing(st, adjustIndentation(lines, 0), style == "source"), nil
	case "literal":
		return p.verbatim(st, model.ContextLiteral, adjustIndentation(lines, 0)), nil
	case "pass":
		return p.raw(lines), nil
	case "quote":
		attrlist.Rekey(st.attrs, []string{"", "attribution", "citetitle"})
		return p.simple(model.ContextQuote, lines), nil
	case "verse":
		attrlist.Rekey(st.attrs, []string{"", "attribution", "citetitle"})
		return p.verse(lines), nil
	case "example":
		return p.simple(model.ContextExample, lines), nil
	case "sidebar":
		return p.simple(model.ContextSidebar, lines), nil
	case "open", "abstract", "partintro":
		return p.simple(model.ContextOpen, lines), nil
	}
	if model.AdmonitionStyles[style] {
		b := p.simple(model.ContextAdmonition, lines)
		p.admonition(b, style, st.attrs)
		return b, nil
	}
	return p.simple(model.ContextParagraph, lines), nil
}

func (p *Parser) buildAdmonitionParagraph(st *blockState) (model.Node, error) {
	name := st.match[1]
	lines := p.readParagraphLines(st)
	lines[0] = st.match[2]
	b := p.simple(model.ContextAdmonition, lines)
	p.admonition(b, name, st.attrs)
	return b, nil
}

// buildLiteralParagraph handles indented paragraphs.
func (p *Parser) buildLiteralParagraph(st *blockState) (model.Node, error) {
	lines := p.readParagraphLines(st)
	switch style := st.style(); style {
	case "normal":
		for i, l := range lines {
			lines[i] = strings.TrimLeft(l, " \t")
		}
		return p.simple(model.ContextParagraph, lines), nil
	case "", "literal":
		return p.verbatim(st, model.ContextLiteral, adjustIndentation(lines, 0)), nil
	default:
		return p.styledParagraph(st, lines, style)
	}
}

func (p *Parser) buildBreak(st *blockState) (model.Node, error) {
	st.r.Advance()
	if strings.HasPrefix(st.line, "<") {
		return model.NewBlock(model.ContextPageBreak, model.ContentEmpty), nil
	}
	return model.NewBlock(model.ContextThematicBreak, model.ContentEmpty), nil
}

// blockMacroAttrs lists the positional attribute names of each block macro.
var blockMacroAttrs = map[string][]string{
	"image": {"alt", "width", "height"},
	"video": {"poster", "width", "height"},
	"audio": {},
	"toc":   {},
}

// buildBlockMacro builds image::, video::, audio:: and toc:: blocks.
func (p *Parser) buildBlockMacro(st *blockState) (model.Node, error) {
	m := st.match
	st.r.Advance()
	name := m[1]
	if name == "toc" {
		b := model.NewBlock(model.ContextTOC, model.ContentEmpty)
		attrlist.ParseInto(st.attrs, m[3], nil, nil)
		return b, nil
	}
	target, keep := p.subs.SubAttributes(m[2], "")
	if !keep || target == "" {
		p.log().Debug("dropping block macro with missing target", "macro", name, "line", st.cursor.LineNo)
		st.clearAttrs()
		return nil, nil
	}
	var ctx model.Context
	switch name {
	case "image":
		ctx = model.ContextImage
	case "video":
		ctx = model.ContextVideo
	default:
		ctx = model.ContextAudio
	}
	b := model.NewBlock(ctx, model.ContentEmpty)
	src, _ := p.subs.SubAttributes(m[3], "")
	attrlist.ParseInto(st.attrs, src, blockMacroAttrs[name], nil)
	if name == "image" {
		attrlist.ParseStyle(st.attrs)
		if !st.attrs.Has("alt") || st.attrs.Value("alt") == "" {
			st.attrs.Set("default-alt", defaultAlt(target))
			st.attrs.Set("alt", defaultAlt(target))
		}
	}
	b.Attributes.Set("target", target)
	return b, nil
}

// defaultAlt derives alt text from an image file name.
func defaultAlt(target string) string {
	base := path.Base(target)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}

func (p *Parser) buildFloatingTitle(st *blockState) (model.Node, error) {
	next := ""
	if lines := st.r.PeekLines(2, false); len(lines) > 1 {
		next = lines[1]
	}
	h, _ := parseHeading(st.line, next)
	for i := 0; i < h.lines; i++ {
		st.r.Advance()
	}
	b := model.NewBlock(model.ContextFloatingTitle, model.ContentEmpty)
	title, id, reftext := splitTitleAnchor(h.title)
	b.Title = title
	b.Reftext = reftext
	level := h.level + p.doc.Attrs.Int("leveloffset", 0)
	if level < 0 {
		level = 0
	}
	b.Attributes.Set("level", strconv.Itoa(level))
	if id == "" && !st.attrs.Has("id") && p.doc.Attrs.Has("sectids") {
		id = p.generateID(title)
	}
	b.ID = id
	return b, nil
}

// trimBlankLines drops leading and trailing blank lines.
func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// adjustIndentation strips the common indentation of lines and indents
// them by indent spaces.
func adjustIndentation(lines []string, indent int) []string {
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if min < 0 || n < min {
			min = n
		}
	}
	if min < 0 {
		return lines
	}
	pad := strings.Repeat(" ", indent)
	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out[i] = pad + l[min:]
	}
	return out
}
