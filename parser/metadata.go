package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/attrlist"
	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/subs"
)

var (
	inlineAnchorScanRx = regexp.MustCompile(`(\\)?(?:\[\[([\p{L}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+?))?\]\]|anchor:([\p{L}_:][\p{L}\p{N}_\-:.]*)\[(?:\]|(.*?[^\\])\]))`)
	biblioAnchorScanRx = regexp.MustCompile(`^\[\[\[([\p{L}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+?))?\]\]\]`)
)

// captionKeys maps the contexts that take a numbered caption to the
// prefix of their caption and counter attributes.
var captionKeys = map[model.Context]string{
	model.ContextExample: "example",
	model.ContextImage:   "figure",
	model.ContextListing: "listing",
	model.ContextTable:   "table",
}

func (p *Parser) readAttributeLine(st *blockState) (model.Node, error) {
	st.r.Advance()
	src, _ := p.subs.SubAttributes(st.line[1:len(st.line)-1], "")
	attrs := attrlist.ParseInto(nil, src, nil, nil)
	attrlist.ParseStyle(attrs)
	st.attrs.Merge(attrs)
	return nil, nil
}

// finish applies the collected metadata to a freshly built block and
// records its id, caption and callouts.
func (p *Parser) finish(node model.Node, st *blockState) {
	b := node.Base()
	attrs := st.attrs
	if b.Cursor.IsZero() {
		b.Cursor = p.cursor(st.cursor)
	}
	if title, ok := attrs.Get("title"); ok {
		b.Title = title
		attrs.Delete("title")
	}
	if b.Style == "" {
		b.Style = attrs.Value("style")
	}
	for name, value := range attrs {
		if !b.Attributes.Has(name) {
			b.Attributes.Set(name, value)
		}
	}
	if b.ID == "" {
		b.ID = attrs.Value("id")
	}
	if reftext, ok := attrs.Get("reftext"); ok {
		b.Reftext = reftext
	}
	if spec, ok := b.Attributes.Get("subs"); ok && b.ContentModel != model.ContentCompound {
		p.resolveSubs(b, spec, st.cursor)
	}
	if b.ID != "" {
		reftext := b.Reftext
		if reftext == "" {
			reftext = b.Title
		}
		p.register(b.ID, reftext, node, st.cursor)
	}
	p.assignCaption(b)
	if model.HasSub(b.Subs, model.SubCallouts) {
		p.catalogCallouts(b.Lines)
	}
	if b.ContentModel == model.ContentSimple {
		p.catalogInlineAnchors(b.Source(), st.cursor)
	}
}

func (p *Parser) resolveSubs(b *model.Block, spec string, cursor model.Cursor) {
	resolved, invalid := subs.ResolveSubs(spec, b.Subs, false)
	if len(invalid) > 0 {
		plural := ""
		if len(invalid) > 1 {
			plural = "s"
		}
		p.warn(diag.MalformedSyntax, cursor, "invalid substitution type%s: %s", plural, strings.Join(invalid, ", "))
	}
	b.Subs = resolved
}

// assignCaption numbers titled examples, figures, listings and tables
// when the matching caption attribute is set.
func (p *Parser) assignCaption(b *model.Block) {
	if b.Title == "" || b.Caption != "" {
		return
	}
	if caption, ok := b.Attributes.Get("caption"); ok {
		b.Caption = caption
		return
	}
	key, ok := captionKeys[b.Context()]
	if !ok {
		return
	}
	label := p.doc.Attrs.Value(key + "-caption")
	if label == "" {
		return
	}
	number := p.doc.Counter(key+"-number", "")
	b.Attributes.Set("number", number)
	b.Caption = label + " " + number + ". "
}

// admonition turns b into an admonition named by style (NOTE, TIP, ...).
func (p *Parser) admonition(b *model.Block, style string, attrs model.Attributes) {
	name := strings.ToLower(style)
	b.SetContext(model.ContextAdmonition)
	b.Style = style
	b.Attributes.Set("name", name)
	label := attrs.Value("caption")
	if label == "" {
		label = p.doc.Attrs.Value(name + "-caption")
	}
	b.Attributes.Set("textlabel", label)
}

// catalogCallouts registers the callout markers of verbatim lines so a
// following callout list can find them.
func (p *Parser) catalogCallouts(lines []string) {
	autonum := 0
	for i, line := range lines {
		for _, co := range subs.ScanCallouts(line) {
			if co.Escaped {
				continue
			}
			ordinal := 0
			if co.Ordinal == "." {
				autonum++
				ordinal = autonum
			} else {
				ordinal, _ = strconv.Atoi(co.Ordinal)
			}
			p.doc.Callouts.Register(ordinal, i)
		}
	}
}

// catalogInlineAnchors registers the inline anchors of text ahead of
// substitution, so references to them resolve from anywhere in the
// document.
func (p *Parser) catalogInlineAnchors(text string, cursor model.Cursor) {
	if !strings.Contains(text, "[[") && !strings.Contains(text, "anchor:") {
		return
	}
	for _, m := range inlineAnchorScanRx.FindAllStringSubmatchIndex(text, -1) {
		if m[2] >= 0 || (m[0] > 0 && text[m[0]-1] == '[') {
			continue
		}
		var id, reftext string
		if m[4] >= 0 {
			id = text[m[4]:m[5]]
			if m[6] >= 0 {
				reftext = text[m[6]:m[7]]
			}
		} else {
			id = text[m[8]:m[9]]
			if m[10] >= 0 {
				reftext = text[m[10]:m[11]]
			}
		}
		if !p.doc.Catalog.Register(id, reftext, nil) {
			p.warn(diag.MalformedSyntax, cursor, "id assigned to anchor already in use: %s", id)
		}
	}
}

// catalogBiblioAnchor registers the [[[id]]] anchor that starts a
// bibliography entry.
func (p *Parser) catalogBiblioAnchor(text string, cursor model.Cursor) {
	m := biblioAnchorScanRx.FindStringSubmatch(text)
	if m == nil {
		return
	}
	label := m[2]
	if label == "" {
		label = m[1]
	}
	if !p.doc.Catalog.Register(m[1], "["+label+"]", nil) {
		p.warn(diag.MalformedSyntax, cursor, "id assigned to bibliography anchor already in use: %s", m[1])
	}
}
