package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shurcooL/sanitized_anchor_name"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
	"github.com/tsawler/adoc/subs"
)

var (
	atxHeadingRx      = regexp.MustCompile(`^(={1,6})[ \t]+(\S.*?)(?:[ \t]+=+)?$`)
	mdHeadingRx       = regexp.MustCompile(`^(#{1,6})[ \t]+(\S.*?)(?:[ \t]+#+)?$`)
	setextUnderlineRx = regexp.MustCompile(`^(?:=+|-+|~+|\^+|\++)$`)
	titleAnchorRx     = regexp.MustCompile(`[ \t](\\)?\[\[([\p{L}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+))?\]\]$`)
)

var setextLevels = map[byte]int{'=': 0, '-': 1, '~': 2, '^': 3, '+': 4}

// specialSections are the section styles that name a special kind.
var specialSections = map[string]bool{
	"abstract":        true,
	"acknowledgments": true,
	"appendix":        true,
	"bibliography":    true,
	"colophon":        true,
	"dedication":      true,
	"glossary":        true,
	"index":           true,
	"preface":         true,
}

type heading struct {
	level int
	title string
	// lines is 2 for an underlined heading.
	lines int
}

// parseHeading recognizes a single line heading on line or an underlined
// one spanning line and next.
func parseHeading(line, next string) (heading, bool) {
	if strings.HasPrefix(line, "=") || strings.HasPrefix(line, "#") {
		rx := atxHeadingRx
		if line[0] == '#' {
			rx = mdHeadingRx
		}
		if m := rx.FindStringSubmatch(line); m != nil {
			return heading{level: len(m[1]) - 1, title: m[2], lines: 1}, true
		}
	}
	if len(next) < 2 || !setextUnderlineRx.MatchString(next) || !isSetextTitle(line) {
		return heading{}, false
	}
	if diff := utf8.RuneCountInString(line) - len(next); diff < -1 || diff > 1 {
		return heading{}, false
	}
	return heading{level: setextLevels[next[0]], title: line, lines: 2}, true
}

func isSetextTitle(line string) bool {
	if line == "" || line[0] == '.' || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	return strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
	}) >= 0
}

// headingAt returns the heading at the reader with leveloffset applied.
func (p *Parser) headingAt(r *reader.Reader, attrs model.Attributes) (heading, bool) {
	if style := attrs.Value("style"); style == "discrete" || style == "float" {
		return heading{}, false
	}
	lines := r.PeekLines(2, false)
	if len(lines) == 0 {
		return heading{}, false
	}
	next := ""
	if len(lines) > 1 {
		next = lines[1]
	}
	h, ok := parseHeading(lines[0], next)
	if !ok {
		return heading{}, false
	}
	h.level += p.doc.Attrs.Int("leveloffset", 0)
	if h.level < 0 {
		h.level = 0
	}
	return h, true
}

// splitTitleAnchor removes a trailing [[id,reftext]] anchor from a title.
func splitTitleAnchor(title string) (string, string, string) {
	m := titleAnchorRx.FindStringSubmatchIndex(title)
	if m == nil {
		return title, "", ""
	}
	if m[2] >= 0 {
		return title[:m[2]] + title[m[3]:], "", ""
	}
	id := title[m[4]:m[5]]
	reftext := ""
	if m[6] >= 0 {
		reftext = title[m[6]:m[7]]
	}
	return strings.TrimRight(title[:m[0]], " \t"), id, reftext
}

// readSection consumes the heading h and creates its section. Content is
// read by the caller.
func (p *Parser) readSection(r *reader.Reader, parent model.Node, h heading, attrs model.Attributes) (*model.Section, error) {
	cursor := r.Cursor()
	for i := 0; i < h.lines; i++ {
		r.Advance()
	}
	p.checkLevel(parent, h.level, cursor)

	sec := model.NewSection(h.level)
	sec.Cursor = p.cursor(cursor)
	title, id, reftext := splitTitleAnchor(h.title)
	sec.Title = title
	if v := attrs.Value("id"); v != "" {
		id = v
	}
	if v := attrs.Value("reftext"); v != "" {
		reftext = v
	}
	style := attrs.Value("style")
	if specialSections[style] {
		sec.Name = style
		sec.Special = true
	}
	sec.Style = style
	attrs.Delete("title")
	sec.Attributes.Merge(attrs)
	p.number(parent, sec)

	if id == "" && p.doc.Attrs.Has("sectids") {
		id = p.generateID(title)
	}
	sec.ID = id
	sec.Reftext = reftext
	if id != "" {
		if reftext == "" {
			reftext = title
		}
		p.register(id, reftext, sec, cursor)
	}
	p.log().Debug("section", "level", sec.Level, "id", id, "line", cursor.LineNo)
	return sec, r.Err()
}

// checkLevel warns about headings that skip a level.
func (p *Parser) checkLevel(parent model.Node, level int, cursor model.Cursor) {
	book := p.doc.Doctype() == "book"
	expected := 1
	if sec, ok := parent.(*model.Section); ok {
		expected = sec.Level + 1
	} else if level == 0 {
		if !book {
			p.warn(diag.MalformedSyntax, cursor, "level 0 sections can only be used when doctype is book")
		}
		return
	}
	if level > expected {
		p.warn(diag.MalformedSyntax, cursor, "section title out of sequence: expected level %d, got level %d", expected, level)
	}
}

func childSections(parent model.Node) []*model.Section {
	var out []*model.Section
	for _, c := range parent.Base().Blocks {
		if s, ok := c.(*model.Section); ok {
			out = append(out, s)
		}
	}
	return out
}

// number assigns the index and, when sections are numbered, the numeral
// of sec among its siblings.
func (p *Parser) number(parent model.Node, sec *model.Section) {
	siblings := childSections(parent)
	sec.Index = len(siblings)

	if sec.Name == "appendix" {
		n := 0
		for _, s := range siblings {
			if s.Name == "appendix" {
				n++
			}
		}
		sec.Numbered = true
		sec.Numeral = string(rune('A' + n%26))
		if label := p.doc.Attrs.Value("appendix-caption"); label != "" {
			sec.Caption = label + " " + sec.Numeral + ": "
		}
		return
	}
	if sec.Special || sec.Level == 0 || !p.doc.Attrs.Has("sectnums") {
		return
	}
	if sec.Level > p.doc.Attrs.Int("sectnumlevels", 3) {
		return
	}
	n := 1
	for _, s := range siblings {
		if s.Numbered && s.Name != "appendix" {
			n++
		}
	}
	sec.Numbered = true
	sec.Numeral = strconv.Itoa(n)
	if ps, ok := parent.(*model.Section); ok && ps.Numbered {
		sec.Numeral = ps.Numeral + "." + sec.Numeral
	}
}

// generateID derives a unique id from a title using the idprefix and
// idseparator attributes.
func (p *Parser) generateID(title string) string {
	prefix := p.doc.Attrs.Value("idprefix")
	sep := p.doc.Attrs.Value("idseparator")
	text, _ := p.subs.SubAttributes(title, "skip")
	converted := p.subs.ApplySubs(text, []model.Sub{model.SubSpecialCharacters, model.SubQuotes, model.SubReplacements})
	slug := sanitized_anchor_name.Create(subs.PlainText(converted))
	if sep != "-" {
		slug = strings.ReplaceAll(slug, "-", sep)
	}
	base := prefix + slug
	dedupe := sep
	if dedupe == "" {
		dedupe = "_"
	}
	id := base
	for n := 2; p.doc.Catalog.Has(id); n++ {
		id = base + dedupe + strconv.Itoa(n)
	}
	return id
}
