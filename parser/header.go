package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
)

var authorRx = regexp.MustCompile(`^([\p{L}\p{N}_][\p{L}\p{N}_\-'.]*)(?: +([\p{L}\p{N}_][\p{L}\p{N}_\-'.]*))?(?: +([\p{L}\p{N}_][\p{L}\p{N}_\-'.]*))?(?: +<([^>]+)>)?$`)

// parseHeader reads the document title, author and revision lines and the
// header attribute entries. Metadata lines that do not precede a title are
// left in attrs for the first block.
func (p *Parser) parseHeader(r *reader.Reader, attrs model.Attributes) error {
	doc := p.doc
	if _, err := p.readMetadata(r, doc, attrs); err != nil {
		return err
	}
	lines := r.PeekLines(2, false)
	if len(lines) == 0 {
		p.authorsFromAttributes()
		return r.Err()
	}
	next := ""
	if len(lines) > 1 {
		next = lines[1]
	}
	h, ok := parseHeading(lines[0], next)
	if !ok || h.level != 0 || attrs.Value("style") == "discrete" {
		p.authorsFromAttributes()
		return r.Err()
	}

	cursor := r.Cursor()
	for i := 0; i < h.lines; i++ {
		r.Advance()
	}
	title, id, _ := splitTitleAnchor(h.title)
	doc.HasHeader = true
	doc.Header.Title = title
	doc.Title = title
	doc.Cursor = p.cursor(cursor)
	doc.Attrs.Set("doctitle", title, model.ProvenanceHeader)
	if v := attrs.Value("id"); v != "" {
		id = v
	}
	if id != "" {
		doc.ID = id
		p.register(id, title, doc, cursor)
	}
	attrs.Delete("title")
	doc.Attributes.Merge(attrs)
	for k := range attrs {
		delete(attrs, k)
	}

	authored := false
	if line, ok := r.PeekLine(); ok && isHeaderText(line) {
		r.Advance()
		p.parseAuthors(line, cursor.Advance(h.lines))
		authored = true
		if line, ok := r.PeekLine(); ok && isHeaderText(line) {
			r.Advance()
			p.setRevision(parseRevision(line))
		}
	}
	for {
		line, ok := r.PeekLine()
		if !ok || line == "" {
			break
		}
		switch {
		case reader.IsAttributeEntry(line):
			if _, ok := r.ProcessAttributeEntry(doc, p.subs.ApplyHeader); !ok {
				r.Advance()
			}
		case strings.HasPrefix(line, "//"):
			r.SkipCommentLines()
		default:
			p.warn(diag.MalformedSyntax, r.Cursor(), "unexpected line in document header: %s", line)
			return r.Err()
		}
	}
	if !authored {
		p.authorsFromAttributes()
	}
	return r.Err()
}

func isHeaderText(line string) bool {
	return line != "" && !strings.HasPrefix(line, "//") && !reader.IsAttributeEntry(line)
}

// parseAuthors reads a semicolon separated author line.
func (p *Parser) parseAuthors(line string, cursor model.Cursor) {
	var authors []model.Author
	for _, seg := range strings.Split(line, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		a, ok := parseAuthor(seg)
		if !ok {
			p.warn(diag.MalformedSyntax, cursor, "malformed author: %s", seg)
		}
		authors = append(authors, a)
	}
	p.setAuthors(authors)
}

// parseAuthor splits "First Middle Last <email>". A segment that does not
// fit is split on whitespace and reported as malformed.
func parseAuthor(s string) (model.Author, bool) {
	var a model.Author
	var parts []string
	ok := true
	if m := authorRx.FindStringSubmatch(s); m != nil {
		for _, part := range m[1:4] {
			if part != "" {
				parts = append(parts, strings.ReplaceAll(part, "_", " "))
			}
		}
		a.Email = m[4]
	} else {
		ok = false
		if i := strings.Index(s, "<"); i >= 0 && strings.HasSuffix(s, ">") {
			a.Email = s[i+1 : len(s)-1]
			s = s[:i]
		}
		parts = strings.Fields(s)
	}
	switch len(parts) {
	case 0:
	case 1:
		a.FirstName = parts[0]
	case 2:
		a.FirstName, a.LastName = parts[0], parts[1]
	default:
		a.FirstName = parts[0]
		a.MiddleName = strings.Join(parts[1:len(parts)-1], " ")
		a.LastName = parts[len(parts)-1]
	}
	a.Name = strings.Join(parts, " ")
	for _, name := range []string{a.FirstName, a.MiddleName, a.LastName} {
		if r, _ := firstRune(name); r != 0 {
			a.Initials += string(unicode.ToUpper(r))
		}
	}
	return a, ok
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// setAuthors records authors on the header and as attributes. The first
// author also sets the unsuffixed attributes.
func (p *Parser) setAuthors(authors []model.Author) {
	doc := p.doc
	doc.Header.Authors = authors
	set := func(name, value string) {
		if value != "" {
			doc.Attrs.Set(name, value, model.ProvenanceHeader)
		}
	}
	for i, a := range authors {
		suffix := "_" + strconv.Itoa(i+1)
		set("author"+suffix, a.Name)
		set("firstname"+suffix, a.FirstName)
		set("middlename"+suffix, a.MiddleName)
		set("lastname"+suffix, a.LastName)
		set("authorinitials"+suffix, a.Initials)
		set("email"+suffix, a.Email)
		if i == 0 {
			set("author", a.Name)
			set("firstname", a.FirstName)
			set("middlename", a.MiddleName)
			set("lastname", a.LastName)
			set("authorinitials", a.Initials)
			set("email", a.Email)
		}
	}
	set("authorcount", strconv.Itoa(len(authors)))
}

// authorsFromAttributes fills the header authors from an author attribute
// set by an entry or by the API.
func (p *Parser) authorsFromAttributes() {
	doc := p.doc
	if len(doc.Header.Authors) > 0 {
		return
	}
	name := doc.Attrs.Value("author")
	if name == "" {
		return
	}
	a, _ := parseAuthor(name)
	if a.Email == "" {
		a.Email = doc.Attrs.Value("email")
	}
	doc.Header.Authors = []model.Author{a}
	for attr, value := range map[string]string{
		"firstname":      a.FirstName,
		"middlename":     a.MiddleName,
		"lastname":       a.LastName,
		"authorinitials": a.Initials,
		"email":          a.Email,
	} {
		if value != "" && !doc.Attrs.Has(attr) {
			doc.Attrs.Set(attr, value, model.ProvenanceHeader)
		}
	}
	if !doc.Attrs.Has("authorcount") {
		doc.Attrs.Set("authorcount", "1", model.ProvenanceHeader)
	}
}

// parseRevision reads "v1.0, 2024-01-01: remark". Each part is optional.
func parseRevision(line string) model.Revision {
	var rev model.Revision
	main := line
	if before, remark, ok := strings.Cut(line, ": "); ok {
		main, rev.Remark = before, strings.TrimSpace(remark)
	} else if strings.HasSuffix(line, ":") {
		main = strings.TrimSuffix(line, ":")
	}
	main = strings.TrimSpace(main)
	if number, date, ok := strings.Cut(main, ","); ok {
		rev.Number = revNumber(number)
		rev.Date = strings.TrimSpace(date)
	} else if len(main) > 1 && (main[0] == 'v' || main[0] == 'V') && unicode.IsDigit(rune(main[1])) {
		rev.Number = revNumber(main)
	} else {
		rev.Date = main
	}
	return rev
}

func revNumber(s string) string {
	return strings.TrimLeftFunc(strings.TrimSpace(s), func(r rune) bool { return !unicode.IsDigit(r) })
}

func (p *Parser) setRevision(rev model.Revision) {
	p.doc.Header.Revision = rev
	for name, value := range map[string]string{
		"revnumber": rev.Number,
		"revdate":   rev.Date,
		"revremark": rev.Remark,
	} {
		if value != "" {
			p.doc.Attrs.Set(name, value, model.ProvenanceHeader)
		}
	}
}

// parseFrontMatter decodes a leading YAML block fenced by "---" lines.
func (p *Parser) parseFrontMatter(r *reader.Reader) {
	line, ok := r.PeekLine()
	if !ok || line != "---" {
		return
	}
	cur := r.Cursor()
	lines := r.ReadLinesUntil(reader.UntilOptions{
		Terminator:     "---",
		SkipFirstLine:  true,
		SkipProcessing: true,
		Context:        "front matter",
		Cursor:         &cur,
	}, nil)
	src := strings.Join(lines, "\n")
	p.doc.Attrs.Set("front-matter", src, model.ProvenanceHeader)
	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(src), &fm); err != nil {
		p.warn(diag.MalformedSyntax, cur, "invalid front matter: %v", err)
		return
	}
	p.doc.FrontMatter = fm
}
