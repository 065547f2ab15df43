package model

import (
	"strconv"
	"strings"
)

// Author is one entry of the document author line.
type Author struct {
	Name       string
	FirstName  string
	MiddleName string
	LastName   string
	Initials   string
	Email      string
}

// Revision holds the revision line of the header.
type Revision struct {
	Number string
	Date   string
	Remark string
}

// Header contains document-level information parsed from the header.
type Header struct {
	Title    string
	Authors  []Author
	Revision Revision
}

// Footnote is a registered footnote.
type Footnote struct {
	Index int
	ID    string
	Text  string
}

// Document is the root of the tree. It owns the attribute store, the
// references catalog and the other state shared by a single parse.
type Document struct {
	Block

	Attrs    *AttributeStore
	Catalog  *Catalog
	SafeMode SafeMode
	Header   Header
	// HasHeader is set when the source starts with a level-0 title or header lines.
	HasHeader bool
	Footnotes []*Footnote
	Callouts  *Callouts
	// Sourcemap requests full file information on every block cursor.
	Sourcemap bool
	// FrontMatter holds the decoded YAML front matter when skip-front-matter is set.
	FrontMatter map[string]interface{}
	Converter   Converter

	parentDoc *Document
	counters  map[string]string
}

// NewDocument creates an empty document carrying the default attributes.
func NewDocument() *Document {
	d := &Document{
		Attrs:     NewAttributeStore(),
		Catalog:   NewCatalog(),
		SafeMode:  SafeModeSecure,
		Callouts:  NewCallouts(),
		Converter: TextConverter{},
		counters:  make(map[string]string),
	}
	d.context = ContextDocument
	d.ContentModel = ContentCompound
	d.Attributes = Attributes{}
	d.self = d
	for name, value := range DefaultAttributes {
		d.Attrs.Set(name, value, ProvenanceDefault)
	}
	return d
}

// NewNestedDocument creates a document for an AsciiDoc table cell. It
// copies the parent's attributes and shares its catalog, footnotes and
// converter.
func NewNestedDocument(parent *Document) *Document {
	d := &Document{
		Attrs:     parent.Attrs.Clone(),
		Catalog:   parent.Catalog,
		SafeMode:  parent.SafeMode,
		Callouts:  NewCallouts(),
		Sourcemap: parent.Sourcemap,
		Converter: parent.Converter,
		parentDoc: parent,
		counters:  parent.counters,
	}
	d.context = ContextDocument
	d.ContentModel = ContentCompound
	d.Attributes = Attributes{}
	d.self = d
	d.Attrs.Unset("doctitle", ProvenanceLocked)
	d.Attrs.Unset("toc", ProvenanceLocked)
	return d
}

// ParentDocument returns the enclosing document of a nested document.
func (d *Document) ParentDocument() *Document { return d.parentDoc }

// IsNested reports whether d belongs to a table cell.
func (d *Document) IsNested() bool { return d.parentDoc != nil }

// Doctype returns the doctype attribute.
func (d *Document) Doctype() string { return d.Attrs.ValueOr("doctype", "article") }

// Doctitle returns the document title, falling back to the title of the
// first section.
func (d *Document) Doctitle() string {
	if d.Header.Title != "" {
		return d.Header.Title
	}
	if v, ok := d.Attrs.Get("title"); ok {
		return v
	}
	for _, c := range d.Blocks {
		if s, ok := c.(*Section); ok {
			return s.Title
		}
	}
	return ""
}

// ApplyAttributeEntry applies an attribute entry found in the source. A
// relative leveloffset ("+1", "-1") is resolved against the current value.
// It returns false when the attribute is locked.
func (d *Document) ApplyAttributeEntry(name, value string, unset bool) bool {
	if unset {
		return d.Attrs.Unset(name, ProvenanceHeader)
	}
	if FoldName(name) == "leveloffset" && (strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-")) {
		if n, err := strconv.Atoi(value); err == nil {
			value = strconv.Itoa(d.Attrs.Int("leveloffset", 0) + n)
		}
	}
	return d.Attrs.Set(name, value, ProvenanceHeader)
}

// Counter increments the named counter and returns its new value. Numeric
// counters count up from seed (default 1); single letter counters advance
// through the alphabet.
func (d *Document) Counter(name, seed string) string {
	if d.parentDoc != nil {
		return d.parentDoc.Counter(name, seed)
	}
	locked := d.Attrs.IsLocked(name)
	var next string
	if cur, ok := d.counters[name]; ok && locked {
		next = nextValue(cur)
	} else if cur, ok := d.Attrs.Get(name); ok && cur != "" {
		next = nextValue(cur)
	} else if seed != "" {
		next = seed
	} else {
		next = "1"
	}
	d.counters[name] = next
	if !locked {
		d.Attrs.Set(name, next, ProvenanceHeader)
	}
	return next
}

func nextValue(cur string) string {
	if n, err := strconv.Atoi(cur); err == nil {
		return strconv.Itoa(n + 1)
	}
	if len(cur) == 1 {
		c := cur[0]
		switch {
		case c == 'z':
			return "aa"
		case c == 'Z':
			return "AA"
		case (c >= 'a' && c < 'z') || (c >= 'A' && c < 'Z'):
			return string(c + 1)
		}
	}
	return "1"
}

// RegisterFootnote records a footnote. A footnote with an id that is
// already registered returns the existing entry.
func (d *Document) RegisterFootnote(id, text string) *Footnote {
	if d.parentDoc != nil {
		return d.parentDoc.RegisterFootnote(id, text)
	}
	if id != "" {
		if fn := d.Footnote(id); fn != nil {
			return fn
		}
	}
	fn := &Footnote{Index: len(d.Footnotes) + 1, ID: id, Text: text}
	d.Footnotes = append(d.Footnotes, fn)
	return fn
}

// Footnote returns the footnote with the given id, or nil.
func (d *Document) Footnote(id string) *Footnote {
	if d.parentDoc != nil {
		return d.parentDoc.Footnote(id)
	}
	for _, fn := range d.Footnotes {
		if fn.ID == id {
			return fn
		}
	}
	return nil
}

// SaveAttributes snapshots the attribute store; call after parsing.
func (d *Document) SaveAttributes() { d.Attrs.Save() }

// RestoreAttributes returns the attribute store to the saved snapshot.
func (d *Document) RestoreAttributes() { d.Attrs.Restore() }

// Sections returns every section in document order.
func (d *Document) Sections() []*Section {
	var out []*Section
	for _, n := range FindBy(d, Selector{Context: ContextSection}, nil) {
		out = append(out, n.(*Section))
	}
	return out
}

// Tables returns every table in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, n := range FindBy(d, Selector{Context: ContextTable}, nil) {
		if t, ok := n.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// OutlineEntry is one line of the section outline.
type OutlineEntry struct {
	Level int
	Title string
	ID    string
}

// Outline returns the sections as a flat outline in document order.
func (d *Document) Outline() []OutlineEntry {
	var out []OutlineEntry
	for _, s := range d.Sections() {
		title := s.ConvertedTitle
		if title == "" {
			title = s.Title
		}
		out = append(out, OutlineEntry{Level: s.Level, Title: title, ID: s.ID})
	}
	return out
}
