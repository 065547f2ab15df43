package parser

import (
	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
	"github.com/tsawler/adoc/subs"
)

// Parser builds the tree of one document. A Parser is not safe for
// concurrent use.
type Parser struct {
	doc   *model.Document
	warns *diag.Collector
	subs  *subs.Substitutor

	headerOnly bool
	readerOpts []reader.Option
}

// Option configures a Parser.
type Option func(*Parser)

// WithHeaderOnly stops parsing after the document header.
func WithHeaderOnly() Option {
	return func(p *Parser) {
		p.headerOnly = true
	}
}

// WithReaderOptions sets the options used for the preprocessing readers
// of AsciiDoc table cells.
func WithReaderOptions(opts ...reader.Option) Option {
	return func(p *Parser) {
		p.readerOpts = append(p.readerOpts, opts...)
	}
}

// New creates a parser that builds into doc and reports to warns. A nil
// collector discards warnings.
func New(doc *model.Document, warns *diag.Collector, opts ...Option) *Parser {
	if warns == nil {
		warns = diag.NewCollector(nil)
	}
	p := &Parser{doc: doc, warns: warns, subs: subs.New(doc, warns)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses r into doc using a new Parser.
func Parse(doc *model.Document, r *reader.PreprocessorReader, opts ...Option) error {
	return New(doc, r.Warnings(), opts...).Parse(r)
}

// Document returns the document being built.
func (p *Parser) Document() *model.Document { return p.doc }

// Parse reads the header and then the body of the document.
func (p *Parser) Parse(r *reader.PreprocessorReader) error {
	doc := p.doc
	in := r.Reader
	if doc.Attrs.Has("skip-front-matter") && !doc.IsNested() {
		p.parseFrontMatter(in)
	}
	attrs := model.Attributes{}
	if !doc.IsNested() {
		if err := p.parseHeader(in, attrs); err != nil {
			return err
		}
	}
	if p.headerOnly {
		return in.Err()
	}

	var container model.Node = doc
	var preamble *model.Block
	if doc.Header.Title != "" {
		preamble = model.NewBlock(model.ContextPreamble, model.ContentCompound)
		doc.Append(preamble)
		container = preamble
	}
	if err := p.parseContent(in, doc, container, 0, attrs); err != nil {
		return err
	}
	if preamble != nil {
		p.settlePreamble(preamble)
	}
	return in.Err()
}

// settlePreamble unwraps the preamble when the document has no sections
// and drops it when it is empty.
func (p *Parser) settlePreamble(preamble *model.Block) {
	doc := p.doc
	if len(preamble.Blocks) == 0 {
		doc.Remove(preamble)
		return
	}
	if len(doc.Sections()) > 0 {
		return
	}
	for _, child := range append([]model.Node(nil), preamble.Blocks...) {
		doc.Append(child)
	}
	doc.Remove(preamble)
}

// parseContent reads blocks into container until the input ends or a
// heading of level or shallower is found in a section. Headings nested
// deeper start child sections of owner. Blocks before the first section
// go to container, which is the preamble for a document with a header.
func (p *Parser) parseContent(r *reader.Reader, owner, container model.Node, level int, attrs model.Attributes) error {
	_, inSection := owner.(*model.Section)
	if attrs == nil {
		attrs = model.Attributes{}
	}
	for {
		if err := r.Err(); err != nil {
			return err
		}
		meta, err := p.readMetadata(r, container, attrs)
		if err != nil {
			return err
		}
		if !r.HasMoreLines() {
			return nil
		}
		if h, ok := p.headingAt(r, attrs); ok {
			if inSection && h.level <= level {
				r.UnshiftLines(meta)
				return nil
			}
			sec, err := p.readSection(r, owner, h, attrs)
			if err != nil {
				return err
			}
			owner.Base().Append(sec)
			if err := p.parseContent(r, sec, sec, sec.Level, nil); err != nil {
				return err
			}
			container = owner
			attrs = model.Attributes{}
			continue
		}
		block, err := p.nextBlock(r, container, attrs, false)
		if err != nil {
			return err
		}
		if block != nil {
			container.Base().Append(block)
		}
		attrs = model.Attributes{}
	}
}

// NextSection reads the heading at the reader and every block and nested
// section below it, and appends the section to parent. It returns nil when
// the next line is not a heading; metadata lines read before it are left
// in attrs.
func (p *Parser) NextSection(r *reader.Reader, parent model.Node, attrs model.Attributes) (*model.Section, error) {
	if attrs == nil {
		attrs = model.Attributes{}
	}
	if _, err := p.readMetadata(r, parent, attrs); err != nil {
		return nil, err
	}
	h, ok := p.headingAt(r, attrs)
	if !ok {
		return nil, r.Err()
	}
	sec, err := p.readSection(r, parent, h, attrs)
	if err != nil {
		return nil, err
	}
	parent.Base().Append(sec)
	if err := p.parseContent(r, sec, sec, sec.Level, nil); err != nil {
		return sec, err
	}
	return sec, nil
}

// NextBlock reads the next block below parent. attrs holds metadata
// collected for it so far. It returns nil at the end of input.
func (p *Parser) NextBlock(r *reader.Reader, parent model.Node, attrs model.Attributes) (model.Node, error) {
	return p.nextBlock(r, parent, attrs, false)
}

// parseBlocks reads every block of r into parent.
func (p *Parser) parseBlocks(r *reader.Reader, parent model.Node) error {
	for r.HasMoreLines() {
		block, err := p.nextBlock(r, parent, nil, false)
		if err != nil {
			return err
		}
		if block != nil {
			parent.Base().Append(block)
		}
	}
	return r.Err()
}

func (p *Parser) warn(cat diag.Category, cursor model.Cursor, format string, args ...interface{}) {
	p.warns.Warn(cat, cursor, format, args...)
}

func (p *Parser) log() *logger.Logger {
	return p.warns.Logger()
}

// cursor returns c as stored on a block: complete with the sourcemap,
// line number only without it.
func (p *Parser) cursor(c model.Cursor) model.Cursor {
	if p.doc.Sourcemap {
		return c
	}
	return c.LineOnly()
}

// register adds id to the catalog and warns when it is taken.
func (p *Parser) register(id, reftext string, node model.Node, cursor model.Cursor) {
	if !p.doc.Catalog.Register(id, reftext, node) {
		kind := "block"
		if _, ok := node.(*model.Section); ok {
			kind = "section"
		}
		p.warn(diag.MalformedSyntax, cursor, "id assigned to %s already in use: %s", kind, id)
	}
}
