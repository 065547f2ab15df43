package model

import (
	"strings"
)

// CellStyle is the content style of a table cell or column.
type CellStyle int

const (
	CellStyleDefault CellStyle = iota
	CellStyleAsciiDoc
	CellStyleEmphasis
	CellStyleHeader
	CellStyleLiteral
	CellStyleMonospace
	CellStyleStrong
	CellStyleVerse
)

func (s CellStyle) String() string {
	switch s {
	case CellStyleAsciiDoc:
		return "asciidoc"
	case CellStyleEmphasis:
		return "emphasis"
	case CellStyleHeader:
		return "header"
	case CellStyleLiteral:
		return "literal"
	case CellStyleMonospace:
		return "monospace"
	case CellStyleStrong:
		return "strong"
	case CellStyleVerse:
		return "verse"
	default:
		return "default"
	}
}

// ParseCellStyle maps a cell spec style letter (a, d, e, h, l, m, s, v) to
// its style. The second result is false for unknown letters.
func ParseCellStyle(letter byte) (CellStyle, bool) {
	switch letter {
	case 'a':
		return CellStyleAsciiDoc, true
	case 'd':
		return CellStyleDefault, true
	case 'e':
		return CellStyleEmphasis, true
	case 'h':
		return CellStyleHeader, true
	case 'l':
		return CellStyleLiteral, true
	case 'm':
		return CellStyleMonospace, true
	case 's':
		return CellStyleStrong, true
	case 'v':
		return CellStyleVerse, true
	}
	return CellStyleDefault, false
}

// Column describes one table column as declared by the cols attribute.
type Column struct {
	Number int
	// Width is the relative width weight; 0 means auto.
	Width  int
	HAlign string
	VAlign string
	Style  CellStyle
}

// Cell is one table cell.
type Cell struct {
	Block

	// Source is the raw cell text with escaped separators resolved.
	Source  string
	Text    string
	Style   CellStyle
	ColSpan int
	RowSpan int
	HAlign  string
	VAlign  string
	Column  *Column
	// Inner holds the nested document of an AsciiDoc style cell.
	Inner *Document
}

// NewCell creates a cell with single spans.
func NewCell(source string) *Cell {
	c := &Cell{Source: source, ColSpan: 1, RowSpan: 1, HAlign: "left", VAlign: "top"}
	c.context = ContextTableCell
	c.ContentModel = ContentSimple
	c.Attributes = Attributes{}
	c.self = c
	return c
}

// Children returns the nested document of an AsciiDoc cell, if any.
func (c *Cell) Children() []Node {
	if c.Inner != nil {
		return []Node{c.Inner}
	}
	return nil
}

// Rows groups table rows by section.
type Rows struct {
	Head [][]*Cell
	Body [][]*Cell
	Foot [][]*Cell
}

// Table represents a table with head, body and foot row groups.
type Table struct {
	Block

	Columns []*Column
	Rows    Rows
	// Format is the data format: "psv", "csv" or "dsv".
	Format    string
	Separator string
}

// NewTable creates an empty table.
func NewTable() *Table {
	t := &Table{Format: "psv", Separator: "|"}
	t.context = ContextTable
	t.ContentModel = ContentCompound
	t.Attributes = Attributes{}
	t.self = t
	return t
}

// AddRow appends a row to the given group ("head", "body" or "foot").
func (t *Table) AddRow(group string, row []*Cell) {
	for _, c := range row {
		t.adopt(c)
	}
	switch group {
	case "head":
		t.Rows.Head = append(t.Rows.Head, row)
	case "foot":
		t.Rows.Foot = append(t.Rows.Foot, row)
	default:
		t.Rows.Body = append(t.Rows.Body, row)
	}
}

// AllRows returns head, body and foot rows in order.
func (t *Table) AllRows() [][]*Cell {
	out := make([][]*Cell, 0, t.RowCount())
	out = append(out, t.Rows.Head...)
	out = append(out, t.Rows.Body...)
	out = append(out, t.Rows.Foot...)
	return out
}

// RowCount returns the number of rows across all groups.
func (t *Table) RowCount() int {
	return len(t.Rows.Head) + len(t.Rows.Body) + len(t.Rows.Foot)
}

// ColCount returns the number of columns.
func (t *Table) ColCount() int {
	return len(t.Columns)
}

// GetCell returns the cell at the given row and position (0-indexed) over
// AllRows, or nil when out of bounds.
func (t *Table) GetCell(row, col int) *Cell {
	rows := t.AllRows()
	if row < 0 || row >= len(rows) {
		return nil
	}
	if col < 0 || col >= len(rows[row]) {
		return nil
	}
	return rows[row][col]
}

// Children returns the nested documents of AsciiDoc cells.
func (t *Table) Children() []Node {
	var out []Node
	for _, row := range t.AllRows() {
		for _, c := range row {
			if c.Inner != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// Text returns cell sources, tab separated, one row per line.
func (t *Table) Text() string {
	var sb strings.Builder
	for _, row := range t.AllRows() {
		for j, cell := range row {
			sb.WriteString(cell.Source)
			if j < len(row)-1 {
				sb.WriteString("\t")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
