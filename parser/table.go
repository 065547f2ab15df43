package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/reader"
)

var (
	colSpecRx       = regexp.MustCompile(`^(?:(\d+)\*)?([<^>])?(?:\.([<^>]))?(\d+%?|~)?([a-z])?$`)
	cellSpecStartRx = regexp.MustCompile(`^[ \t]*(?:(\d+(?:\.\d*)?|(?:\d*\.)?\d+)([*+]))?([<^>](?:\.[<^>]?)?|(?:[<^>]?\.)?[<^>])?([a-z])?$`)
	cellSpecEndRx   = regexp.MustCompile(`[ \t]+(?:(\d+(?:\.\d*)?|(?:\d*\.)?\d+)([*+]))?([<^>](?:\.[<^>]?)?|(?:[<^>]?\.)?[<^>])?([a-z])?$`)
)

var (
	halignNames = map[byte]string{'<': "left", '^': "center", '>': "right"}
	valignNames = map[byte]string{'<': "top", '^': "middle", '>': "bottom"}
)

// cellSpec is the prefix of a psv cell such as "2+^.>s".
type cellSpec struct {
	repeat  int
	colspan int
	rowspan int
	halign  string
	valign  string
	style   model.CellStyle
	styled  bool
}

func defaultCellSpec() cellSpec {
	return cellSpec{repeat: 1, colspan: 1, rowspan: 1}
}

// parseCellSpec reads the groups of cellSpecStartRx or cellSpecEndRx. It
// reports false when every group is empty.
func parseCellSpec(m []string) (cellSpec, bool) {
	spec := defaultCellSpec()
	if m[2] == "" && m[3] == "" && m[4] == "" {
		return spec, false
	}
	switch m[2] {
	case "*":
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			spec.repeat = n
		}
	case "+":
		col, row, _ := strings.Cut(m[1], ".")
		if n, err := strconv.Atoi(col); err == nil && n > 0 {
			spec.colspan = n
		}
		if n, err := strconv.Atoi(row); err == nil && n > 0 {
			spec.rowspan = n
		}
	}
	if a := m[3]; a != "" {
		h, v, _ := strings.Cut(a, ".")
		if h != "" {
			spec.halign = halignNames[h[0]]
		}
		if v != "" {
			spec.valign = valignNames[v[0]]
		}
	}
	if m[4] != "" {
		spec.style, spec.styled = model.ParseCellStyle(m[4][0])
	}
	return spec, true
}

// parseColumns reads the cols attribute: a column count or a comma
// separated list of column specs such as "1,2*3,<.^2m".
func parseColumns(spec string) []*model.Column {
	spec = strings.TrimSpace(spec)
	var cols []*model.Column
	if n, err := strconv.Atoi(spec); err == nil {
		for i := 0; i < n; i++ {
			cols = append(cols, newColumn())
		}
		return numberColumns(cols)
	}
	for _, rec := range strings.Split(strings.ReplaceAll(spec, ";", ","), ",") {
		col := newColumn()
		repeat := 1
		if m := colSpecRx.FindStringSubmatch(strings.TrimSpace(rec)); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				repeat = n
			}
			if m[2] != "" {
				col.HAlign = halignNames[m[2][0]]
			}
			if m[3] != "" {
				col.VAlign = valignNames[m[3][0]]
			}
			switch w := m[4]; {
			case w == "~":
				col.Width = 0
			case w != "":
				if n, err := strconv.Atoi(strings.TrimSuffix(w, "%")); err == nil {
					col.Width = n
				}
			}
			if m[5] != "" {
				col.Style, _ = model.ParseCellStyle(m[5][0])
			}
		}
		for i := 0; i < repeat; i++ {
			c := *col
			cols = append(cols, &c)
		}
	}
	return numberColumns(cols)
}

func newColumn() *model.Column {
	return &model.Column{Width: 1, HAlign: "left", VAlign: "top"}
}

func numberColumns(cols []*model.Column) []*model.Column {
	for i, c := range cols {
		c.Number = i + 1
	}
	return cols
}

// rawCell is a cell as scanned, before it is placed in a row.
type rawCell struct {
	spec cellSpec
	text string
	// line is the offset of the content line the cell starts on.
	line int
}

// tableBuilder scans the content of one table.
type tableBuilder struct {
	p      *Parser
	t      *model.Table
	cursor model.Cursor
	header bool
	cells  []rawCell
	warned bool
}

func (p *Parser) buildTable(st *blockState) (model.Node, error) {
	f := st.fence
	cur := st.cursor
	lines := st.r.ReadLinesUntil(reader.UntilOptions{
		Terminator:    f.close,
		SkipFirstLine: true,
		Context:       "table",
		Cursor:        &cur,
	}, nil)

	t := model.NewTable()
	attrs := st.attrs
	switch f.close[0] {
	case ',':
		t.Format, t.Separator = "csv", ","
	case ':':
		t.Format, t.Separator = "dsv", ":"
	case '!':
		t.Separator = "!"
	}
	switch attrs.Value("format") {
	case "csv":
		t.Format, t.Separator = "csv", ","
	case "tsv":
		t.Format, t.Separator = "tsv", "\t"
	case "dsv":
		t.Format, t.Separator = "dsv", ":"
	case "psv":
		t.Format = "psv"
		if t.Separator != "!" {
			t.Separator = "|"
		}
	}
	if sep := attrs.Value("separator"); sep != "" {
		if sep == `\t` {
			sep = "\t"
		}
		t.Separator = sep
	}
	if cols := attrs.Value("cols"); cols != "" {
		t.Columns = parseColumns(cols)
	}
	if !attrs.HasOption("header") && !attrs.HasOption("noheader") &&
		len(lines) > 2 && lines[0] != "" && lines[1] == "" {
		attrs.SetOption("header")
	}

	tb := &tableBuilder{p: p, t: t, cursor: st.cursor, header: attrs.HasOption("header")}
	switch t.Format {
	case "csv", "tsv":
		tb.scanCSV(lines)
	case "dsv":
		tb.scanDSV(lines)
	default:
		tb.scanPSV(lines)
	}
	if len(t.Columns) == 0 {
		n := tb.firstRowWidth()
		for i := 0; i < n; i++ {
			t.Columns = append(t.Columns, newColumn())
		}
		numberColumns(t.Columns)
	}
	rows, err := tb.rows()
	if err != nil {
		return nil, err
	}
	if tb.header && len(rows) > 0 {
		t.AddRow("head", rows[0])
		rows = rows[1:]
	}
	var foot []*model.Cell
	if attrs.HasOption("footer") && len(rows) > 0 {
		foot = rows[len(rows)-1]
		rows = rows[:len(rows)-1]
	}
	for _, row := range rows {
		t.AddRow("body", row)
	}
	if foot != nil {
		t.AddRow("foot", foot)
	}
	t.Attributes.Set("colcount", strconv.Itoa(len(t.Columns)))
	t.Attributes.Set("rowcount", strconv.Itoa(t.RowCount()))
	return t, nil
}

// scanPSV splits prefix-separated content into cells. A separator escaped
// with a backslash is literal text, and a cell spec in front of a
// separator applies to the cell it opens.
func (tb *tableBuilder) scanPSV(lines []string) {
	sep := tb.t.Separator
	var cur *rawCell
	for i, line := range lines {
		if cur == nil && line == "" {
			continue
		}
		pos := 0
		for {
			idx := indexUnescaped(line, sep, pos)
			if idx < 0 {
				rest := unescapeSeparator(line[pos:], sep)
				if cur == nil {
					tb.warnMissingSeparator(i)
					cur = &rawCell{spec: defaultCellSpec(), line: i}
				}
				cur.text += rest + "\n"
				break
			}
			spec, text := splitCellSpec(line[pos:idx], pos == 0)
			text = unescapeSeparator(text, sep)
			if cur == nil {
				if strings.TrimSpace(text) != "" {
					tb.warnMissingSeparator(i)
					tb.cells = append(tb.cells, rawCell{spec: defaultCellSpec(), text: text, line: i})
				}
			} else {
				cur.text += text
				tb.cells = append(tb.cells, *cur)
			}
			cur = &rawCell{spec: spec, line: i}
			pos = idx + len(sep)
		}
	}
	if cur != nil {
		tb.cells = append(tb.cells, *cur)
	}
}

func (tb *tableBuilder) warnMissingSeparator(line int) {
	if tb.warned {
		return
	}
	tb.warned = true
	tb.p.warn(diag.MalformedSyntax, tb.cursor.Advance(1+line), "table missing leading separator; recovering automatically")
}

// splitCellSpec separates a trailing cell spec from the text before a
// separator. At the start of a line the whole text may be a spec.
func splitCellSpec(before string, lineStart bool) (cellSpec, string) {
	if lineStart {
		if m := cellSpecStartRx.FindStringSubmatch(before); m != nil {
			if spec, ok := parseCellSpec(m); ok {
				return spec, ""
			}
		}
	}
	if m := cellSpecEndRx.FindStringSubmatchIndex(before); m != nil {
		groups := make([]string, 5)
		for g := 1; g <= 4; g++ {
			if m[2*g] >= 0 {
				groups[g] = before[m[2*g]:m[2*g+1]]
			}
		}
		if spec, ok := parseCellSpec(groups); ok {
			return spec, before[:m[0]]
		}
	}
	return defaultCellSpec(), before
}

// indexUnescaped returns the index of the first sep at or after from that
// is not preceded by a backslash, or -1.
func indexUnescaped(line, sep string, from int) int {
	for i := from; i <= len(line); {
		j := strings.Index(line[i:], sep)
		if j < 0 {
			return -1
		}
		j += i
		if j > 0 && line[j-1] == '\\' {
			i = j + len(sep)
			continue
		}
		return j
	}
	return -1
}

func unescapeSeparator(s, sep string) string {
	return strings.ReplaceAll(s, `\`+sep, sep)
}

// scanCSV reads comma or tab separated records, one row per record.
func (tb *tableBuilder) scanCSV(lines []string) {
	cr := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	cr.Comma = []rune(tb.t.Separator)[0]
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			tb.p.warn(diag.MalformedSyntax, tb.cursor, "invalid %s table data: %v", tb.t.Format, err)
			return
		}
		for _, field := range rec {
			tb.cells = append(tb.cells, rawCell{spec: defaultCellSpec(), text: field, line: n})
		}
	}
}

// scanDSV splits each line on unescaped separators.
func (tb *tableBuilder) scanDSV(lines []string) {
	sep := tb.t.Separator
	row := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		pos := 0
		for {
			idx := indexUnescaped(line, sep, pos)
			if idx < 0 {
				tb.cells = append(tb.cells, rawCell{spec: defaultCellSpec(), text: unescapeSeparator(line[pos:], sep), line: row})
				break
			}
			tb.cells = append(tb.cells, rawCell{spec: defaultCellSpec(), text: unescapeSeparator(line[pos:idx], sep), line: row})
			pos = idx + len(sep)
		}
		row++
	}
}

// firstRowWidth is the number of columns implied by the cells that start
// on the first content line.
func (tb *tableBuilder) firstRowWidth() int {
	if len(tb.cells) == 0 {
		return 0
	}
	first := tb.cells[0].line
	n := 0
	for _, c := range tb.cells {
		if c.line != first {
			break
		}
		n += c.spec.colspan * c.spec.repeat
	}
	return n
}

// rows places the scanned cells into rows, honoring spans.
func (tb *tableBuilder) rows() ([][]*model.Cell, error) {
	ncols := len(tb.t.Columns)
	if ncols == 0 {
		return nil, nil
	}
	var rows [][]*model.Cell
	var row []*model.Cell
	occupied := make([]int, ncols)
	col := 0

	endRow := func() {
		rows = append(rows, row)
		row = nil
		col = 0
		for i := range occupied {
			if occupied[i] > 0 {
				occupied[i]--
			}
		}
	}
	skip := func() {
		for {
			for col < ncols && occupied[col] > 0 {
				col++
			}
			if col < ncols {
				return
			}
			endRow()
		}
	}

	for _, rc := range tb.cells {
		for n := 0; n < rc.spec.repeat; n++ {
			skip()
			cell, err := tb.cell(rc, tb.t.Columns[col], len(rows) == 0 && tb.header)
			if err != nil {
				return nil, err
			}
			if cell.ColSpan > ncols-col {
				cell.ColSpan = ncols - col
			}
			if cell.RowSpan > 1 {
				for k := 0; k < cell.ColSpan; k++ {
					occupied[col+k] = cell.RowSpan
				}
			}
			row = append(row, cell)
			col += cell.ColSpan
			for col < ncols && occupied[col] > 0 {
				col++
			}
			if col >= ncols {
				endRow()
			}
		}
	}
	if len(row) > 0 {
		tb.p.warn(diag.MalformedSyntax, tb.cursor, "dropping cells from incomplete row detected end of table")
	}
	return rows, nil
}

// cell builds the cell for rc placed in column col.
func (tb *tableBuilder) cell(rc rawCell, col *model.Column, head bool) (*model.Cell, error) {
	p := tb.p
	spec := rc.spec
	style := col.Style
	if spec.styled {
		style = spec.style
	}
	if head && style == model.CellStyleAsciiDoc {
		style = model.CellStyleDefault
	}
	cursor := tb.cursor.Advance(1 + rc.line)

	var source string
	switch style {
	case model.CellStyleLiteral, model.CellStyleVerse:
		source = strings.Join(trimBlankLines(strings.Split(strings.TrimRight(rc.text, " \t\n"), "\n")), "\n")
	default:
		source = strings.TrimSpace(rc.text)
	}
	c := model.NewCell(source)
	c.Style = style
	c.Column = col
	c.ColSpan, c.RowSpan = spec.colspan, spec.rowspan
	c.HAlign, c.VAlign = col.HAlign, col.VAlign
	if spec.halign != "" {
		c.HAlign = spec.halign
	}
	if spec.valign != "" {
		c.VAlign = spec.valign
	}
	c.Cursor = p.cursor(cursor)
	c.Lines = strings.Split(source, "\n")

	switch style {
	case model.CellStyleAsciiDoc:
		c.ContentModel = model.ContentCompound
		if err := p.parseCellDocument(c, cursor); err != nil {
			return nil, err
		}
	case model.CellStyleLiteral:
		c.ContentModel = model.ContentVerbatim
		c.Subs = nil
	default:
		c.Subs = model.NormalSubs
		p.catalogInlineAnchors(source, cursor)
	}
	return c, nil
}

// parseCellDocument parses an AsciiDoc cell as a nested document that
// shares the catalog of the enclosing one.
func (p *Parser) parseCellDocument(c *model.Cell, cursor model.Cursor) error {
	inner := model.NewNestedDocument(p.doc)
	r := reader.NewPreprocessor(inner, c.Lines, cursor, p.warns, p.readerOpts...)
	child := New(inner, p.warns, WithReaderOptions(p.readerOpts...))
	if err := child.Parse(r); err != nil {
		return err
	}
	c.Inner = inner
	return nil
}
