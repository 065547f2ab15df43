package reader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/resolver"
)

var (
	conditionalDirectiveRx = regexp.MustCompile(`^(\\)?(ifdef|ifndef|ifeval|endif)::(\S*?(?:([,+])\S*?)?)\[(.+)?\]$`)
	includeDirectiveRx     = regexp.MustCompile(`^(\\)?include::([^\s\[](?:[^\[]*[^\s\[])?)\[(.+)?\]$`)
)

// AttributeSubstituter expands attribute references in text using the
// given attribute-missing policy. It returns false when the policy drops
// the line.
type AttributeSubstituter func(text, policy string) (string, bool)

// depthLimit tracks the include depth allowed for the current frame.
type depthLimit struct {
	abs  int
	curr int
	rel  int
}

// frame is a suspended include level.
type frame struct {
	lines        []string
	file         string
	dir          string
	path         string
	lineno       int
	depth        depthLimit
	processLines bool
}

// conditional is one entry of the directive stack.
type conditional struct {
	target   string
	skip     bool
	skipping bool
}

// PreprocessorReader is a Reader that evaluates conditional and include
// directives as lines are peeked. Includes push a new frame; exhausted
// frames pop and resume the including file.
type PreprocessorReader struct {
	*Reader

	doc          *model.Document
	resolver     *resolver.IncludeResolver
	subAttrs     AttributeSubstituter
	frames       []frame
	depth        depthLimit
	conditionals *arraystack.Stack
	skipping     bool
}

// Option configures a PreprocessorReader.
type Option func(*PreprocessorReader)

// WithResolver sets the include resolver. Without one, includes are
// treated as in the secure safe mode.
func WithResolver(res *resolver.IncludeResolver) Option {
	return func(p *PreprocessorReader) {
		p.resolver = res
	}
}

// WithAttributeSubstituter sets the function that expands attribute
// references in include targets and ifeval operands.
func WithAttributeSubstituter(fn AttributeSubstituter) Option {
	return func(p *PreprocessorReader) {
		p.subAttrs = fn
	}
}

// NewPreprocessor creates a preprocessing reader for doc. The include
// depth limit is read from the max-include-depth attribute.
func NewPreprocessor(doc *model.Document, lines []string, cursor model.Cursor, warns *diag.Collector, opts ...Option) *PreprocessorReader {
	p := &PreprocessorReader{
		Reader:       &Reader{},
		doc:          doc,
		conditionals: arraystack.New(),
	}
	p.Reader.init(lines, cursor, warns)
	p.Reader.hook = p
	for _, opt := range opts {
		opt(p)
	}
	if p.subAttrs == nil {
		p.subAttrs = func(text, _ string) (string, bool) { return text, true }
	}
	max := doc.Attrs.Int("max-include-depth", 64)
	p.depth = depthLimit{abs: max, curr: max, rel: max}
	return p
}

// Document returns the document the reader applies entries to.
func (p *PreprocessorReader) Document() *model.Document { return p.doc }

// IncludeDepth returns the number of suspended frames.
func (p *PreprocessorReader) IncludeDepth() int { return len(p.frames) }

// Skipping reports whether lines are being dropped by a false conditional.
func (p *PreprocessorReader) Skipping() bool { return p.skipping }

// PushInclude suspends the current frame and reads lines next. file is the
// resolved location, path the logical path shown in diagnostics. The
// leveloffset, indent, depth and partial-option attributes are honored.
func (p *PreprocessorReader) PushInclude(lines []string, file, path string, lineno int, attrs model.Attributes) {
	if attrs == nil {
		attrs = model.Attributes{}
	}
	r := p.Reader
	p.frames = append(p.frames, frame{
		lines:        r.lines,
		file:         r.file,
		dir:          r.dir,
		path:         r.path,
		lineno:       r.lineno,
		depth:        p.depth,
		processLines: r.processLines,
	})

	r.file = file
	if file != "" {
		if resolver.IsURI(file) {
			r.dir = file[:strings.LastIndex(file, "/")]
		} else {
			r.dir = dirOf(file)
		}
		if path == "" {
			path = baseOf(file)
		}
		r.path = path
		r.processLines = format.Detect(file).IsAsciiDoc()
		if r.processLines && !attrs.HasOption("partial") {
			p.doc.Catalog.AddInclude(rootname(path))
		}
	} else {
		// Data without a file resolves against the including frame.
		r.processLines = true
		if path != "" {
			r.path = path
			if !attrs.HasOption("partial") {
				p.doc.Catalog.AddInclude(rootname(path))
			}
		} else {
			r.path = "<stdin>"
		}
	}
	r.lineno = lineno

	if v, ok := attrs.Get("depth"); ok {
		if rel, err := strconv.Atoi(v); err == nil && rel > 0 {
			curr := len(p.frames) + rel
			if curr > p.depth.abs {
				curr, rel = p.depth.abs, p.depth.abs
			}
			p.depth = depthLimit{abs: p.depth.abs, curr: curr, rel: rel}
		} else {
			p.depth = depthLimit{abs: p.depth.abs, curr: len(p.frames), rel: 0}
		}
	}

	if !r.processLines {
		lines = chompLines(lines)
	}
	if v, ok := attrs.Get("indent"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			lines = adjustIndentation(lines, n, p.doc.Attrs.Int("tabsize", 0))
		}
	}
	if len(lines) == 0 {
		r.lines = nil
		p.popFrame()
		return
	}
	if offset, ok := attrs.Get("leveloffset"); ok {
		restore := ":leveloffset!:"
		if old, ok := p.doc.Attrs.Get("leveloffset"); ok {
			restore = ":leveloffset: " + old
		}
		wrapped := make([]string, 0, len(lines)+4)
		wrapped = append(wrapped, ":leveloffset: "+offset, "")
		wrapped = append(wrapped, lines...)
		wrapped = append(wrapped, "", restore)
		lines = wrapped
		r.lineno -= 2
	}
	r.lines = reversed(lines)
	r.lookAhead = 0
}

// popFrame restores the including frame.
func (p *PreprocessorReader) popFrame() bool {
	n := len(p.frames)
	if n == 0 {
		return false
	}
	f := p.frames[n-1]
	p.frames = p.frames[:n-1]
	r := p.Reader
	r.lines, r.file, r.dir, r.path, r.lineno = f.lines, f.file, f.dir, f.path, f.lineno
	r.processLines = f.processLines
	p.depth = f.depth
	r.lookAhead = 0
	return true
}

// processLine evaluates directives on the next line.
func (p *PreprocessorReader) processLine(line string) (string, bool) {
	r := p.Reader
	if line == "" {
		if p.skipping {
			r.shift()
			return "", false
		}
		r.lookAhead++
		return line, true
	}

	if strings.HasSuffix(line, "]") && !strings.HasPrefix(line, "[") && strings.Contains(line, "::") {
		if strings.Contains(line, "if") {
			if m := conditionalDirectiveRx.FindStringSubmatch(line); m != nil {
				if m[1] == `\` {
					r.unescapeNext = true
					r.lookAhead++
					return line[1:], true
				}
				wasSkipping := p.skipping
				if p.conditionalDirective(m[2], m[3], m[4], m[5], m[5] != "") {
					r.shift()
					// The line after a skipped region is attributed one
					// line early until the next read.
					if wasSkipping && !p.skipping {
						r.lag = true
					}
					return "", false
				}
				r.lookAhead++
				return line, true
			}
		}
		if p.skipping {
			r.shift()
			return "", false
		}
		if strings.HasPrefix(line, "inc") || strings.HasPrefix(line, `\inc`) {
			if m := includeDirectiveRx.FindStringSubmatch(line); m != nil {
				if m[1] == `\` {
					r.unescapeNext = true
					r.lookAhead++
					return line[1:], true
				}
				if p.includeDirective(m[2], m[3]) {
					return "", false
				}
				r.lookAhead++
				return line, true
			}
		}
		r.lookAhead++
		return line, true
	}
	if p.skipping {
		r.shift()
		return "", false
	}
	r.lookAhead++
	return line, true
}

func dirOf(file string) string {
	i := strings.LastIndexAny(file, `/\`)
	if i < 0 {
		return "."
	}
	if i == 0 {
		return file[:1]
	}
	return file[:i]
}

func baseOf(file string) string {
	return file[strings.LastIndexAny(file, `/\`)+1:]
}

// rootname strips the extension from the last path segment.
func rootname(path string) string {
	base := strings.LastIndexAny(path, `/\`)
	if dot := strings.LastIndex(path, "."); dot > base+1 {
		return path[:dot]
	}
	return path
}

// chompLines removes carriage returns left by CRLF line endings.
func chompLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}

// adjustIndentation removes the common leading indentation of lines and
// indents them by indent spaces. Tabs are expanded to tabsize columns
// first when tabsize is positive.
func adjustIndentation(lines []string, indent, tabsize int) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	if tabsize > 0 {
		for i, l := range out {
			out[i] = expandTabs(l, tabsize)
		}
	}
	min := -1
	for _, l := range out {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if min < 0 || n < min {
			min = n
		}
	}
	if min < 0 {
		return out
	}
	pad := ""
	if indent > 0 {
		pad = strings.Repeat(" ", indent)
	}
	for i, l := range out {
		if strings.TrimSpace(l) == "" {
			out[i] = ""
			continue
		}
		out[i] = pad + l[min:]
	}
	return out
}

func expandTabs(line string, tabsize int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	col := 0
	for _, c := range line {
		if c == '\t' {
			n := tabsize - col%tabsize
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(c)
		col++
	}
	return sb.String()
}
