package reader

import (
	"errors"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/tsawler/adoc/attrlist"
	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/resolver"
)

var tagDirectiveRx = regexp.MustCompile(`\b(?:tag|(e)nd)::(\S+?)\[\](?:$|[ \r])`)

// includeDirective expands an include line. It returns true when the line
// was consumed or replaced and false when it stays as literal text.
func (p *PreprocessorReader) includeDirective(target, attrlistSrc string) bool {
	doc := p.doc
	expanded := target
	if strings.Contains(target, "{") {
		policy := doc.Attrs.ValueOr("attribute-missing", "skip")
		if policy == "warn" {
			policy = "drop-line"
		}
		var ok bool
		expanded, ok = p.subAttrs(target, policy)
		if !ok || expanded == "" {
			attrs := p.includeAttributes(attrlistSrc)
			if doc.Attrs.Value("attribute-missing") == "drop-line" {
				p.shift()
				return true
			}
			if attrs.HasOption("optional") {
				p.warns.Logger().IncludeSkipped(target, "missing attribute")
				p.shift()
				return true
			}
			p.Warn(diag.AttributeResolution, "include dropped due to missing attribute: include::%s[%s]", target, attrlistSrc)
			return false
		}
	}

	if p.resolver == nil || !doc.SafeMode.CanIncludeFiles() {
		p.ReplaceNextLine("link:" + expanded + "[role=include]")
		return true
	}
	if len(p.frames) >= p.depth.curr {
		p.Warn(diag.IncludeResolution, "maximum include depth of %d exceeded", p.depth.rel)
		return false
	}
	if err := p.resolver.CheckDepth(len(p.frames) + 1); err != nil {
		p.Warn(diag.IncludeResolution, "%v", err)
		return false
	}

	attrs := p.includeAttributes(attrlistSrc)
	optional := attrs.HasOption("optional")
	t, err := p.resolver.Resolve(expanded, p.dir, p.Cursor())
	if err != nil {
		var secErr *diag.SecurityError
		switch {
		case errors.As(err, &secErr):
			p.Fail(err)
			return true
		case errors.Is(err, resolver.ErrURIReadDisabled):
			p.Warn(diag.SecurityViolation, "cannot include contents of URI: %s (allow-uri-read attribute not enabled)", expanded)
			p.ReplaceNextLine("link:" + expanded + "[role=include]")
			return true
		case errors.Is(err, resolver.ErrIncludesDisabled):
			p.ReplaceNextLine("link:" + expanded + "[role=include]")
			return true
		}
		p.Warn(diag.IncludeResolution, "include target not resolvable: %s", expanded)
		return false
	}
	if t.Recovered {
		p.Warn(diag.SecurityViolation, "include path %s is outside of the base directory; recovered as %s", expanded, t.Path)
	}

	data, err := p.resolver.Read(t)
	if err != nil {
		if optional {
			p.warns.Logger().IncludeSkipped(expanded, err.Error())
			p.shift()
			return true
		}
		kind := "file"
		if t.IsURI {
			kind = "uri"
		}
		if errors.Is(err, resolver.ErrNotFound) {
			p.Warn(diag.IncludeResolution, "include %s not found: %s", kind, t.Path)
		} else {
			p.Warn(diag.IncludeResolution, "include %s not readable: %s", kind, t.Path)
		}
		return false
	}
	if !attrs.Has("encoding") && format.DetectFromMagic(data) == format.Binary {
		p.Warn(diag.Encoding, "include file %s is binary", t.Path)
		return false
	}
	text, err := format.DecodeNamed(data, attrs.Value("encoding"))
	if err != nil {
		p.Warn(diag.Encoding, "include file %s could not be decoded: %v", t.Path, err)
		return false
	}
	lines := splitRaw(text)

	offset := 1
	if spec, ok := attrs.Get("lines"); ok && hasLineSelection(spec) {
		lines, offset = selectLines(lines, spec)
		attrs.SetOption("partial")
	} else if tags, ok := p.parseTags(attrs); ok {
		var partial bool
		lines, offset, partial = p.selectTags(lines, tags, t)
		if partial {
			attrs.SetOption("partial")
		}
	}
	p.shift()
	if offset == 0 {
		return true
	}
	if t.Format.IsAsciiDoc() {
		lines = trimTrailing(lines)
	}
	p.warns.Logger().IncludeResolved(expanded, t.Path, len(lines))
	p.PushInclude(lines, t.Path, t.Rel+path.Ext(filepathSlash(t.Path)), offset, attrs)
	return true
}

// includeAttributes parses the attribute list of an include directive
// after expanding attribute references in it.
func (p *PreprocessorReader) includeAttributes(src string) model.Attributes {
	if strings.Contains(src, "{") {
		src, _ = p.subAttrs(src, "skip")
	}
	return attrlist.Parse(src)
}

func filepathSlash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}

// splitRaw splits text into lines, dropping carriage returns and the empty
// line produced by a trailing newline.
func splitRaw(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func trimTrailing(lines []string) []string {
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\f\v")
	}
	return lines
}

// splitDelimited splits on commas, or on semicolons when there are none.
func splitDelimited(v string) []string {
	if strings.Contains(v, ",") {
		return strings.Split(v, ",")
	}
	return strings.Split(v, ";")
}

func hasLineSelection(spec string) bool {
	for _, def := range splitDelimited(spec) {
		if strings.TrimSpace(def) != "" {
			return true
		}
	}
	return false
}

// selectLines keeps the 1-based line numbers named by spec, such as
// "1..3;7" or "5..-1". It returns the selected lines and the number of the
// first one, or 0 when nothing was selected.
func selectLines(lines []string, spec string) ([]string, int) {
	wanted := map[int]bool{}
	openFrom := 0
	for _, def := range splitDelimited(spec) {
		def = strings.TrimSpace(def)
		from, to, isRange := strings.Cut(def, "..")
		if !isRange {
			if n, err := strconv.Atoi(def); err == nil {
				wanted[n] = true
			}
			continue
		}
		start, _ := strconv.Atoi(from)
		if start < 1 {
			start = 1
		}
		end, err := strconv.Atoi(to)
		if to == "" || err != nil || end < 0 {
			if openFrom == 0 || start < openFrom {
				openFrom = start
			}
			continue
		}
		for n := start; n <= end; n++ {
			wanted[n] = true
		}
	}
	var selected []string
	first := 0
	for i, l := range lines {
		n := i + 1
		if wanted[n] || (openFrom > 0 && n >= openFrom) {
			if first == 0 {
				first = n
			}
			selected = append(selected, l)
		}
	}
	return selected, first
}

// parseTags reads the tag or tags attribute into an ordered map of tag
// name to inclusion. A leading "!" excludes the tag.
func (p *PreprocessorReader) parseTags(attrs model.Attributes) (*linkedhashmap.Map, bool) {
	tags := linkedhashmap.New()
	if v, ok := attrs.Get("tag"); ok {
		switch {
		case v == "" || v == "!":
			return nil, false
		case strings.HasPrefix(v, "!"):
			tags.Put(v[1:], false)
		default:
			tags.Put(v, true)
		}
		return tags, true
	}
	v, ok := attrs.Get("tags")
	if !ok {
		return nil, false
	}
	for _, def := range splitDelimited(v) {
		def = strings.TrimSpace(def)
		switch {
		case def == "" || def == "!":
		case strings.HasPrefix(def, "!"):
			tags.Put(def[1:], false)
		default:
			tags.Put(def, true)
		}
	}
	if tags.Empty() {
		return nil, false
	}
	return tags, true
}

type openTag struct {
	name     string
	selected bool
	lineno   int
}

// selectTags keeps the lines between the selected tag directives. "**"
// selects every line outside of tags, "*" every tagged region, and a
// negated tag excludes its region. Tag directive lines are never kept.
func (p *PreprocessorReader) selectTags(lines []string, tags *linkedhashmap.Map, t resolver.Target) ([]string, int, bool) {
	tagValue := func(name string) bool {
		v, _ := tags.Get(name)
		return v.(bool)
	}
	var (
		sel, base bool
		wildcard  *bool
	)
	if _, ok := tags.Get("**"); ok {
		sel = tagValue("**")
		tags.Remove("**")
		base = sel
		if _, ok := tags.Get("*"); ok {
			w := tagValue("*")
			wildcard = &w
			tags.Remove("*")
		} else if vals := tags.Values(); !sel && len(vals) > 0 && !vals[0].(bool) {
			w := true
			wildcard = &w
		}
	} else if _, ok := tags.Get("*"); ok {
		w := tagValue("*")
		first := tags.Keys()[0].(string)
		tags.Remove("*")
		wildcard = &w
		if first == "*" {
			sel = !w
		} else {
			sel = false
		}
		base = sel
	} else {
		sel = true
		for _, v := range tags.Values() {
			if v.(bool) {
				sel = false
				break
			}
		}
		base = sel
	}

	kind := "file"
	if t.IsURI {
		kind = "uri"
	}
	var (
		selected []string
		stack    []openTag
		active   string
		found    = map[string]bool{}
		first    int
	)
	for i, l := range lines {
		n := i + 1
		if strings.Contains(l, "::") && strings.Contains(l, "[]") {
			if m := tagDirectiveRx.FindStringSubmatch(l); m != nil {
				name := m[2]
				if m[1] != "" {
					if name == active {
						stack = stack[:len(stack)-1]
						if len(stack) == 0 {
							active, sel = "", base
						} else {
							top := stack[len(stack)-1]
							active, sel = top.name, top.selected
						}
					} else if _, ok := tags.Get(name); ok {
						idx := -1
						for j := len(stack) - 1; j >= 0; j-- {
							if stack[j].name == name {
								idx = j
								break
							}
						}
						if idx >= 0 {
							stack = append(stack[:idx], stack[idx+1:]...)
							p.Warn(diag.IncludeResolution, "mismatched end tag (expected '%s' but found '%s') at line %d of include %s: %s", active, name, n, kind, t.Path)
						} else {
							p.Warn(diag.IncludeResolution, "unexpected end tag '%s' at line %d of include %s: %s", name, n, kind, t.Path)
						}
					}
				} else if _, ok := tags.Get(name); ok {
					sel = tagValue(name)
					if sel {
						found[name] = true
					}
					active = name
					stack = append(stack, openTag{name: name, selected: sel, lineno: n})
				} else if wildcard != nil {
					if active != "" && !sel {
						sel = false
					} else {
						sel = *wildcard
					}
					active = name
					stack = append(stack, openTag{name: name, selected: sel, lineno: n})
				}
				continue
			}
		}
		if sel {
			if first == 0 {
				first = n
			}
			selected = append(selected, l)
		}
	}

	for _, open := range stack {
		p.Warn(diag.IncludeResolution, "detected unclosed tag '%s' starting at line %d of include %s: %s", open.name, open.lineno, kind, t.Path)
	}
	var missing []string
	for _, k := range tags.Keys() {
		name := k.(string)
		if tagValue(name) && !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		plural := ""
		if len(missing) > 1 {
			plural = "s"
		}
		p.Warn(diag.IncludeResolution, "tag%s '%s' not found in include %s: %s", plural, strings.Join(missing, ", "), kind, t.Path)
	}
	partial := !(base && (wildcard == nil || *wildcard) && tags.Empty())
	return selected, first, partial
}
