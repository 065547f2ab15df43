package subs

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/attrlist"
	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
)

var (
	kbdBtnMacroRx   = regexp.MustCompile(`(?s)(\\)?(kbd|btn):\[(.*?[^\\])\]`)
	menuMacroRx     = regexp.MustCompile(`(?s)\\?menu:([\p{L}\p{N}_]|[\p{L}\p{N}_&][^\n\[]*[^\s\[])\[ *(|.*?[^\\])\]`)
	menuShorthandRx = regexp.MustCompile(`\\?"([\p{L}\p{N}_&][^"]*?[ \n]+&gt;[ \n]+[^"]*)"`)
	imageMacroRx    = regexp.MustCompile(`(?s)\\?i(?:mage|con):([^:\s\[](?:[^\n\[]*[^\s\[])?)\[(|.*?[^\\])\]`)
	mediaMacroRx    = regexp.MustCompile(`(?s)\\?(video|audio):([^:\s\[](?:[^\n\[]*[^\s\[])?)\[(|.*?[^\\])\]`)
	indextermRx     = regexp.MustCompile(`(?s)\\?(?:(indexterm2?):\[(.*?[^\\])\]|\(\(\((.+?)\)\)\)|\(\((.+?)\)\))`)
	rawLinkRx       = regexp.MustCompile(`(?ms)(^|link:|[ \t]|&lt;|[>\(\)\[\];"'])(\\?(?:https?|file|ftp|irc)://)(?:([^\s\[\]]+)\[(|.*?[^\\])\]|([^\s\[\]<]*([^\s,.?!\[\]<\)])))`)
	linkMacroRx     = regexp.MustCompile(`(?s)\\?(?:link|(mailto)):(|[^:\s\[][^\s\[]*)\[(|.*?[^\\])\]`)
	emailRx         = regexp.MustCompile(`([\\>:/])?[\p{L}\p{N}_](?:&amp;|[\p{L}\p{N}_\-.%+])*@[\p{L}\p{N}][\p{L}\p{N}_\-]*(?:\.[\p{L}\p{N}_\-]+)*\.\p{L}{2,}\b`)
	footnoteRx      = regexp.MustCompile(`(?s)\\?footnote(?:(ref):|:([\p{L}\p{N}_-]+)?)\[(|.*?[^\\])\]`)
	biblioAnchorRx  = regexp.MustCompile(`\\?\[\[\[([\p{L}\p{N}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+?))?\]\]\]`)
	inlineAnchorRx  = regexp.MustCompile(`(\\)?(?:\[\[([\p{L}_:][\p{L}\p{N}_\-:.]*)(?:, *(.+?))?\]\]|anchor:([\p{L}_:][\p{L}\p{N}_\-:.]*)\[(?:\]|(.*?[^\\])\]))`)
	xrefMacroRx     = regexp.MustCompile(`(?s)\\?(?:(?:&lt;&lt;|<<)([\p{L}\p{N}_#/.:{].*?)(?:&gt;&gt;|>>)|xref:([\p{L}\p{N}_#/.:{].*?)\[(?:\]|(.*?[^\\])\]))`)
	uriSchemeRx     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9.+-]*:/{0,2}`)
)

const (
	macroStart = "\u0098"
	macroEnd   = "\u0099"
)

var macroSlotRx = regexp.MustCompile(macroStart + `(\d+)` + macroEnd)

// macroPass carries the converted output of one macros stage. Converted
// macros are parked behind slot markers until the stage ends so later
// patterns never see them.
type macroPass struct {
	*Substitutor
	out []string
}

func (p *macroPass) park(s string) string {
	p.out = append(p.out, s)
	return macroStart + strconv.Itoa(len(p.out)-1) + macroEnd
}

func (p *macroPass) restore(text string) string {
	for i := 0; i <= len(p.out) && strings.Contains(text, macroStart); i++ {
		text = replaceFunc(macroSlotRx, text, func(m []string) string {
			idx, _ := strconv.Atoi(m[1])
			if idx < len(p.out) {
				return p.out[idx]
			}
			return ""
		})
	}
	return text
}

func (p *macroPass) emit(ctx model.Context, text, typ, target string, attrs model.Attributes) string {
	return p.park(p.inline(ctx, p.restore(text), typ, target, attrs))
}

// SubMacros converts inline macros, links, anchors and cross references.
func (s *Substitutor) SubMacros(text string) string {
	p := &macroPass{Substitutor: s}
	hasColon := strings.Contains(text, ":")
	hasBracket := strings.Contains(text, "[")

	if hasBracket && (strings.Contains(text, "kbd:") || strings.Contains(text, "btn:")) {
		text = replaceFunc(kbdBtnMacroRx, text, p.kbdBtn)
	}
	if hasBracket && strings.Contains(text, "menu:") {
		text = replaceFunc(menuMacroRx, text, p.menu)
	}
	if strings.Contains(text, "&gt;") && strings.Contains(text, `"`) {
		text = replaceFunc(menuShorthandRx, text, p.menuShorthand)
	}
	if hasBracket && (strings.Contains(text, "image:") || strings.Contains(text, "icon:")) {
		text = replaceFunc(imageMacroRx, text, p.image)
	}
	if hasBracket && (strings.Contains(text, "video:") || strings.Contains(text, "audio:")) {
		text = replaceFunc(mediaMacroRx, text, p.media)
	}
	if strings.Contains(text, "((") || strings.Contains(text, "indexterm") {
		text = replaceFunc(indextermRx, text, p.indexterm)
	}
	if hasColon && strings.Contains(text, "://") {
		text = replaceFunc(rawLinkRx, text, p.rawLink)
	}
	if hasBracket && (strings.Contains(text, "link:") || strings.Contains(text, "ilto:")) {
		text = replaceFunc(linkMacroRx, text, p.linkMacro)
	}
	if strings.Contains(text, "@") {
		text = replaceFunc(emailRx, text, p.email)
	}
	if hasBracket && strings.Contains(text, "tnote") {
		text = replaceFunc(footnoteRx, text, p.footnote)
	}
	if strings.Contains(text, "[[[") {
		text = replaceFunc(biblioAnchorRx, text, p.biblioAnchor)
	}
	if strings.Contains(text, "[[") || strings.Contains(text, "anchor:") {
		text = replaceFunc(inlineAnchorRx, text, p.inlineAnchor)
	}
	if strings.Contains(text, "&lt;&lt;") || strings.Contains(text, "<<") || strings.Contains(text, "xref:") {
		text = replaceFunc(xrefMacroRx, text, p.xref)
	}
	return p.restore(text)
}

func (p *macroPass) kbdBtn(m []string) string {
	if m[1] != "" {
		return m[0][1:]
	}
	if m[2] == "btn" {
		return p.emit(model.ContextInlineButton, normalizeText(m[3]), "", "", nil)
	}
	keys := unescapeBrackets(strings.TrimSpace(m[3]))
	attrs := model.Attributes{}
	attrs.Set("keys", strings.Join(splitKeys(keys), ","))
	return p.emit(model.ContextInlineKbd, "", "", "", attrs)
}

// splitKeys splits a key combination on its first , or + delimiter. A
// trailing delimiter is itself a key, as in Ctrl++.
func splitKeys(keys string) []string {
	if len(keys) < 2 {
		return []string{keys}
	}
	idx := -1
	comma := strings.IndexByte(keys[1:], ',')
	plus := strings.IndexByte(keys[1:], '+')
	switch {
	case comma >= 0 && (plus < 0 || comma < plus):
		idx = comma + 1
	case plus >= 0:
		idx = plus + 1
	}
	if idx < 0 {
		return []string{keys}
	}
	delim := keys[idx : idx+1]
	var parts []string
	trailing := strings.HasSuffix(keys, delim)
	if trailing {
		parts = strings.Split(keys[:len(keys)-1], delim)
	} else {
		parts = strings.Split(keys, delim)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if trailing {
		parts[len(parts)-1] += delim
	}
	return parts
}

func (p *macroPass) menu(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	var submenus []string
	item := ""
	if items := unescapeBrackets(m[2]); items != "" {
		delim := ""
		switch {
		case strings.Contains(items, "&gt;"):
			delim = "&gt;"
		case strings.Contains(items, ","):
			delim = ","
		}
		if delim != "" {
			for _, it := range strings.Split(items, delim) {
				submenus = append(submenus, strings.TrimSpace(it))
			}
			item = submenus[len(submenus)-1]
			submenus = submenus[:len(submenus)-1]
		} else {
			item = strings.TrimRight(items, " \t\n")
		}
	}
	return p.emit(model.ContextInlineMenu, "", "", "", menuAttributes(m[1], submenus, item))
}

func (p *macroPass) menuShorthand(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	var parts []string
	for _, it := range strings.Split(m[1], "&gt;") {
		parts = append(parts, strings.TrimSpace(it))
	}
	menu, rest := parts[0], parts[1:]
	item := rest[len(rest)-1]
	return p.emit(model.ContextInlineMenu, "", "", "", menuAttributes(menu, rest[:len(rest)-1], item))
}

func menuAttributes(menu string, submenus []string, item string) model.Attributes {
	attrs := model.Attributes{}
	attrs.Set("menu", menu)
	if len(submenus) > 0 {
		attrs.Set("submenus", strings.Join(submenus, ","))
	}
	if item != "" {
		attrs.Set("menuitem", item)
	}
	return attrs
}

func (p *macroPass) image(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	typ, positional := "image", []string{"alt", "width", "height"}
	if strings.HasPrefix(m[0], "icon:") {
		typ, positional = "icon", []string{"size"}
	}
	target := m[1]
	attrs := attrlist.ParseInto(nil, unescapeBrackets(m[2]), positional, nil)
	if typ == "image" {
		if dir, ok := p.doc.Attrs.Get("imagesdir"); ok {
			attrs.Set("imagesdir", dir)
		}
	}
	if attrs.Value("alt") == "" {
		alt := defaultAlt(target)
		attrs.Set("alt", alt)
		attrs.Set("default-alt", alt)
	}
	return p.emit(model.ContextInlineImage, "", typ, target, attrs)
}

func (p *macroPass) media(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	attrs := attrlist.ParseInto(nil, unescapeBrackets(m[3]), []string{"poster", "width", "height"}, nil)
	if attrs.Value("alt") == "" {
		attrs.Set("alt", defaultAlt(m[2]))
	}
	return p.emit(model.ContextInlineImage, "", m[1], m[2], attrs)
}

func defaultAlt(target string) string {
	base := path.Base(target)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

func (p *macroPass) indexterm(m []string) string {
	escaped := strings.HasPrefix(m[0], `\`)
	switch {
	case m[1] == "indexterm":
		if escaped {
			return m[0][1:]
		}
		return p.concealedTerm(normalizeText(m[2]))
	case m[1] == "indexterm2":
		if escaped {
			return m[0][1:]
		}
		return p.emit(model.ContextInlineIndexterm, normalizeText(m[2]), "visible", "", nil)
	case m[3] != "":
		if escaped {
			return "(" + p.emit(model.ContextInlineIndexterm, normalizeText(m[3]), "visible", "", nil) + ")"
		}
		return p.concealedTerm(normalizeText(m[3]))
	default:
		if escaped {
			return m[0][1:]
		}
		text, before, after := m[4], "", ""
		switch {
		case strings.HasPrefix(text, "("):
			text, before = text[1:], "("
		case strings.HasSuffix(text, ")"):
			text, after = text[:len(text)-1], ")"
		}
		return before + p.emit(model.ContextInlineIndexterm, normalizeText(text), "visible", "", nil) + after
	}
}

func (p *macroPass) concealedTerm(src string) string {
	var terms []string
	for _, t := range strings.Split(src, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	attrs := model.Attributes{}
	attrs.Set("terms", strings.Join(terms, ","))
	return p.emit(model.ContextInlineIndexterm, "", "concealed", "", attrs)
}

func (p *macroPass) rawLink(m []string) string {
	prefix, scheme := m[1], m[2]
	target := scheme + m[3] + m[5]
	if strings.HasPrefix(scheme, `\`) {
		return m[0][:len(prefix)] + m[0][len(prefix)+1:]
	}
	suffix := ""
	var (
		attrs    model.Attributes
		linkText string
		bare     bool
	)
	if m[3] != "" {
		if prefix == "link:" {
			prefix = ""
		}
		linkText = unescapeBrackets(m[4])
		if linkText != "" {
			linkText, attrs = p.linkAttributes(linkText, attrs)
		}
		if linkText == "" {
			bare = true
		}
	} else {
		switch prefix {
		case "link:", `"`, "'":
			return m[0]
		}
		switch m[6] {
		case ";":
			if strings.HasPrefix(prefix, "&lt;") && strings.HasSuffix(target, "&gt;") {
				prefix = prefix[4:]
				target = target[:len(target)-4]
			} else if target = target[:len(target)-1]; strings.HasSuffix(target, ")") {
				target = target[:len(target)-1]
				suffix = ");"
			} else {
				suffix = ";"
			}
			if strings.HasSuffix(target, "://") {
				return m[0]
			}
		case ":":
			if target = target[:len(target)-1]; strings.HasSuffix(target, ")") {
				target = target[:len(target)-1]
				suffix = "):"
			} else {
				suffix = ":"
			}
			if strings.HasSuffix(target, "://") {
				return m[0]
			}
		}
		bare = true
	}
	if bare {
		linkText = p.uriText(target)
		attrs = addRole(attrs, "bare")
	}
	return prefix + p.emit(model.ContextInlineAnchor, linkText, "link", target, attrs) + suffix
}

// linkAttributes pulls named attributes and the ^ window shorthand out
// of link text.
func (p *macroPass) linkAttributes(text string, attrs model.Attributes) (string, model.Attributes) {
	if strings.Contains(text, "=") {
		text, attrs = extractAttributes(text)
	}
	if strings.HasSuffix(text, "^") {
		text = text[:len(text)-1]
		if attrs == nil {
			attrs = model.Attributes{}
		}
		if !attrs.Has("window") {
			attrs.Set("window", "_blank")
		}
	}
	return text, attrs
}

func (p *macroPass) uriText(target string) string {
	if p.doc.Attrs.Has("hide-uri-scheme") {
		if t := uriSchemeRx.ReplaceAllString(target, ""); t != "" {
			return t
		}
	}
	return target
}

func addRole(attrs model.Attributes, role string) model.Attributes {
	if attrs == nil {
		attrs = model.Attributes{}
	}
	if existing := attrs.Value("role"); existing != "" {
		role = role + " " + existing
	}
	attrs.Set("role", role)
	return attrs
}

// extractAttributes parses text as an attribute list. The first
// positional entry becomes the text; when the list is only that entry the
// attributes are discarded.
func extractAttributes(text string) (string, model.Attributes) {
	src := strings.ReplaceAll(text, "\n", " ")
	attrs := attrlist.Parse(src)
	if first, ok := attrs.Get("1"); ok {
		if first == src {
			return text, nil
		}
		return first, attrs
	}
	return "", attrs
}

func (p *macroPass) linkMacro(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	mailto := m[1] != ""
	target := m[2]
	if mailto {
		target = "mailto:" + m[2]
	}
	var attrs model.Attributes
	text := unescapeBrackets(m[3])
	if text != "" {
		if mailto {
			if strings.Contains(text, ",") {
				text, attrs = extractAttributes(text)
				if subject, ok := attrs.Get("2"); ok {
					target += "?subject=" + encodeURIComponent(subject)
					if body, ok := attrs.Get("3"); ok {
						target += "&amp;body=" + encodeURIComponent(body)
					}
				}
			}
			if strings.HasSuffix(text, "^") {
				text, attrs = p.linkAttributes(text, attrs)
			}
		} else {
			text, attrs = p.linkAttributes(text, attrs)
		}
	}
	if text == "" {
		if mailto {
			text = m[2]
		} else {
			text = p.uriText(target)
			attrs = addRole(attrs, "bare")
		}
	}
	return p.emit(model.ContextInlineAnchor, text, "link", target, attrs)
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (p *macroPass) email(m []string) string {
	if m[1] != "" {
		if m[1] == `\` {
			return m[0][1:]
		}
		return m[0]
	}
	return p.emit(model.ContextInlineAnchor, m[0], "link", "mailto:"+m[0], nil)
}

func (p *macroPass) footnote(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	var id, content string
	if m[1] != "" {
		if m[3] == "" {
			return m[0]
		}
		id, content, _ = strings.Cut(m[3], ",")
	} else {
		id, content = m[2], m[3]
	}
	content = p.RestorePassthroughs(p.restore(normalizeText(content)))

	attrs := model.Attributes{}
	typ, target := "", ""
	switch {
	case id != "" && p.doc.Footnote(id) != nil:
		fn := p.doc.Footnote(id)
		content = fn.Text
		attrs.Set("index", strconv.Itoa(fn.Index))
		typ, target = "xref", id
	case content != "":
		fn := p.doc.RegisterFootnote(id, content)
		attrs.Set("index", strconv.Itoa(fn.Index))
		if id != "" {
			attrs.Set("id", id)
		}
	case id != "":
		p.warns.Warn(diag.MalformedSyntax, p.cursor(), "invalid footnote reference: %s", id)
		typ, target, content = "xref", id, id
	default:
		return m[0]
	}
	return p.emit(model.ContextInlineFootnote, content, typ, target, attrs)
}

func (p *macroPass) biblioAnchor(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	attrs := model.Attributes{}
	attrs.Set("id", m[1])
	return p.emit(model.ContextInlineAnchor, m[2], "bibref", m[1], attrs)
}

func (p *macroPass) inlineAnchor(m []string) string {
	if m[1] != "" {
		return m[0][1:]
	}
	id, reftext := m[2], m[3]
	if id == "" {
		id, reftext = m[4], unescapeBrackets(m[5])
	}
	attrs := model.Attributes{}
	attrs.Set("id", id)
	return p.emit(model.ContextInlineAnchor, reftext, "ref", id, attrs)
}

func (p *macroPass) xref(m []string) string {
	if strings.HasPrefix(m[0], `\`) {
		return m[0][1:]
	}
	var (
		id, text string
		attrs    model.Attributes
		macro    bool
	)
	if m[1] != "" {
		id, text, _ = strings.Cut(m[1], ",")
		text = strings.TrimLeft(text, " \t")
	} else {
		macro = true
		id = m[2]
		if m[3] != "" {
			text = unescapeBrackets(m[3])
			if strings.Contains(text, "=") {
				text, attrs = extractAttributes(text)
			}
		}
	}
	if attrs == nil {
		attrs = model.Attributes{}
	}

	var refPath, fragment, refid, target, src2src string
	if hash := strings.IndexByte(id, '#'); hash >= 0 {
		if hash > 0 {
			refPath = id[:hash]
			if hash < len(id)-1 {
				fragment = id[hash+1:]
			}
			switch {
			case strings.HasSuffix(refPath, ".adoc"):
				refPath = strings.TrimSuffix(refPath, ".adoc")
				src2src = refPath
			case macro && path.Ext(refPath) != "":
			case !macro && isAsciiDocExt(path.Ext(refPath)):
				refPath = strings.TrimSuffix(refPath, path.Ext(refPath))
				src2src = refPath
			default:
				src2src = refPath
			}
		} else {
			target, fragment = id, id[1:]
		}
	} else if macro && strings.HasSuffix(id, ".adoc") {
		refPath = strings.TrimSuffix(id, ".adoc")
		src2src = refPath
	} else if macro && path.Ext(id) != "" {
		refPath = id
	} else {
		fragment = id
	}

	switch {
	case target != "":
		refid = fragment
	case refPath != "":
		if src2src != "" && (p.doc.Attrs.Value("docname") == refPath || p.doc.Catalog.HasInclude(refPath)) {
			if fragment != "" {
				refid, refPath, target = fragment, "", "#"+fragment
			} else {
				refid, refPath, target = "", "", "#"
			}
		} else {
			suffix := ""
			if src2src != "" {
				suffix = p.doc.Attrs.ValueOr("relfilesuffix", p.doc.Attrs.ValueOr("outfilesuffix", ".html"))
			}
			refid = refPath
			refPath = p.doc.Attrs.Value("relfileprefix") + refPath + suffix
			if fragment != "" {
				refid, target = refid+"#"+fragment, refPath+"#"+fragment
			} else {
				target = refPath
			}
		}
	default:
		refid = fragment
		if !p.doc.Catalog.Has(fragment) && (strings.Contains(fragment, " ") || strings.ToLower(fragment) != fragment) {
			if resolved, ok := p.doc.Catalog.ResolveByReftext(fragment); ok {
				fragment, refid = resolved, resolved
			}
		}
		target = "#" + fragment
	}

	if refPath != "" {
		attrs.Set("path", refPath)
	}
	if fragment != "" {
		attrs.Set("fragment", fragment)
	}
	if refid != "" {
		attrs.Set("refid", refid)
	}
	if text == "" {
		text = p.xrefText(refid, refPath)
	}
	return p.emit(model.ContextInlineAnchor, text, "xref", target, attrs)
}

// xrefText resolves the text of a cross reference with no explicit text:
// the converted title of the target, its reftext, or the id in brackets.
func (p *macroPass) xrefText(refid, refPath string) string {
	if refPath != "" {
		return refPath
	}
	ref, ok := p.doc.Catalog.Resolve(refid)
	if !ok {
		if refid == "" {
			return ""
		}
		return "[" + refid + "]"
	}
	if ref.Node != nil {
		if t := ref.Node.Base().ConvertedTitle; t != "" && ref.Reftext == ref.Node.Base().Title {
			return t
		}
	}
	if ref.Reftext != "" {
		return p.ApplySubs(ref.Reftext, []model.Sub{model.SubSpecialCharacters, model.SubQuotes, model.SubReplacements})
	}
	return "[" + refid + "]"
}

func isAsciiDocExt(ext string) bool {
	switch ext {
	case ".adoc", ".asciidoc", ".asc", ".ad", ".txt":
		return true
	}
	return false
}

// normalizeText collapses line breaks into spaces, trims the result and
// unescapes closing brackets.
func normalizeText(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	return unescapeBrackets(s)
}
