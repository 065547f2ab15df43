package subs

import (
	"regexp"
	"strings"

	"github.com/tsawler/adoc/model"
)

type quoteScope int

const (
	constrained quoteScope = iota
	unconstrained
)

type quoteRule struct {
	typ   string
	scope quoteScope
	rx    *regexp.Regexp
}

// Constrained patterns capture (prefix, attrlist, text); unconstrained
// ones capture (attrlist, text). Order matters: unconstrained forms run
// before their constrained counterparts.
var quoteRules = []quoteRule{
	{"strong", unconstrained, regexp.MustCompile(`(?ms)\\?(?:\[([^\]]+)\])?\*\*(.+?)\*\*`)},
	{"strong", constrained, regexp.MustCompile(`(?ms)(^|[^\p{L}\p{N}_;:}])(?:\[([^\]]+)\])?\*(\S|\S.*?\S)\*\B`)},
	{"double", constrained, regexp.MustCompile("(?ms)(^|[^\\p{L}\\p{N}_;:}])(?:\\[([^\\]]+)\\])?\"`(\\S|\\S.*?\\S)`\"\\B")},
	{"single", constrained, regexp.MustCompile("(?ms)(^|[^\\p{L}\\p{N}_;:`}])(?:\\[([^\\]]+)\\])?'`(\\S|\\S.*?\\S)`'\\B")},
	{"monospaced", unconstrained, regexp.MustCompile("(?ms)\\\\?(?:\\[([^\\]]+)\\])?``(.+?)``")},
	{"monospaced", constrained, regexp.MustCompile("(?ms)(^|[^\\p{L}\\p{N}_;:\"'`}])(?:\\[([^\\]]+)\\])?`(\\S|\\S.*?\\S)`\\B")},
	{"emphasis", unconstrained, regexp.MustCompile(`(?ms)\\?(?:\[([^\]]+)\])?__(.+?)__`)},
	{"emphasis", constrained, regexp.MustCompile(`(?ms)(^|[^\p{L}\p{N}_;:}])(?:\[([^\]]+)\])?_(\S|\S.*?\S)_\b`)},
	{"mark", unconstrained, regexp.MustCompile(`(?ms)\\?(?:\[([^\]]+)\])?##(.+?)##`)},
	{"mark", constrained, regexp.MustCompile(`(?ms)(^|[^\p{L}\p{N}_&;:}])(?:\[([^\]]+)\])?#(\S|\S.*?\S)#\B`)},
	{"superscript", unconstrained, regexp.MustCompile(`\\?(?:\[([^\]]+)\])?\^(\S+?)\^`)},
	{"subscript", unconstrained, regexp.MustCompile(`\\?(?:\[([^\]]+)\])?~(\S+?)~`)},
}

// SubQuotes converts inline formatting marks into quoted inline nodes.
func (s *Substitutor) SubQuotes(text string) string {
	if !strings.ContainsAny(text, "*_`#^~") {
		return text
	}
	for _, rule := range quoteRules {
		rule := rule
		text = replaceFunc(rule.rx, text, func(m []string) string {
			return s.convertQuoted(m, rule.typ, rule.scope)
		})
	}
	return text
}

func (s *Substitutor) convertQuoted(m []string, typ string, scope quoteScope) string {
	unescapedAttrs := ""
	if strings.HasPrefix(m[0], `\`) {
		if scope == constrained && m[2] != "" {
			unescapedAttrs = "[" + m[2] + "]"
		} else {
			return m[0][1:]
		}
	}

	if scope == constrained {
		if unescapedAttrs != "" {
			return unescapedAttrs + s.inline(model.ContextInlineQuoted, m[3], typ, "", nil)
		}
		var attrs model.Attributes
		if m[2] != "" {
			attrs = s.parseQuotedAttributes(m[2])
			if typ == "mark" {
				typ = "unquoted"
			}
		}
		return m[1] + s.inline(model.ContextInlineQuoted, m[3], typ, "", attrs)
	}

	var attrs model.Attributes
	if m[1] != "" {
		attrs = s.parseQuotedAttributes(m[1])
		if typ == "mark" {
			typ = "unquoted"
		}
	}
	return s.inline(model.ContextInlineQuoted, m[2], typ, "", attrs)
}

// parseQuotedAttributes reads the attribute list in front of quoted
// text. Only the first positional entry counts; it is either a role or
// a .role#id shorthand.
func (s *Substitutor) parseQuotedAttributes(src string) model.Attributes {
	if strings.Contains(src, "{") {
		src, _ = s.SubAttributes(src, "")
	}
	if i := strings.IndexByte(src, ','); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimSpace(src)
	attrs := model.Attributes{}
	if src == "" {
		return attrs
	}
	if !strings.HasPrefix(src, ".") && !strings.HasPrefix(src, "#") {
		attrs.Set("role", src)
		return attrs
	}
	roles := func(s string) string {
		return strings.TrimLeft(strings.ReplaceAll(s, ".", " "), " ")
	}
	before, after, _ := strings.Cut(src, "#")
	if after == "" {
		if len(before) > 1 {
			attrs.Set("role", roles(before))
		}
		return attrs
	}
	id, rest, _ := strings.Cut(after, ".")
	if id != "" {
		attrs.Set("id", id)
	}
	switch {
	case rest == "":
		if len(before) > 1 {
			attrs.Set("role", roles(before))
		}
	case len(before) > 1:
		attrs.Set("role", roles(before+"."+rest))
	default:
		attrs.Set("role", strings.ReplaceAll(rest, ".", " "))
	}
	return attrs
}
