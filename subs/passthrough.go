package subs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
)

// Passthrough is text lifted out of the substitution pipeline. Its own
// stages are applied when it is restored.
type Passthrough struct {
	Text string
	Subs []model.Sub
	// Type is "unquoted" when the passthrough carried an attribute list
	// and must be wrapped in a quoted inline on restore.
	Type       string
	Attributes model.Attributes
}

const (
	passStart = "\u0096"
	passEnd   = "\u0097"
)

var (
	passMacroRx  = regexp.MustCompile(`(?s)(?:(\\?)\[([^\]]+)\])?(\\{0,2})(?:\+\+\+(.*?)\+\+\+|\+\+(.*?)\+\+|\$\$(.*?)\$\$)|(\\?)pass:([a-z]+(?:,[a-z-]+)*)?\[(|.*?[^\\])\]`)
	passInlineRx = regexp.MustCompile(`(?ms)(^|[^\p{L}\p{N}_;:\\])(?:\[([^\]]+)\])?(\\?)\+(\S|\S.*?\S)\+\B`)
	passSlotRx   = regexp.MustCompile(passStart + `(\d+)` + passEnd)
)

// Passthroughs returns the records extracted by the last call to
// ExtractPassthroughs.
func (s *Substitutor) Passthroughs() []Passthrough {
	return append([]Passthrough(nil), s.passthroughs...)
}

func (s *Substitutor) stash(p Passthrough) string {
	s.passthroughs = append(s.passthroughs, p)
	return passStart + strconv.Itoa(len(s.passthroughs)-1) + passEnd
}

// ExtractPassthroughs replaces passthrough markup with placeholders and
// records the protected text.
func (s *Substitutor) ExtractPassthroughs(text string) string {
	if strings.Contains(text, "++") || strings.Contains(text, "$$") || strings.Contains(text, "ss:") {
		text = replaceFunc(passMacroRx, text, s.extractMacro)
	}
	if strings.Contains(text, "+") {
		text = replaceFunc(passInlineRx, text, s.extractInline)
	}
	return text
}

func (s *Substitutor) extractMacro(m []string) string {
	whole := m[0]
	if strings.HasPrefix(strings.TrimPrefix(whole, `\`), "pass:") {
		if m[7] == `\` {
			return whole[1:]
		}
		p := Passthrough{Text: unescapeBrackets(m[9])}
		if m[8] != "" {
			p.Subs = ResolvePassSubs(m[8])
		}
		return s.stash(p)
	}

	attrPart := ""
	if m[2] != "" {
		attrPart = m[1] + "[" + m[2] + "]"
	}
	rest := whole[len(attrPart)+len(m[3]):]
	boundary := "$$"
	switch {
	case strings.HasPrefix(rest, "+++"):
		boundary = "+++"
	case strings.HasPrefix(rest, "++"):
		boundary = "++"
	}
	content := m[4] + m[5] + m[6]

	if n := len(m[3]); n > 0 {
		prefix := ""
		if m[2] != "" {
			prefix = "[" + m[2] + "]"
		}
		return prefix + strings.Repeat(`\`, n-1) + boundary + content + boundary
	}

	preceding := ""
	var attrs model.Attributes
	if m[1] == `\` {
		preceding = "[" + m[2] + "]"
	} else if m[2] != "" {
		attrs = s.parseQuotedAttributes(m[2])
	}
	p := Passthrough{Text: content}
	if boundary != "+++" {
		p.Subs = model.BasicSubs
	}
	if attrs != nil {
		p.Type = "unquoted"
		p.Attributes = attrs
	}
	return preceding + s.stash(p)
}

func (s *Substitutor) extractInline(m []string) string {
	preceding, attrlist, escaped, content := m[1], m[2], m[3] != "", m[4]
	var attrs model.Attributes
	switch {
	case attrlist != "" && escaped:
		return preceding + "[" + attrlist + "]+" + content + "+"
	case escaped:
		return preceding + "+" + content + "+"
	case attrlist != "":
		attrs = s.parseQuotedAttributes(attrlist)
	}
	p := Passthrough{Text: content, Subs: model.BasicSubs}
	if attrs != nil {
		p.Type = "unquoted"
		p.Attributes = attrs
	}
	return preceding + s.stash(p)
}

// RestorePassthroughs puts extracted text back in place of placeholders,
// applying each record's own stages.
func (s *Substitutor) RestorePassthroughs(text string) string {
	if !strings.Contains(text, passStart) {
		return text
	}
	return replaceFunc(passSlotRx, text, func(m []string) string {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx >= len(s.passthroughs) {
			s.warns.Warn(diag.MalformedSyntax, s.cursor(), "unmatched passthrough index %s", m[1])
			return ""
		}
		p := s.passthroughs[idx]
		out := p.Text
		if len(p.Subs) > 0 {
			out = s.ApplySubs(out, p.Subs)
		}
		if p.Type != "" {
			out = s.inline(model.ContextInlineQuoted, out, p.Type, "", p.Attributes.Clone())
		}
		return out
	})
}
