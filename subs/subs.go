package subs

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
)

// Substitutor applies substitutions on behalf of one document. Inline
// nodes it creates are owned by the node set with For.
type Substitutor struct {
	doc          *model.Document
	node         model.Node
	warns        *diag.Collector
	passthroughs []Passthrough
}

// New creates a substitutor for doc. A nil collector discards warnings.
func New(doc *model.Document, warns *diag.Collector) *Substitutor {
	if warns == nil {
		warns = diag.NewCollector(nil)
	}
	return &Substitutor{doc: doc, warns: warns}
}

// For returns a copy of s whose inline nodes belong to node.
func (s *Substitutor) For(node model.Node) *Substitutor {
	c := *s
	c.node = node
	c.passthroughs = nil
	return &c
}

// Document returns the document s substitutes for.
func (s *Substitutor) Document() *model.Document { return s.doc }

func (s *Substitutor) parent() model.Node {
	if s.node != nil {
		return s.node
	}
	return s.doc
}

func (s *Substitutor) cursor() model.Cursor {
	return s.parent().Base().Cursor
}

func (s *Substitutor) log() *logger.Logger {
	return s.warns.Logger()
}

func (s *Substitutor) convert(in *model.Inline) string {
	conv := s.doc.Converter
	if conv == nil {
		conv = model.TextConverter{}
	}
	return conv.Convert(in, "")
}

// inline builds an inline node owned by the current parent and converts it.
func (s *Substitutor) inline(ctx model.Context, text, typ, target string, attrs model.Attributes) string {
	return s.convert(model.NewInline(s.parent(), ctx, text, typ, target, attrs))
}

// ApplySubs runs the given stages over text. Stages are applied in their
// canonical order regardless of the order of stages. Passthroughs are
// protected when the macros stage is requested.
func (s *Substitutor) ApplySubs(text string, stages []model.Sub) string {
	if text == "" || len(stages) == 0 {
		return text
	}
	stages = normalize(stages)
	saved := s.passthroughs
	s.passthroughs = nil
	defer func() { s.passthroughs = saved }()

	passthroughs := model.HasSub(stages, model.SubMacros)
	if passthroughs {
		text = s.ExtractPassthroughs(text)
	}
	text = s.applyStages(text, stages)
	if passthroughs {
		text = s.RestorePassthroughs(text)
	}
	return text
}

// ApplyLines joins lines with newlines and applies stages.
func (s *Substitutor) ApplyLines(lines []string, stages []model.Sub) string {
	return s.ApplySubs(strings.Join(lines, "\n"), stages)
}

// ApplyTitle applies the normal substitutions to a title.
func (s *Substitutor) ApplyTitle(title string) string {
	return s.ApplySubs(title, model.NormalSubs)
}

// ApplyHeader applies the header substitutions used for attribute entry
// values and header lines.
func (s *Substitutor) ApplyHeader(text string) string {
	return s.ApplySubs(text, model.HeaderSubs)
}

func (s *Substitutor) applyStages(text string, stages []model.Sub) string {
	for _, stage := range stages {
		switch stage {
		case model.SubSpecialCharacters:
			text = EscapeSpecialChars(text)
		case model.SubQuotes:
			text = s.SubQuotes(text)
		case model.SubAttributes:
			if strings.Contains(text, "{") {
				text, _ = s.SubAttributes(text, "")
			}
		case model.SubReplacements:
			text = s.SubReplacements(text)
		case model.SubMacros:
			text = s.SubMacros(text)
		case model.SubPostReplacements:
			text = s.SubPostReplacements(text)
		case model.SubCallouts:
			text = s.SubCallouts(text)
		}
	}
	return text
}

// normalize returns stages sorted into canonical order without duplicates.
func normalize(stages []model.Sub) []model.Sub {
	out := append([]model.Sub(nil), stages...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, st := range out {
		if i > 0 && st == out[n-1] {
			continue
		}
		out[n] = st
		n++
	}
	return out[:n]
}

var specialChars = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeSpecialChars replaces &, < and > with their entity references.
func EscapeSpecialChars(text string) string {
	if !strings.ContainsAny(text, "&<>") {
		return text
	}
	return specialChars.Replace(text)
}

var subGroups = map[string][]model.Sub{
	"none":         nil,
	"normal":       model.NormalSubs,
	"verbatim":     model.VerbatimSubs,
	"specialchars": model.BasicSubs,
}

var subHints = map[string]string{
	"a": "attributes",
	"m": "macros",
	"n": "normal",
	"p": "post_replacements",
	"q": "quotes",
	"r": "replacements",
	"c": "specialcharacters",
	"v": "verbatim",
}

// ResolveSubs parses a subs attribute value such as "normal",
// "+quotes", "attributes+" or "-callouts". Modifiers apply to defaults;
// plain names replace them. Single-letter hints are accepted for inline
// passthroughs when inline is set. Unknown names are returned separately.
func ResolveSubs(spec string, defaults []model.Sub, inline bool) ([]model.Sub, []string) {
	spec = strings.ReplaceAll(spec, " ", "")
	if spec == "" {
		return nil, nil
	}
	modifiers := strings.ContainsAny(spec, "+-")
	var (
		candidates []model.Sub
		started    bool
		invalid    []string
	)
	for _, key := range strings.Split(spec, ",") {
		op := ""
		if modifiers {
			switch {
			case strings.HasPrefix(key, "+"):
				op, key = "append", key[1:]
			case strings.HasPrefix(key, "-"):
				op, key = "remove", key[1:]
			case strings.HasSuffix(key, "+"):
				op, key = "prepend", key[:len(key)-1]
			}
		}
		var resolved []model.Sub
		switch {
		case inline && (key == "verbatim" || key == "v"):
			resolved = model.BasicSubs
		case hasGroup(key):
			resolved = subGroups[key]
		case inline && len(key) == 1 && subHints[key] != "":
			name := subHints[key]
			if group, ok := subGroups[name]; ok {
				resolved = group
			} else if st, ok := model.ParseSub(name); ok {
				resolved = []model.Sub{st}
			}
		default:
			st, ok := model.ParseSub(key)
			if !ok {
				invalid = append(invalid, key)
				continue
			}
			resolved = []model.Sub{st}
		}
		if !started {
			started = true
			if op != "" {
				candidates = append(candidates, defaults...)
			}
		}
		switch op {
		case "append":
			candidates = append(candidates, resolved...)
		case "prepend":
			candidates = append(append([]model.Sub(nil), resolved...), candidates...)
		case "remove":
			candidates = removeSubs(candidates, resolved)
		default:
			candidates = append(candidates, resolved...)
		}
	}
	if len(candidates) == 0 {
		return nil, invalid
	}
	return normalize(candidates), invalid
}

func hasGroup(key string) bool {
	_, ok := subGroups[key]
	return ok
}

func removeSubs(from, drop []model.Sub) []model.Sub {
	var out []model.Sub
	for _, st := range from {
		if !model.HasSub(drop, st) {
			out = append(out, st)
		}
	}
	return out
}

// ResolvePassSubs resolves the subs list of a pass macro, such as "q,a".
func ResolvePassSubs(spec string) []model.Sub {
	resolved, _ := ResolveSubs(spec, nil, true)
	return resolved
}

// replaceFunc replaces every match of rx in s with fn applied to the
// submatches. Groups that did not participate are empty strings.
func replaceFunc(rx *regexp.Regexp, s string, fn func(m []string) string) string {
	locs := rx.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		sb.WriteString(s[last:loc[0]])
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		sb.WriteString(fn(m))
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// unescapeBrackets resolves escaped closing brackets in macro text.
func unescapeBrackets(s string) string {
	return strings.ReplaceAll(s, `\]`, "]")
}
