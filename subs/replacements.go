package subs

import (
	"regexp"
	"strings"

	"github.com/tsawler/adoc/model"
)

type restore int

const (
	restoreNone restore = iota
	restoreLeading
	restoreBounding
)

type replacement struct {
	rx      *regexp.Regexp
	with    string
	restore restore
}

// Replacements produce Unicode characters, not numeric entities.
var replacements = []replacement{
	{regexp.MustCompile(`\\?\(C\)`), "\u00a9", restoreNone},
	{regexp.MustCompile(`\\?\(R\)`), "\u00ae", restoreNone},
	{regexp.MustCompile(`\\?\(TM\)`), "\u2122", restoreNone},
	{regexp.MustCompile(`(?m)(^|\n| |\\)--( |\n|$)`), "\u2009\u2014\u2009", restoreNone},
	{regexp.MustCompile(`([\p{L}\p{N}_])\\?--\b`), "\u2014\u200b", restoreLeading},
	{regexp.MustCompile(`\\?\.\.\.`), "\u2026\u200b", restoreNone},
	{regexp.MustCompile("\\\\?`'"), "\u2019", restoreNone},
	{regexp.MustCompile(`([\p{L}\p{N}])\\?'(\p{L})`), "\u2019", restoreBounding},
	{regexp.MustCompile(`\\?-&gt;`), "\u2192", restoreNone},
	{regexp.MustCompile(`\\?=&gt;`), "\u21d2", restoreNone},
	{regexp.MustCompile(`\\?&lt;-`), "\u2190", restoreNone},
	{regexp.MustCompile(`\\?&lt;=`), "\u21d0", restoreNone},
	{regexp.MustCompile(`\\?(&)amp;((?:[a-zA-Z][a-zA-Z]+\d{0,2}|#\d\d\d{0,4}|#x[\da-fA-F][\da-fA-F][\da-fA-F]{0,3});)`), "", restoreBounding},
}

// SubReplacements applies the typographic replacements.
func (s *Substitutor) SubReplacements(text string) string {
	if !strings.ContainsAny(text, "(-.`'&") {
		return text
	}
	for _, r := range replacements {
		r := r
		text = replaceFunc(r.rx, text, func(m []string) string {
			if strings.Contains(m[0], `\`) {
				return strings.Replace(m[0], `\`, "", 1)
			}
			switch r.restore {
			case restoreLeading:
				return m[1] + r.with
			case restoreBounding:
				return m[1] + r.with + m[2]
			default:
				return r.with
			}
		})
	}
	return text
}

var hardBreakRx = regexp.MustCompile(`(?m)^(.*) \+$`)

// SubPostReplacements converts trailing " +" into line breaks. With the
// hardbreaks option every line but the last ends in a break.
func (s *Substitutor) SubPostReplacements(text string) string {
	if s.hardbreaks() {
		if !strings.Contains(text, "\n") {
			return text
		}
		lines := strings.Split(text, "\n")
		last := len(lines) - 1
		for i, line := range lines[:last] {
			line = strings.TrimSuffix(line, " +")
			lines[i] = s.lineBreak(line)
		}
		return strings.Join(lines, "\n")
	}
	if !strings.Contains(text, " +") {
		return text
	}
	return replaceFunc(hardBreakRx, text, func(m []string) string {
		return s.lineBreak(m[1])
	})
}

func (s *Substitutor) lineBreak(line string) string {
	return s.inline(model.ContextInlineBreak, line, "line", "", nil)
}

func (s *Substitutor) hardbreaks() bool {
	if s.doc.Attrs.Has("hardbreaks-option") || s.doc.Attrs.Has("hardbreaks") {
		return true
	}
	if s.node != nil {
		return s.node.Base().HasOption("hardbreaks")
	}
	return false
}
