package subs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/model"
)

const calloutMarker = `(?:<|&lt;)!?(?:--)?(?:\d+|\.)(?:--)?(?:>|&gt;)`

var (
	// calloutRunRx matches the run of markers that ends a line, with an
	// optional line comment guard in front of the first one.
	calloutRunRx = regexp.MustCompile(`((?://|#|--|;;) ?)?(\\?` + calloutMarker + `(?: ?\\?` + calloutMarker + `)*)$`)
	calloutRx    = regexp.MustCompile(`(\\)?(?:<|&lt;)(!)?(?:--)?(\d+|\.)(?:--)?(?:>|&gt;)`)
)

// Callout is a marker found at the end of a verbatim line.
type Callout struct {
	// Ordinal is the marker number, or "." for an auto-numbered marker.
	Ordinal string
	Escaped bool
}

// ScanCallouts returns the markers that end line, in order. Markers
// followed by anything other than more markers are ignored.
func ScanCallouts(line string) []Callout {
	loc := calloutRunRx.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	var out []Callout
	for _, m := range calloutRx.FindAllStringSubmatch(line[loc[4]:loc[5]], -1) {
		out = append(out, Callout{Ordinal: m[3], Escaped: m[1] != ""})
	}
	return out
}

// SubCallouts replaces trailing callout markers with callout inlines. Each
// marker takes the next id from the document's callout registry.
func (s *Substitutor) SubCallouts(text string) string {
	if !strings.Contains(text, "<") && !strings.Contains(text, "&lt;") {
		return text
	}
	autonum := 0
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := calloutRunRx.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		guard := ""
		if loc[2] >= 0 {
			guard = line[loc[2]:loc[3]]
		}
		run := line[loc[4]:loc[5]]
		first := true
		run = replaceFunc(calloutRx, run, func(m []string) string {
			g := ""
			if first {
				g, first = guard, false
			}
			if m[1] != "" {
				return g + m[0][1:]
			}
			ordinal := m[3]
			if ordinal == "." {
				autonum++
				ordinal = strconv.Itoa(autonum)
			}
			attrs := model.Attributes{}
			if g != "" {
				attrs.Set("guard", g)
			}
			if id := s.doc.Callouts.ReadNextID(); id != "" {
				attrs.Set("id", id)
			}
			return s.inline(model.ContextInlineCallout, ordinal, "", "", attrs)
		})
		lines[i] = line[:loc[0]] + run
	}
	return strings.Join(lines, "\n")
}
