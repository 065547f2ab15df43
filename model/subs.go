package model

// Sub names one substitution stage. The numeric order of the constants is
// the order in which stages are always applied.
type Sub int

const (
	SubSpecialCharacters Sub = iota
	SubQuotes
	SubAttributes
	SubReplacements
	SubMacros
	SubPostReplacements
	SubCallouts
)

// AllSubs lists every stage in application order.
var AllSubs = []Sub{
	SubSpecialCharacters,
	SubQuotes,
	SubAttributes,
	SubReplacements,
	SubMacros,
	SubPostReplacements,
	SubCallouts,
}

var (
	// NormalSubs apply to paragraphs, titles and most inline text.
	NormalSubs = []Sub{SubSpecialCharacters, SubQuotes, SubAttributes, SubReplacements, SubMacros, SubPostReplacements}
	// VerbatimSubs apply to listing and literal content.
	VerbatimSubs = []Sub{SubSpecialCharacters, SubCallouts}
	// HeaderSubs apply to header values and attribute entry values.
	HeaderSubs = []Sub{SubSpecialCharacters, SubAttributes}
	// BasicSubs apply to passthrough content that still escapes markup.
	BasicSubs = []Sub{SubSpecialCharacters}
)

var subNames = [...]string{
	SubSpecialCharacters: "specialcharacters",
	SubQuotes:            "quotes",
	SubAttributes:        "attributes",
	SubReplacements:      "replacements",
	SubMacros:            "macros",
	SubPostReplacements:  "post_replacements",
	SubCallouts:          "callouts",
}

func (s Sub) String() string {
	if s >= 0 && int(s) < len(subNames) {
		return subNames[s]
	}
	return "unknown"
}

// ParseSub resolves a stage name, accepting "specialchars" as an alias.
func ParseSub(name string) (Sub, bool) {
	if name == "specialchars" {
		return SubSpecialCharacters, true
	}
	for i, n := range subNames {
		if n == name {
			return Sub(i), true
		}
	}
	return 0, false
}

// HasSub reports whether subs contains s.
func HasSub(subs []Sub, s Sub) bool {
	for _, v := range subs {
		if v == s {
			return true
		}
	}
	return false
}
