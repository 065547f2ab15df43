package model

// DefaultAttributes are set on every new document with ProvenanceDefault.
var DefaultAttributes = map[string]string{
	"appendix-caption":  "Appendix",
	"attribute-missing": "warn",
	"caution-caption":   "Caution",
	"doctype":           "article",
	"example-caption":   "Example",
	"figure-caption":    "Figure",
	"idprefix":          "_",
	"idseparator":       "_",
	"important-caption": "Important",
	"max-include-depth": "64",
	"note-caption":      "Note",
	"outfilesuffix":     ".html",
	"sectids":           "",
	"table-caption":     "Table",
	"tip-caption":       "Tip",
	"toc-title":         "Table of Contents",
	"untitled-label":    "Untitled",
	"version-label":     "Version",
	"warning-caption":   "Warning",
}

// IntrinsicAttributes resolve even when absent from the store. Values for
// the characters that special character substitution escapes are given in
// escaped form because attribute references are replaced after escaping.
var IntrinsicAttributes = map[string]string{
	"amp":            "&amp;",
	"apos":           "'",
	"asterisk":       "*",
	"backslash":      "\\",
	"backtick":       "`",
	"blank":          "",
	"brvbar":         "¦",
	"caret":          "^",
	"cpp":            "C++",
	"cxx":            "C++",
	"deg":            "°",
	"empty":          "",
	"endsb":          "]",
	"gt":             "&gt;",
	"ldquo":          "“",
	"lsquo":          "‘",
	"lt":             "&lt;",
	"nbsp":           " ",
	"plus":           "+",
	"pp":             "++",
	"quot":           "\"",
	"rdquo":          "”",
	"rsquo":          "’",
	"sp":             " ",
	"startsb":        "[",
	"tilde":          "~",
	"two-colons":     "::",
	"two-semicolons": ";;",
	"vbar":           "|",
	"wj":             "⁠",
	"zwsp":           "​",
}

// AdmonitionStyles are the styles that turn a paragraph or example block
// into an admonition.
var AdmonitionStyles = map[string]bool{
	"NOTE":      true,
	"TIP":       true,
	"IMPORTANT": true,
	"WARNING":   true,
	"CAUTION":   true,
}
