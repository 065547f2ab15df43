package attrlist

import (
	"strings"

	"github.com/tsawler/adoc/model"
)

// Shorthand is the decoded form of a first positional attribute such as
// "source#main.lead%linenums".
type Shorthand struct {
	Style   string
	ID      string
	Roles   []string
	Options []string
}

// ParseShorthand splits raw into style, id, roles and options. Values
// containing whitespace are taken as a plain style.
func ParseShorthand(raw string) Shorthand {
	var sh Shorthand
	if raw == "" {
		return sh
	}
	if strings.ContainsAny(raw, " \t") || !strings.ContainsAny(raw, "#.%") {
		sh.Style = raw
		return sh
	}

	var kind byte
	var cur strings.Builder
	flush := func() {
		v := cur.String()
		cur.Reset()
		switch kind {
		case 0:
			sh.Style = v
		case '#':
			if sh.ID == "" && v != "" {
				sh.ID = v
			}
		case '.':
			if v != "" {
				sh.Roles = append(sh.Roles, v)
			}
		case '%':
			if v != "" {
				sh.Options = append(sh.Options, v)
			}
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '#' || c == '.' || c == '%' {
			flush()
			kind = c
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return sh
}

// ParseStyle applies the shorthand found in positional attribute 1 to
// attrs and returns the style. An explicit id attribute wins over the
// shorthand id; shorthand roles are appended to existing roles.
func ParseStyle(attrs model.Attributes) string {
	raw, ok := attrs.Get("1")
	if !ok || raw == "" {
		return attrs.Value("style")
	}
	sh := ParseShorthand(raw)
	if sh.ID != "" && !attrs.Has("id") {
		attrs.Set("id", sh.ID)
	}
	if len(sh.Roles) > 0 {
		roles := attrs.Roles()
		roles = append(roles, sh.Roles...)
		attrs.Set("role", strings.Join(roles, " "))
	}
	for _, opt := range sh.Options {
		attrs.SetOption(opt)
	}
	if sh.Style != "" {
		attrs.Set("style", sh.Style)
	}
	return sh.Style
}
