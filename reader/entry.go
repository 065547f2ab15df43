package reader

import (
	"regexp"
	"strings"
)

var attributeEntryRx = regexp.MustCompile(`^:(!?[\p{L}\p{N}_][^:]*?):(?:[ \t]+(.*))?$`)

const (
	lineContinuation       = " +"
	legacyLineContinuation = ` \`
)

// AttributeEntry is a document attribute entry such as ":name: value",
// ":name!:" or ":!name:".
type AttributeEntry struct {
	Name  string
	Value string
	Unset bool
	// Lines holds the source lines the entry was read from.
	Lines []string
}

// AttributeTarget receives attribute entries. It returns false when the
// attribute is locked and the entry was ignored.
type AttributeTarget interface {
	ApplyAttributeEntry(name, value string, unset bool) bool
}

// IsAttributeEntry reports whether line starts an attribute entry.
func IsAttributeEntry(line string) bool {
	return strings.HasPrefix(line, ":") && attributeEntryRx.MatchString(line)
}

func parseEntryName(raw string) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "!"):
		return raw[1:], true
	case strings.HasSuffix(raw, "!"):
		return raw[:len(raw)-1], true
	}
	return raw, false
}

// ReadAttributeEntry consumes the attribute entry at the next line. A value
// ending in " \" or " +" continues on the following non-blank lines, which
// are joined with spaces. A newline is kept after a hard line break.
func (r *Reader) ReadAttributeEntry() (AttributeEntry, bool) {
	line, ok := r.PeekLine()
	if !ok || !strings.HasPrefix(line, ":") {
		return AttributeEntry{}, false
	}
	m := attributeEntryRx.FindStringSubmatch(line)
	if m == nil {
		return AttributeEntry{}, false
	}
	entry := AttributeEntry{Lines: []string{line}}
	entry.Name, entry.Unset = parseEntryName(m[1])
	value := m[2]
	r.shift()

	if strings.HasSuffix(value, lineContinuation) || strings.HasSuffix(value, legacyLineContinuation) {
		con := value[len(value)-2:]
		value = strings.TrimRight(value[:len(value)-2], " \t")
		for {
			next, ok := r.PeekLine()
			if !ok || next == "" {
				break
			}
			r.shift()
			entry.Lines = append(entry.Lines, next)
			next = strings.TrimLeft(next, " \t")
			keepOpen := strings.HasSuffix(next, con)
			if keepOpen {
				next = strings.TrimRight(next[:len(next)-2], " \t")
			}
			sep := " "
			if strings.HasSuffix(value, lineContinuation) {
				sep = "\n"
			}
			value += sep + next
			if !keepOpen {
				break
			}
		}
	}
	entry.Value = value
	return entry, true
}

// ProcessAttributeEntry reads the attribute entry at the next line, expands
// its value with sub and applies it to target. Entries for locked
// attributes are consumed but ignored.
func (r *Reader) ProcessAttributeEntry(target AttributeTarget, sub func(string) string) (AttributeEntry, bool) {
	entry, ok := r.ReadAttributeEntry()
	if !ok {
		return entry, false
	}
	if !entry.Unset && sub != nil && entry.Value != "" {
		entry.Value = sub(entry.Value)
	}
	if !target.ApplyAttributeEntry(entry.Name, entry.Value, entry.Unset) {
		r.warns.Logger().AttributeLocked(entry.Name)
	}
	return entry, true
}
