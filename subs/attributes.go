package subs

import (
	"regexp"
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/model"
)

var attributeRefRx = regexp.MustCompile(`(\\)?\{([\p{L}\p{N}_][\p{L}\p{N}_-]*|(set|counter2?):.+?)(\\)?\}`)

// Markers left in the text while references are replaced. A line made
// only of dropMarker is removed; a line holding dropLineMarker is removed
// whole.
const (
	dropMarker     = "\x7f"
	dropLineMarker = "\x18"
)

// SubAttributes replaces attribute references in text. policy overrides
// the document's attribute-missing setting when not empty. The result is
// false when a line was dropped because of a missing reference or an
// undefined assignment.
func (s *Substitutor) SubAttributes(text, policy string) (string, bool) {
	if !strings.Contains(text, "{") {
		return text, true
	}
	if policy == "" {
		policy = s.doc.Attrs.ValueOr("attribute-missing", "skip")
	}
	var drop, dropLine, dropEmpty bool
	text = replaceFunc(attributeRefRx, text, func(m []string) string {
		if m[1] == `\` || m[4] == `\` {
			return "{" + m[2] + "}"
		}
		if m[3] != "" {
			args := strings.SplitN(m[2], ":", 3)
			switch args[0] {
			case "set":
				if s.setAttribute(args[1:]) {
					drop, dropEmpty = true, true
					return dropMarker
				}
				drop, dropLine = true, true
				return dropLineMarker
			case "counter2":
				s.counter(args[1:])
				drop, dropEmpty = true, true
				return dropMarker
			default:
				return s.counter(args[1:])
			}
		}
		key := model.FoldName(m[2])
		if v, ok := s.doc.Attrs.Get(key); ok {
			return v
		}
		if v, ok := model.IntrinsicAttributes[key]; ok {
			return v
		}
		switch policy {
		case "drop":
			drop, dropEmpty = true, true
			return dropMarker
		case "drop-line":
			s.log().Info("dropping line containing reference to missing attribute", "name", key)
			drop, dropLine = true, true
			return dropLineMarker
		case "warn":
			s.warns.Warn(diag.AttributeResolution, s.cursor(), "dropping reference to missing attribute: %s", key)
			return ""
		default:
			return m[0]
		}
	})
	if !drop {
		return text, true
	}
	return dropMarked(text, dropLine, dropEmpty), !dropLine
}

func dropMarked(text string, dropLine, dropEmpty bool) string {
	if !dropEmpty {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if !strings.Contains(line, dropLineMarker) {
				kept = append(kept, line)
			}
		}
		return strings.Join(kept, "\n")
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Trim(line, dropMarker) == "" && line != "" {
			continue
		}
		if dropLine && strings.Contains(line, dropLineMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.ReplaceAll(strings.Join(kept, "\n"), dropMarker, "")
}

// setAttribute handles {set:name:value} and {set:name!}. It reports
// false when the assignment should drop the line.
func (s *Substitutor) setAttribute(args []string) bool {
	if len(args) == 0 {
		return true
	}
	name, value := args[0], ""
	if len(args) > 1 {
		value = args[1]
	}
	unset := false
	if strings.HasSuffix(name, "!") {
		name, unset = strings.TrimSuffix(name, "!"), true
	} else if strings.HasPrefix(name, "!") {
		name, unset = strings.TrimPrefix(name, "!"), true
	}
	s.doc.ApplyAttributeEntry(name, value, unset)
	if unset {
		return s.doc.Attrs.ValueOr("attribute-undefined", "drop-line") != "drop-line"
	}
	return true
}

func (s *Substitutor) counter(args []string) string {
	name, seed := "", ""
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		seed = args[1]
	}
	return s.doc.Counter(name, seed)
}
