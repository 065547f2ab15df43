// Package attrlist parses the attribute list found between the brackets of
// block attribute lines and macros, such as
//
//	[source,go,linenums,title="Example",opts="autofit,header"]
//
// into positional and named entries.
package attrlist

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tsawler/adoc/model"
)

// Parse parses src into a new attribute map.
func Parse(src string) model.Attributes {
	attrs := model.Attributes{}
	ParseInto(attrs, src, nil, nil)
	return attrs
}

// ParseInto parses src into attrs. Positional entries are stored under
// "1", "2", ...; an empty slot still consumes its position and is stored
// with an empty value. When positional names are given, the value of slot
// i is also stored under positional[i-1]. sub, when not nil, is applied to
// single-quoted values except title and reftext.
func ParseInto(attrs model.Attributes, src string, positional []string, sub func(string) string) model.Attributes {
	if attrs == nil {
		attrs = model.Attributes{}
	}
	p := &scanner{src: src, attrs: attrs, positional: positional, sub: sub}
	p.parse()
	return attrs
}

// Rekey copies positional entries 1..len(names) to the given names. Empty
// names and empty positional values are skipped; positional entries are
// kept.
func Rekey(attrs model.Attributes, names []string) {
	for i, name := range names {
		if name == "" {
			continue
		}
		if v, ok := attrs.Get(strconv.Itoa(i + 1)); ok && v != "" {
			attrs.Set(name, v)
		}
	}
}

type scanner struct {
	src        string
	pos        int
	attrs      model.Attributes
	positional []string
	sub        func(string) string
}

func (p *scanner) eos() bool { return p.pos >= len(p.src) }

func (p *scanner) peek() byte {
	if p.eos() {
		return 0
	}
	return p.src[p.pos]
}

func (p *scanner) skipBlank() int {
	start := p.pos
	for !p.eos() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	return p.pos - start
}

func (p *scanner) parse() {
	if strings.TrimSpace(p.src) == "" {
		return
	}
	index := 0
	for {
		more := p.parseAttribute(index)
		if !more {
			return
		}
		p.skipBlank()
		if p.eos() {
			return
		}
		if p.peek() == ',' {
			p.pos++
		}
		index++
	}
}

// parseAttribute parses one entry and reports whether another may follow.
func (p *scanner) parseAttribute(index int) bool {
	p.skipBlank()
	var (
		name, value  string
		hasValue     bool
		singleQuoted bool
		isNone       bool
	)

	switch c := p.peek(); c {
	case '"', '\'':
		p.pos++
		name = p.parseQuoted(c)
		singleQuoted = c == '\''
	default:
		name = p.scanName()
		skipped := 0
		if name != "" {
			skipped = p.skipBlank()
		}
		switch {
		case p.eos():
			if name == "" {
				// A trailing comma still opens an empty slot.
				if strings.HasSuffix(strings.TrimRight(p.src, " \t"), ",") {
					p.setPositional(index, "", false)
				}
				return false
			}
		case p.peek() == ',':
		case name != "" && p.peek() == '=':
			p.pos++
			p.skipBlank()
			hasValue = true
			switch q := p.peek(); q {
			case '"', '\'':
				p.pos++
				value = p.parseQuoted(q)
				singleQuoted = q == '\''
			case ',', 0:
				value = ""
			default:
				value = strings.TrimRight(p.scanToDelimiter(), " \t")
				isNone = value == "None"
			}
		case name != "":
			name = name + strings.Repeat(" ", skipped) + strings.TrimRight(p.scanToDelimiter(), " \t")
		default:
			name = strings.TrimRight(p.scanToDelimiter(), " \t")
		}
	}

	if isNone {
		return true
	}
	if hasValue {
		p.setNamed(name, value, singleQuoted)
	} else {
		p.setPositional(index, name, singleQuoted)
	}
	return true
}

func (p *scanner) setNamed(name, value string, singleQuoted bool) {
	switch name {
	case "options", "opts":
		for _, opt := range strings.Split(value, ",") {
			opt = strings.TrimSpace(opt)
			if opt != "" {
				p.attrs.SetOption(opt)
			}
		}
		p.attrs.Set("options", value)
	case "title", "reftext":
		p.attrs.Set(name, value)
	default:
		if singleQuoted && p.sub != nil {
			value = p.sub(value)
		}
		p.attrs.Set(name, value)
	}
}

func (p *scanner) setPositional(index int, value string, singleQuoted bool) {
	if singleQuoted && p.sub != nil {
		value = p.sub(value)
	}
	if index < len(p.positional) && p.positional[index] != "" && value != "" {
		p.attrs.Set(p.positional[index], value)
	}
	p.attrs.Set(strconv.Itoa(index+1), value)
}

// scanName reads a word character followed by word characters, hyphens
// and periods.
func (p *scanner) scanName() string {
	start := p.pos
	for i, r := range p.src[p.pos:] {
		word := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if !word && (i == 0 || (r != '-' && r != '.')) {
			p.pos = start + i
			return p.src[start:p.pos]
		}
	}
	p.pos = len(p.src)
	return p.src[start:]
}

// scanToDelimiter reads up to the next top-level comma. Commas inside
// quotes or square brackets do not end the value.
func (p *scanner) scanToDelimiter() string {
	start := p.pos
	depth := 0
	var quote byte
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		switch {
		case quote != 0:
			if c == '\\' && p.pos+1 < len(p.src) {
				p.pos++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if p.pos == start || strings.IndexByte(p.src[p.pos+1:], c) >= 0 {
				quote = c
			}
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case c == ',' && depth == 0:
			return p.src[start:p.pos]
		}
	}
	return p.src[start:]
}

// parseQuoted reads a value after its opening quote. Only the escaped form
// of the same quote character is unescaped. Without a closing quote the
// value is taken literally, opening quote included.
func (p *scanner) parseQuoted(quote byte) string {
	start := p.pos
	var sb strings.Builder
	for i := p.pos; i < len(p.src); i++ {
		c := p.src[i]
		if c == '\\' && i+1 < len(p.src) && p.src[i+1] == quote {
			sb.WriteByte(quote)
			i++
			continue
		}
		if c == quote {
			p.pos = i + 1
			return sb.String()
		}
		sb.WriteByte(c)
	}
	p.pos = start
	return string(quote) + strings.TrimRight(p.scanToDelimiter(), " \t")
}
