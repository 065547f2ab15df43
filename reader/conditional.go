package reader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/adoc/diag"
)

var evalExpressionRx = regexp.MustCompile(`^(.+?) *([=!><]=|[><]) *(.+)$`)

// conditionalDirective evaluates an ifdef, ifndef, ifeval or endif line.
// It returns true when the directive line is consumed and false when it
// must stay in the stream as literal text.
func (p *PreprocessorReader) conditionalDirective(keyword, target, delimiter, text string, hasText bool) bool {
	noTarget := target == ""
	target = strings.ToLower(target)

	if keyword == "endif" {
		switch {
		case hasText:
			p.Warn(diag.MalformedSyntax, "malformed preprocessor directive - text not permitted: endif::%s[%s]", target, text)
		case p.conditionals.Empty():
			p.Warn(diag.MalformedSyntax, "unmatched preprocessor directive: endif::%s[]", target)
		default:
			top, _ := p.conditionals.Peek()
			open := top.(conditional)
			if noTarget || target == open.target {
				p.conditionals.Pop()
				p.skipping = false
				if next, ok := p.conditionals.Peek(); ok {
					p.skipping = next.(conditional).skipping
				}
			} else {
				p.Warn(diag.MalformedSyntax, "mismatched preprocessor directive: endif::%s[], expected endif::%s[]", target, open.target)
			}
		}
		return true
	}

	var skip bool
	if p.skipping {
		// Nested directives only need to be tracked so that their endif
		// lines pair up.
		if keyword == "ifeval" {
			if !hasText {
				return false
			}
		} else if noTarget {
			return false
		}
	} else {
		switch keyword {
		case "ifdef", "ifndef":
			if noTarget {
				p.Warn(diag.MalformedSyntax, "malformed preprocessor directive - missing target: %s::[%s]", keyword, text)
				return true
			}
			defined := p.evalDefined(target, delimiter)
			skip = defined == (keyword == "ifndef")
		case "ifeval":
			if !noTarget {
				p.Warn(diag.MalformedSyntax, "malformed preprocessor directive - target not permitted: ifeval::%s[%s]", target, text)
				return true
			}
			// A malformed expression is false.
			m := evalExpressionRx.FindStringSubmatch(strings.TrimSpace(text))
			if !hasText || m == nil {
				reason := "missing expression"
				if hasText {
					reason = "invalid expression"
				}
				p.Warn(diag.MalformedSyntax, "malformed preprocessor directive - %s: ifeval::[%s]", reason, text)
				skip = true
				break
			}
			result, err := p.evalExpression(m[1], m[2], m[3])
			if err != nil {
				p.Warn(diag.MalformedSyntax, "malformed preprocessor directive - %v: ifeval::[%s]", err, text)
			}
			skip = !result
		}
	}

	if keyword == "ifeval" || !hasText {
		if skip {
			p.skipping = true
		}
		p.conditionals.Push(conditional{target: target, skip: skip, skipping: p.skipping})
		return true
	}

	// Single-line form: the text replaces the line after the directive.
	if !p.skipping && !skip {
		p.ReplaceNextLine(strings.TrimRight(text, " \t"))
		p.Unshift("")
		if strings.HasPrefix(text, "include::") {
			p.lookAhead--
		}
	}
	return true
}

// evalDefined reports whether the attributes named in target are set.
// A "," delimiter requires any of them, "+" requires all.
func (p *PreprocessorReader) evalDefined(target, delimiter string) bool {
	attrs := p.doc.Attrs
	switch delimiter {
	case ",":
		for _, name := range strings.Split(target, ",") {
			if attrs.Has(name) {
				return true
			}
		}
		return false
	case "+":
		for _, name := range strings.Split(target, "+") {
			if !attrs.Has(name) {
				return false
			}
		}
		return true
	default:
		return attrs.Has(target)
	}
}

// exprValue is an ifeval operand: a string, bool, int64, float64 or nil.
type exprValue interface{}

// evalExpression compares two operands with op. Operands of different
// kinds are never equal and never ordered.
func (p *PreprocessorReader) evalExpression(lhs, op, rhs string) (bool, error) {
	l, err := p.exprOperand(lhs)
	if err != nil {
		return false, err
	}
	r, err := p.exprOperand(rhs)
	if err != nil {
		return false, err
	}
	if lf, rf, ok := numericPair(l, r); ok {
		return compareOrdered(lf, rf, op), nil
	}
	switch lv := l.(type) {
	case string:
		if rv, ok := r.(string); ok {
			return compareOrdered(lv, rv, op), nil
		}
	case bool:
		if rv, ok := r.(bool); ok {
			switch op {
			case "==":
				return lv == rv, nil
			case "!=":
				return lv != rv, nil
			}
			return false, nil
		}
	case nil:
		switch op {
		case "==":
			return r == nil, nil
		case "!=":
			return r != nil, nil
		}
		return false, nil
	}
	return op == "!=", nil
}

// exprOperand resolves an operand. Quoted text is a string; true and
// false are booleans; anything else must be numeric once attributes are
// substituted.
func (p *PreprocessorReader) exprOperand(val string) (exprValue, error) {
	quoted := len(val) >= 2 &&
		((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\''))
	if quoted {
		val = val[1 : len(val)-1]
	}
	if strings.Contains(val, "{") {
		val, _ = p.subAttrs(val, "drop")
	}
	switch {
	case quoted:
		return val, nil
	case val == "":
		return nil, nil
	case val == "true":
		return true, nil
	case val == "false":
		return false, nil
	case strings.TrimSpace(val) == "":
		return " ", nil
	case strings.Contains(val, "."):
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, errInvalidOperand(val)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return nil, errInvalidOperand(val)
	}
	return n, nil
}

type errInvalidOperand string

func (e errInvalidOperand) Error() string {
	return "invalid operand " + strconv.Quote(string(e))
}

func numericPair(l, r exprValue) (float64, float64, bool) {
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	return lf, rf, lok && rok
}

func toFloat(v exprValue) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareOrdered[T float64 | string](l, r T, op string) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}
