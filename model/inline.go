package model

import (
	"path"
	"strings"
)

// Inline is a transient node built by the substitutions engine and handed
// to the Converter. It is not part of the block tree: its parent is the
// block whose text is being substituted, but it is never appended to that
// block's children.
type Inline struct {
	Block

	// Type refines the context: "strong", "emphasis", "xref", "link", ...
	Type   string
	Target string
	Text   string
}

// NewInline creates an inline node owned by parent.
func NewInline(parent Node, ctx Context, text, typ, target string, attrs Attributes) *Inline {
	in := &Inline{Type: typ, Target: target, Text: text}
	in.context = ctx
	in.ContentModel = ContentEmpty
	if attrs == nil {
		attrs = Attributes{}
	}
	in.Attributes = attrs
	in.self = in
	if parent != nil {
		parent.Base().adopt(in)
	}
	if id, ok := attrs.Get("id"); ok {
		in.ID = id
	}
	return in
}

// Children returns nil; inline nodes have no structural children.
func (in *Inline) Children() []Node { return nil }

// Converter turns a node into output. The core only calls it; rendering
// backends implement it.
type Converter interface {
	Convert(node Node, transform string) string
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(node Node, transform string) string

func (f ConverterFunc) Convert(node Node, transform string) string { return f(node, transform) }

// TextConverter renders inline nodes as their plain text and blocks as
// their substituted content. It is the default when no converter is set.
type TextConverter struct{}

func (TextConverter) Convert(node Node, transform string) string {
	in, ok := node.(*Inline)
	if !ok {
		return node.Base().Content
	}
	switch in.Context() {
	case ContextInlineAnchor:
		if in.Type == "ref" || in.Type == "bibref" {
			return ""
		}
		if in.Text != "" {
			return in.Text
		}
		return in.Target
	case ContextInlineImage:
		if alt := in.Attributes.Value("alt"); alt != "" {
			return alt
		}
		return strings.TrimSuffix(path.Base(in.Target), path.Ext(in.Target))
	case ContextInlineFootnote:
		if in.Type == "xref" {
			return "[" + in.Text + "]"
		}
		return "[" + in.Attributes.Value("index") + "]"
	case ContextInlineCallout:
		return in.Attributes.Value("guard") + "(" + in.Text + ")"
	case ContextInlineIndexterm:
		if in.Type == "visible" {
			return in.Text
		}
		return ""
	case ContextInlineKbd:
		return strings.ReplaceAll(in.Attributes.Value("keys"), ",", "+")
	case ContextInlineButton:
		return "[" + in.Text + "]"
	case ContextInlineMenu:
		parts := []string{in.Attributes.Value("menu")}
		if sub := in.Attributes.Value("submenus"); sub != "" {
			parts = append(parts, strings.Split(sub, ",")...)
		}
		if item := in.Attributes.Value("menuitem"); item != "" {
			parts = append(parts, item)
		}
		return strings.Join(parts, " > ")
	default:
		return in.Text
	}
}
