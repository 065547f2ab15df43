package model

import "strings"

// Node is implemented by every element of the document tree.
type Node interface {
	// Base returns the shared block fields of the node.
	Base() *Block
	// Children returns the node's structural children in document order.
	Children() []Node
}

// Block holds the fields shared by every structural node. Concrete kinds
// (Section, List, ListItem, Table, Document) embed it.
type Block struct {
	self    Node
	parent  Node
	context Context

	ContentModel ContentModel
	Style        string
	ID           string
	Title        string
	Reftext      string
	Caption      string
	Attributes   Attributes

	// Blocks holds child nodes for compound content.
	Blocks []Node
	// Lines is the raw source content prior to substitution.
	Lines []string
	// Subs lists the substitution stages applied to Lines and Title.
	Subs []Sub
	// Cursor is where the block starts in the source.
	Cursor Cursor

	// Content is Lines after substitutions; ConvertedTitle likewise for Title.
	Content        string
	ConvertedTitle string
}

// NewBlock creates a block of the given context and content model.
func NewBlock(ctx Context, cm ContentModel) *Block {
	b := &Block{context: ctx, ContentModel: cm, Attributes: Attributes{}}
	b.self = b
	return b
}

func (b *Block) Base() *Block { return b }

func (b *Block) Children() []Node { return b.Blocks }

// Context returns the block kind.
func (b *Block) Context() Context { return b.context }

// SetContext changes the block kind. The parser uses it when a style turns
// a paragraph into another leaf kind.
func (b *Block) SetContext(ctx Context) { b.context = ctx }

// Parent returns the enclosing node, or nil for a root document.
func (b *Block) Parent() Node { return b.parent }

// Node returns the concrete node that embeds this block.
func (b *Block) Node() Node {
	if b.self == nil {
		return b
	}
	return b.self
}

// Document walks up the tree to the owning document.
func (b *Block) Document() *Document {
	var n Node = b.Node()
	for n != nil {
		if d, ok := n.(*Document); ok {
			return d
		}
		n = n.Base().parent
	}
	return nil
}

// Append adds child as the last child of b. A child that already has a
// parent is detached from it first, so a node never appears twice.
func (b *Block) Append(child Node) {
	cb := child.Base()
	if cb.parent != nil {
		cb.parent.Base().remove(child)
	}
	cb.parent = b.Node()
	b.Blocks = append(b.Blocks, child)
}

// Remove detaches child from b. It reports whether child was found.
func (b *Block) Remove(child Node) bool {
	n := len(b.Blocks)
	b.remove(child)
	return len(b.Blocks) < n
}

func (b *Block) remove(child Node) {
	for i, c := range b.Blocks {
		if c == child {
			b.Blocks = append(b.Blocks[:i], b.Blocks[i+1:]...)
			child.Base().parent = nil
			return
		}
	}
}

// adopt sets the parent of a node held outside Blocks (list entries,
// inline nodes, table cells).
func (b *Block) adopt(child Node) {
	child.Base().parent = b.Node()
}

// HasBlocks reports whether b has child blocks.
func (b *Block) HasBlocks() bool { return len(b.Blocks) > 0 }

// Source joins the raw lines with newlines.
func (b *Block) Source() string {
	return strings.Join(b.Lines, "\n")
}

// Role returns the role attribute.
func (b *Block) Role() string { return b.Attributes.Value("role") }

// HasRole reports whether name is one of the block's roles.
func (b *Block) HasRole(name string) bool {
	for _, r := range b.Attributes.Roles() {
		if r == name {
			return true
		}
	}
	return false
}

// HasOption reports whether the "<name>-option" attribute is set.
func (b *Block) HasOption(name string) bool {
	return b.Attributes.HasOption(name)
}

// HasTitle reports whether the block carries a title.
func (b *Block) HasTitle() bool { return b.Title != "" }

// Level returns the section level of the nearest enclosing section, or 0.
func (b *Block) Level() int {
	var n Node = b.Node()
	for n != nil {
		if s, ok := n.(*Section); ok {
			return s.Level
		}
		n = n.Base().parent
	}
	return 0
}
