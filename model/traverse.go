package model

// Directive is returned by a FindBy visitor to steer the traversal.
type Directive int

const (
	// Include keeps the node and descends into its children.
	Include Directive = iota
	// Exclude drops the node but still descends into its children.
	Exclude
	// Prune keeps the node and skips its children.
	Prune
	// Reject drops the node and all of its descendants.
	Reject
	// Stop keeps the node and ends the whole traversal.
	Stop
)

func (d Directive) String() string {
	switch d {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	case Prune:
		return "prune"
	case Reject:
		return "reject"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Selector filters nodes by context, id, style and role. Zero fields match
// anything.
type Selector struct {
	Context Context
	ID      string
	Style   string
	Role    string
	// TraverseDocuments descends into the nested documents of table cells.
	TraverseDocuments bool
}

func (s Selector) matches(n Node) bool {
	b := n.Base()
	if s.Context != ContextUnknown && b.Context() != s.Context {
		return false
	}
	if s.ID != "" && b.ID != s.ID {
		return false
	}
	if s.Style != "" && b.Style != s.Style {
		return false
	}
	if s.Role != "" && !b.HasRole(s.Role) {
		return false
	}
	return true
}

// FindBy walks the tree rooted at root depth-first in document order and
// returns the nodes matching sel. When visitor is non-nil it is consulted
// for every matching node. With a selector ID the walk stops at the first
// match.
func FindBy(root Node, sel Selector, visitor func(Node) Directive) []Node {
	var out []Node
	findBy(root, sel, visitor, &out)
	return out
}

// findBy returns false when the traversal must stop.
func findBy(n Node, sel Selector, visitor func(Node) Directive, out *[]Node) bool {
	descend := true
	if sel.matches(n) {
		d := Include
		if visitor != nil {
			d = visitor(n)
		}
		switch d {
		case Reject:
			return true
		case Exclude:
		case Prune:
			*out = append(*out, n)
			descend = false
		case Stop:
			*out = append(*out, n)
			return false
		default:
			*out = append(*out, n)
		}
		if sel.ID != "" && d != Exclude {
			return false
		}
	}
	if !descend {
		return true
	}
	if _, ok := n.(*Cell); ok && !sel.TraverseDocuments {
		return true
	}
	for _, c := range n.Children() {
		if !findBy(c, sel, visitor, out) {
			return false
		}
	}
	return true
}
