package model

import (
	"sort"

	"golang.org/x/text/cases"
)

// Reference is one entry of the references catalog.
type Reference struct {
	ID      string
	Reftext string
	// Node is the anchored node once it has been built; it may be nil when
	// the id was registered by the early anchor scan.
	Node Node
}

// Catalog maps ids to reference text and tracks which files have been
// included into the document.
type Catalog struct {
	refs     map[string]*Reference
	order    []string
	includes map[string]bool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		refs:     make(map[string]*Reference),
		includes: make(map[string]bool),
	}
}

// Register records id with its reference text. It returns false when the id
// is already present; a later registration of the same id only fills in a
// missing node or reftext.
func (c *Catalog) Register(id, reftext string, node Node) bool {
	if ref, ok := c.refs[id]; ok {
		if ref.Node == nil && node != nil {
			ref.Node = node
			if ref.Reftext == "" {
				ref.Reftext = reftext
			}
			return true
		}
		return false
	}
	c.refs[id] = &Reference{ID: id, Reftext: reftext, Node: node}
	c.order = append(c.order, id)
	return true
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.refs[id]
	return ok
}

// Resolve looks up id.
func (c *Catalog) Resolve(id string) (Reference, bool) {
	ref, ok := c.refs[id]
	if !ok {
		return Reference{}, false
	}
	return *ref, true
}

// ResolveByReftext finds the id whose reference text matches text, first
// exactly and then case-insensitively.
func (c *Catalog) ResolveByReftext(text string) (string, bool) {
	for _, id := range c.order {
		if c.refs[id].Reftext == text {
			return id, true
		}
	}
	fold := cases.Fold()
	want := fold.String(text)
	for _, id := range c.order {
		if fold.String(c.refs[id].Reftext) == want {
			return id, true
		}
	}
	return "", false
}

// IDs returns the registered ids in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// AddInclude records a path (without extension) as included.
func (c *Catalog) AddInclude(path string) {
	c.includes[path] = true
}

// HasInclude reports whether path was included.
func (c *Catalog) HasInclude(path string) bool {
	return c.includes[path]
}

// Includes returns the included paths in sorted order.
func (c *Catalog) Includes() []string {
	paths := make([]string, 0, len(c.includes))
	for p := range c.includes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
