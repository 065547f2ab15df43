package model

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// FoldName normalizes an attribute name for case-insensitive lookup.
func FoldName(name string) string {
	if isFolded(name) {
		return name
	}
	return cases.Fold().String(name)
}

func isFolded(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || (c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// Attributes is a block-level attribute map. Keys are folded on write and on
// lookup, so "ID" and "id" address the same entry. Positional attributes
// are stored under "1", "2", ...
type Attributes map[string]string

// Get returns the value for name and whether it is present.
func (a Attributes) Get(name string) (string, bool) {
	v, ok := a[FoldName(name)]
	return v, ok
}

// Value returns the value for name or "" if absent.
func (a Attributes) Value(name string) string {
	return a[FoldName(name)]
}

// Has reports whether name is present, even with an empty value.
func (a Attributes) Has(name string) bool {
	_, ok := a[FoldName(name)]
	return ok
}

// Set stores value under name.
func (a Attributes) Set(name, value string) {
	a[FoldName(name)] = value
}

// Delete removes name and returns its former value.
func (a Attributes) Delete(name string) string {
	key := FoldName(name)
	v := a[key]
	delete(a, key)
	return v
}

// HasOption reports whether the "<name>-option" flag is set.
func (a Attributes) HasOption(name string) bool {
	return a.Has(name + "-option")
}

// SetOption sets the "<name>-option" flag.
func (a Attributes) SetOption(name string) {
	a.Set(name+"-option", "")
}

// Merge copies every entry of other into a, overwriting existing keys.
func (a Attributes) Merge(other map[string]string) {
	for k, v := range other {
		a.Set(k, v)
	}
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Roles splits the role attribute on whitespace.
func (a Attributes) Roles() []string {
	return strings.Fields(a.Value("role"))
}
