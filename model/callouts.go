package model

import (
	"fmt"
	"strings"
)

// Callout pairs a marker found in verbatim content with its generated id
// and the source line it appeared on.
type Callout struct {
	Ordinal int
	ID      string
	// Line is the 0-based index of the line within the block content.
	Line int
}

// Callouts tracks callout markers per callout list. Markers are registered
// while verbatim blocks are parsed and read back in the same order while
// their content is substituted.
type Callouts struct {
	lists     [][]Callout
	listIndex int
	coIndex   int
}

// NewCallouts returns an empty registry positioned at the first list.
func NewCallouts() *Callouts {
	c := &Callouts{}
	c.NextList()
	return c
}

// Register records a marker for the current list and returns its id.
func (c *Callouts) Register(ordinal, line int) string {
	id := fmt.Sprintf("CO%d-%d", c.listIndex, c.coIndex)
	c.lists[c.listIndex-1] = append(c.lists[c.listIndex-1], Callout{Ordinal: ordinal, ID: id, Line: line})
	c.coIndex++
	return id
}

// ReadNextID returns the id of the next marker of the current list, or ""
// when all markers have been consumed.
func (c *Callouts) ReadNextID() string {
	list := c.lists[c.listIndex-1]
	id := ""
	if c.coIndex <= len(list) {
		id = list[c.coIndex-1].ID
	}
	c.coIndex++
	return id
}

// IDs returns the space-separated ids of markers with the given ordinal
// in the current list.
func (c *Callouts) IDs(ordinal int) string {
	var ids []string
	for _, co := range c.lists[c.listIndex-1] {
		if co.Ordinal == ordinal {
			ids = append(ids, co.ID)
		}
	}
	return strings.Join(ids, " ")
}

// Current returns the markers of the current list.
func (c *Callouts) Current() []Callout {
	return append([]Callout(nil), c.lists[c.listIndex-1]...)
}

// List returns the markers of the 1-based list index.
func (c *Callouts) List(index int) []Callout {
	if index < 1 || index > len(c.lists) {
		return nil
	}
	return append([]Callout(nil), c.lists[index-1]...)
}

// NextList closes the current list; the next markers start a new one.
func (c *Callouts) NextList() {
	c.listIndex++
	if len(c.lists) < c.listIndex {
		c.lists = append(c.lists, nil)
	}
	c.coIndex = 1
}

// Rewind repositions the registry at the first list for a read pass.
func (c *Callouts) Rewind() {
	c.listIndex = 1
	c.coIndex = 1
}
