package model

// ListItem is one entry of a list. Text holds the principal text that
// follows the marker; further content lives in Blocks.
type ListItem struct {
	Block

	Marker string
	// Depth is the nesting depth derived from the marker, starting at 1.
	Depth int
	Text  string
	// ConvertedText is Text after substitutions.
	ConvertedText string
}

// NewListItem creates an item with the given principal text.
func NewListItem(text string) *ListItem {
	li := &ListItem{Text: text}
	li.context = ContextListItem
	li.ContentModel = ContentCompound
	li.Attributes = Attributes{}
	li.Subs = NormalSubs
	li.self = li
	return li
}

// HasText reports whether the item has principal text.
func (li *ListItem) HasText() bool { return li.Text != "" }

// FoldFirst merges a leading paragraph into the principal text. The parser
// calls it when a paragraph directly follows the marker line.
func (li *ListItem) FoldFirst() {
	if len(li.Blocks) == 0 {
		return
	}
	p, ok := li.Blocks[0].(*Block)
	if !ok || p.Context() != ContextParagraph {
		return
	}
	src := p.Source()
	if li.Text == "" {
		li.Text = src
	} else {
		li.Text = li.Text + "\n" + src
	}
	li.remove(p)
}

// DListEntry pairs one or more terms with an optional description.
type DListEntry struct {
	Terms       []*ListItem
	Description *ListItem
}

// List is an unordered, ordered, description or callout list.
type List struct {
	Block

	// Entries holds term/description pairs for description lists.
	Entries []*DListEntry
}

// NewList creates a list of the given context.
func NewList(ctx Context) *List {
	l := &List{}
	l.context = ctx
	l.ContentModel = ContentCompound
	l.Attributes = Attributes{}
	l.self = l
	return l
}

// AddItem appends an item to an unordered, ordered or callout list.
func (l *List) AddItem(item *ListItem) {
	l.Append(item)
}

// Items returns the items of a non-description list.
func (l *List) Items() []*ListItem {
	items := make([]*ListItem, 0, len(l.Blocks))
	for _, b := range l.Blocks {
		if li, ok := b.(*ListItem); ok {
			items = append(items, li)
		}
	}
	return items
}

// AddEntry appends a description list pair.
func (l *List) AddEntry(entry *DListEntry) {
	for _, t := range entry.Terms {
		l.adopt(t)
	}
	if entry.Description != nil {
		l.adopt(entry.Description)
	}
	l.Entries = append(l.Entries, entry)
}

// Len returns the number of items, or of pairs for a description list.
func (l *List) Len() int {
	if l.context == ContextDList {
		return len(l.Entries)
	}
	return len(l.Blocks)
}

// Children returns items in order; for description lists the terms and
// description of each pair are flattened.
func (l *List) Children() []Node {
	if l.context != ContextDList {
		return l.Blocks
	}
	var out []Node
	for _, e := range l.Entries {
		for _, t := range e.Terms {
			out = append(out, t)
		}
		if e.Description != nil {
			out = append(out, e.Description)
		}
	}
	return out
}
