package subs

import (
	"strings"

	"github.com/tsawler/adoc/model"
)

// ApplyDocument converts the titles and content of every node of the
// document in document order, including the nested documents of table
// cells. Callout ids are read back in the order the parser registered
// them.
func (s *Substitutor) ApplyDocument() {
	doc := s.doc
	subs := map[*model.Document]*Substitutor{doc: s}
	for _, n := range model.FindBy(doc, model.Selector{TraverseDocuments: true}, nil) {
		owner := n.Base().Document()
		if owner == nil {
			owner = doc
		}
		sub, ok := subs[owner]
		if !ok {
			sub = New(owner, s.warns)
			subs[owner] = sub
		}
		if d, ok := n.(*model.Document); ok {
			d.Callouts.Rewind()
		}
		sub.For(n).applyNode(n)
	}
}

func (s *Substitutor) applyNode(n model.Node) {
	b := n.Base()
	if b.Title != "" && b.ConvertedTitle == "" {
		b.ConvertedTitle = s.ApplyTitle(b.Title)
	}
	switch node := n.(type) {
	case *model.Document:
	case *model.ListItem:
		if node.Text != "" {
			node.ConvertedText = s.ApplySubs(node.Text, node.Subs)
		}
	case *model.Table:
		for _, row := range node.AllRows() {
			for _, c := range row {
				if c.Inner == nil {
					c.Text = s.For(c).ApplySubs(strings.TrimSpace(c.Source), c.Subs)
				}
			}
		}
	case *model.Cell:
	case *model.List:
		if node.Context() == model.ContextColist {
			s.doc.Callouts.NextList()
		}
	case *model.Section:
	default:
		switch b.ContentModel {
		case model.ContentSimple, model.ContentVerbatim, model.ContentRaw:
			if len(b.Lines) > 0 {
				b.Content = s.ApplyLines(b.Lines, b.Subs)
			}
		}
	}
}
