package subs

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText strips markup from converted inline text and decodes
// entities. Text without tags or entities is returned unchanged.
func PlainText(converted string) string {
	if !strings.ContainsAny(converted, "<&") {
		return converted
	}
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(converted), context)
	if err != nil {
		return converted
	}
	var sb strings.Builder
	for _, n := range nodes {
		textContent(n, &sb)
	}
	return sb.String()
}

func textContent(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "br":
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textContent(c, sb)
	}
}
