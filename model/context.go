package model

// Context is the closed set of node kinds the parser can produce.
type Context int

const (
	ContextUnknown Context = iota
	ContextDocument
	ContextPreamble
	ContextSection
	ContextFloatingTitle
	ContextParagraph
	ContextAdmonition
	ContextListing
	ContextLiteral
	ContextExample
	ContextSidebar
	ContextQuote
	ContextVerse
	ContextPass
	ContextOpen
	ContextTable
	ContextTableCell
	ContextUList
	ContextOList
	ContextDList
	ContextColist
	ContextListItem
	ContextImage
	ContextVideo
	ContextAudio
	ContextTOC
	ContextThematicBreak
	ContextPageBreak

	// inline nodes, produced by the substitutions engine
	ContextInlineQuoted
	ContextInlineAnchor
	ContextInlineImage
	ContextInlineFootnote
	ContextInlineCallout
	ContextInlineBreak
	ContextInlineIndexterm
	ContextInlineKbd
	ContextInlineButton
	ContextInlineMenu
)

var contextNames = map[Context]string{
	ContextDocument:        "document",
	ContextPreamble:        "preamble",
	ContextSection:         "section",
	ContextFloatingTitle:   "floating_title",
	ContextParagraph:       "paragraph",
	ContextAdmonition:      "admonition",
	ContextListing:         "listing",
	ContextLiteral:         "literal",
	ContextExample:         "example",
	ContextSidebar:         "sidebar",
	ContextQuote:           "quote",
	ContextVerse:           "verse",
	ContextPass:            "pass",
	ContextOpen:            "open",
	ContextTable:           "table",
	ContextTableCell:       "table_cell",
	ContextUList:           "ulist",
	ContextOList:           "olist",
	ContextDList:           "dlist",
	ContextColist:          "colist",
	ContextListItem:        "list_item",
	ContextImage:           "image",
	ContextVideo:           "video",
	ContextAudio:           "audio",
	ContextTOC:             "toc",
	ContextThematicBreak:   "thematic_break",
	ContextPageBreak:       "page_break",
	ContextInlineQuoted:    "inline_quoted",
	ContextInlineAnchor:    "inline_anchor",
	ContextInlineImage:     "inline_image",
	ContextInlineFootnote:  "inline_footnote",
	ContextInlineCallout:   "inline_callout",
	ContextInlineBreak:     "inline_break",
	ContextInlineIndexterm: "inline_indexterm",
	ContextInlineKbd:       "inline_kbd",
	ContextInlineButton:    "inline_button",
	ContextInlineMenu:      "inline_menu",
}

func (c Context) String() string {
	if name, ok := contextNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseContext maps a context name back to its value. Unknown names yield
// ContextUnknown.
func ParseContext(name string) Context {
	for c, n := range contextNames {
		if n == name {
			return c
		}
	}
	return ContextUnknown
}

// IsInline reports whether the context belongs to an inline node.
func (c Context) IsInline() bool {
	return c >= ContextInlineQuoted
}

// IsList reports whether the context is one of the list kinds.
func (c Context) IsList() bool {
	switch c {
	case ContextUList, ContextOList, ContextDList, ContextColist:
		return true
	}
	return false
}

// ContentModel describes how a block's content is stored.
type ContentModel int

const (
	// ContentCompound blocks hold child blocks.
	ContentCompound ContentModel = iota
	// ContentSimple blocks hold lines that receive normal substitutions.
	ContentSimple
	// ContentVerbatim blocks hold lines that keep their whitespace.
	ContentVerbatim
	// ContentRaw blocks hold lines passed through untouched.
	ContentRaw
	// ContentEmpty blocks hold nothing.
	ContentEmpty
)

func (m ContentModel) String() string {
	switch m {
	case ContentCompound:
		return "compound"
	case ContentSimple:
		return "simple"
	case ContentVerbatim:
		return "verbatim"
	case ContentRaw:
		return "raw"
	case ContentEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
