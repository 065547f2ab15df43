// Package model defines the document tree produced by the parser.
//
// A parse yields one [Document]. It owns the attribute store, the
// references catalog and the callout registry, and holds the top-level
// blocks. Every node implements [Node]; concrete kinds embed [Block]:
//
//   - [Section] - a heading and the blocks under it
//   - [List] and [ListItem] - unordered, ordered, description and callout lists
//   - [Table] and [Cell] - tables with head, body and foot rows
//   - [Inline] - transient nodes built during substitution
//
// # Attributes
//
// Document attributes live in an [AttributeStore] that records the
// [Provenance] of each value. Attributes passed by the caller are locked;
// attribute entries in the source cannot change them:
//
//	store := model.NewAttributeStore()
//	store.Set("toc", "", model.ProvenanceLocked)
//	store.Set("toc", "left", model.ProvenanceHeader) // false
//
// # Traversal
//
// [FindBy] walks the tree depth-first and returns nodes matching a
// [Selector]. A visitor may steer the walk with a [Directive].
//
// # Conversion
//
// The core never renders output. Inline nodes are handed to the
// document's [Converter]; [TextConverter] is the plain-text fallback.
package model
