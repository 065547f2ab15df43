// Package parser turns the line stream of a reader into a document tree.
//
// # Parsing a Document
//
// [Parse] reads the header (title, author and revision lines, attribute
// entries) and then every block and section of the body:
//
//	doc := model.NewDocument()
//	r := reader.NewPreprocessor(doc, lines, model.NewCursor("doc.adoc", 1), warns)
//	if err := parser.New(doc, warns).Parse(r); err != nil {
//	    return err
//	}
//
// Only a load error or a security violation stops a parse. Everything
// else, such as an unterminated fence or a table row missing its leading
// separator, is recorded as a warning and the parser makes its best guess.
//
// # Blocks
//
// [Parser.NextBlock] returns one structural unit. Each line is matched
// against an ordered table of rules:
//
//   - block metadata: anchors, titles, attribute lines, attribute entries, comments
//   - delimited blocks: open, listing, literal, example, sidebar, quote, pass
//   - tables: |===, ,===, :=== and !===
//   - lists: unordered, ordered, description and callout
//   - single line blocks: breaks, image::, video::, audio::, toc::
//   - admonition, literal and normal paragraphs
//
// Metadata lines are collected and applied to the next block.
//
// # Sections
//
// [Parser.NextSection] reads a heading and everything nested below it. It
// stops at a heading of the same or a shallower level, which is left on
// the reader for the caller.
//
// Section ids are generated from the title when the sectids attribute is
// set, using the idprefix and idseparator attributes.
package parser
