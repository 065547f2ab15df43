// Package reader presents document source lines to the parser one at a
// time, with look-ahead and push-back.
//
// # Plain Reading
//
// Use [New] for a reader that hands lines out unchanged:
//
//	r := reader.New(lines, model.NewCursor("doc.adoc", 1), nil)
//	for {
//	    line, ok := r.ReadLine()
//	    if !ok {
//	        break
//	    }
//	    ...
//	}
//
// Peeking never consumes a line. [Reader.Unshift] pushes a line back and
// [Reader.ReadLinesUntil] reads a delimited region, warning when the
// closing fence never appears.
//
// # Preprocessing
//
// [NewPreprocessor] returns a [PreprocessorReader] that evaluates
// preprocessor directives as lines are peeked:
//
//   - ifdef::name[] and ifndef::name[] test whether attributes are set;
//     names may be joined with "," (any) or "+" (all)
//   - ifeval::[expr] compares two operands with ==, !=, <, <=, > or >=
//   - endif::name[] closes the innermost open directive
//   - include::target[] splices another file in, optionally restricted
//     with lines= or tag=/tags=
//
// Lines inside a false conditional never reach the caller. A directive
// prefixed with a backslash is passed through without it.
//
// Includes are resolved against the directory of the including file by a
// [resolver.IncludeResolver]. Without a resolver, or under the secure safe
// mode, the directive becomes a link to the target.
//
// # Attribute Entries
//
// [Reader.ProcessAttributeEntry] consumes an entry such as ":name: value"
// and applies it immediately, so later lines observe the new value.
package reader
