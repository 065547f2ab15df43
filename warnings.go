package adoc

import "github.com/tsawler/adoc/diag"

// Warning is a recoverable problem found while loading a document. The
// document is still returned when warnings are reported.
type Warning = diag.Warning

// FormatWarnings renders warnings one per line, each prefixed with its
// location and category.
func FormatWarnings(warnings []Warning) string {
	return diag.Format(warnings)
}
