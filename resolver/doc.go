// Package resolver resolves include targets for the preprocessor.
//
// An [IncludeResolver] joins a target with the directory of the including
// file, enforces the safe mode jail and reads the content from disk or,
// when allowed, from a URI.
//
// # Basic Usage
//
//	r := resolver.NewResolver(
//		resolver.WithBaseDir("docs"),
//		resolver.WithSafeMode(model.SafeModeSafe),
//	)
//	t, err := r.Resolve("chapters/intro.adoc", "", cursor)
//	data, err := r.Read(t)
//
// # Safe Mode
//
// Under the secure safe mode no file is read. From the safe mode upward,
// paths must stay inside the base directory; a path that escapes it fails
// with a *diag.SecurityError unless [WithRecover] is set, in which case
// it is clamped into the base directory.
//
// # Depth
//
// [IncludeResolver.CheckDepth] guards the include stack against runaway or
// cyclic includes:
//
//	r := resolver.NewResolver(resolver.WithMaxDepth(16))
package resolver
