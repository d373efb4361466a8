// Package resolver turns a parsed Document plus an environment snapshot into
// the typed, immutable ResolvedConfig.
//
// Resolution substitutes env("NAME") calls and var.x references, flattens
// string templates, and rewrites cross-block references like data_source.db
// into their dotted-path form. Whether a referenced block actually exists is
// deliberately not checked here; that is the semantic validation phase's job,
// which keeps resolution free of declaration-order constraints.
//
// Resolution is pure: the same Document and environment snapshot always
// produce a structurally identical ResolvedConfig.
package resolver
