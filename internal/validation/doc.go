// Package validation checks a ResolvedConfig in three escalating phases.
//
// The Syntax phase is pure per-block rule checking, the Semantic phase works
// the cross-block symbol table, and the Runtime phase performs live
// connectivity and schema probes against the declared data sources. Findings
// are data, not control flow: every phase batches all of its issues into a
// Result so a user can fix many problems per pass, and running a phase twice
// over the same config yields an identical Result.
package validation
