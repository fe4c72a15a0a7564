// Package binder rewrites SPARQL syntax trees by walking them with a Visitor.
//
// A binder is a small rewrite strategy (bind a variable to a value, splice a
// pattern list in place of a placeholder filter, rename a variable, ...)
// expressed as a Visitor that overrides only the hooks it needs. The Walker
// does everything else: it visits every node in a fixed order, keeps track of
// which structural member it is in, checks every replacement against the
// kind of slot it lands in, and installs it.
//
// ARCHITECTURE:
//
// Hooks and replacements:
// Each node kind has one hook. A hook returns a Replacement:
//   - NoChange: the walker descends into the node's children
//   - ReplaceWith(n): n is checked against the slot and installed; the walker
//     does not descend into n
//   - SpliceWith(ns...): only valid in list slots; element i is replaced by
//     ns and the walk resumes at i+len(ns)
//
// A hook that wants its replacement walked calls Walker.Descend or
// Walker.WalkPatterns itself before returning.
//
// Traversal order:
// Query: from, where, values, group, having, order, variables, template.
// InsertDelete: graph, using, delete, insert, where.
// Management: source, destination, graph.
// Triple and quad terms: subject, predicate, object (, graph).
// VALUES rows are visited row by row with keys in sorted order.
//
// Ownership:
// Walk rewrites the tree it is given in place. Apply clones the input first,
// so callers keep their tree and never observe a half-rewritten one.
//
// CRITICAL PATTERNS:
//
// Positional kinds:
// A literal in a subject slot or a property path outside a predicate slot is
// a STRUCTURAL_MISMATCH. The check happens on install, never later.
//
// Unknown node kinds:
// Nodes the walker does not recognise (sparql.Extension and foreign types in
// open slots) are left untouched, logged at warn level and listed in the
// Report. WithStrict turns them into UNKNOWN_NODE_KIND errors.
//
// Malformed input:
// A VALUES row or property path that breaks its shape rules fails the walk
// the first time the walker reaches it, before any hook sees it.
//
// Concurrency:
// A walk is single-threaded and synchronous. Binders hold no locks; callers
// that share a tree across goroutines clone it per goroutine.
package binder
