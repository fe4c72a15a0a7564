// Package rdf provides the immutable RDF term model used by the SPARQL
// syntax tree and the rewrite engine.
//
// This package contains value types only. It imports nothing internal, so
// both internal/sparql and internal/binder can depend on it without cycles.
//
// Key design constraints:
//   - Terms are values, never mutated after construction. "Replacing" a
//     literal means installing a whole new Literal.
//   - Equality is structural: tag first, then payload.
//   - Hash is a deterministic 31-multiplier rolling hash over UTF-16 code
//     units. Structurally equal terms always hash identically.
//   - Variable names never carry the surface-syntax marker (? or $).
package rdf
