// Package sparql provides the in-memory syntax tree for SPARQL 1.1 queries
// and updates.
//
// The tree is the boundary between an external parser/serializer and the
// rewrite engine in internal/binder:
//
//	[SPARQL text] → (external parser) → [JSON AST] → DecodeJSON → [sparql tree]
//	                                                                   ↓
//	[SPARQL text] ← (external serializer) ← [JSON AST] ← EncodeJSON ← binder
//
// The JSON shape is the sparql.js algebra representation (type, queryType,
// where, triples, termType, pathType, ...). Node discriminants and field
// names are preserved exactly, because "accepts and returns this shape" is
// the only contract with the rest of the system.
//
// TAGGED UNIONS:
//
// Each syntactic category is an interface; concrete node kinds are pointer
// structs. Backends and the rewrite engine use exhaustive type switches:
//
//	switch p := pattern.(type) {
//	case *BGP:
//	case *GroupPattern: // group, optional, union, minus
//	case *GraphPattern:
//	case *ServicePattern:
//	case *FilterPattern:
//	case *BindPattern:
//	case *ValuesPattern:
//	case *Query: // sub-select
//	default: // *Extension or a foreign type - unknown node kind
//	}
//
// Expression and Node are open interfaces: a slot typed Expression holds an
// rdf.Term, *Operation, *FunctionCall, *Aggregate, Tuple, or a Pattern
// operand of EXISTS. Positional constraints are checked by the rewrite
// engine and by Validate, not by the Go type system.
//
// OWNERSHIP:
//
// The tree is a strict tree. Every node is owned by exactly one parent
// container; there are no back references. Terms (internal/rdf) are
// immutable values and may be shared freely. Use Clone before rewriting a
// tree that must be kept.
//
// PREFIXES:
//
// Prefix tables are two-tier: an owned local table plus an optional shared,
// immutable base (DefaultPrefixSet). Lookups fall through from local to
// base. Clone copies the local table and keeps the same base, so inherited
// prefixes still resolve on the clone.
package sparql
