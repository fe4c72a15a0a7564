// Package harness runs conformance scenarios for query binders.
//
// A scenario is a YAML file naming an input tree (JSON AST), a CUE rule
// file, and assertions about the rewrite:
//
//	name: bind_user
//	description: "binds ?user to a fixed IRI"
//	input: queries/select_user.json
//	rules: rules/with_user.cue
//	assertions:
//	  - type: variable_present
//	    variable: name
//	  - type: replaced_count
//	    count: 1
//
// Paths are relative to the scenario file. Each run compiles and validates
// the rules, applies them to a clone of the input, and records the rule set
// and rewrite in a fresh in-memory cache, reading the rewrite back to check
// that the cached output matches. IDs and seqs come from deterministic
// generators so golden output is stable.
//
// A run that fails to compile, validate or bind is not a harness error:
// the failure codes are recorded on the Result for error_code assertions.
package harness
