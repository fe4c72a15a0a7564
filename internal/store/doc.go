// Package store provides a SQLite-backed cache of completed rewrites.
//
// The store keeps:
//   - Rule sets: the canonical JSON of each compiled rule set, keyed by its
//     fingerprint
//   - Rewrites: input and output ASTs keyed by (input fingerprint, rules
//     fingerprint), with the walk counts of the rewrite that produced them
//
// # Storage Rules
//
// Rewrite-level idempotency:
//   - UNIQUE(input_fingerprint, rules_fingerprint) constraint
//   - Writing the same rewrite twice returns the first record's ID
//
// Logical identity and time:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Record IDs come from an IDGenerator (UUIDv7 by default)
//
// Deterministic query results:
//   - All list queries MUST include: ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed by internal/canon using RFC 8785 canonical JSON
// and SHA-256 with domain separation.
package store
