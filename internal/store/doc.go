// Package store provides the SQLite results archive behind `ringer search
// --db` and `ringer history`.
//
// The archive holds:
//   - Runs: one record per search, keyed by a UUIDv7 run ID
//   - Compositions: one record per distinct composition, keyed by its
//     content hash (ir.CompositionID)
//   - Run results: which run found which composition, with the score and
//     rank it had in that run
//
// # Critical Patterns
//
// Content-addressed compositions
//   - compositions.id is the SHA-256 composition hash
//   - INSERT OR IGNORE stores a composition once however many runs find it
//
// Deterministic query results
//   - Every list query has a total ORDER BY ending in id COLLATE BINARY
//   - Runs list in creation order because UUIDv7 IDs sort by time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
