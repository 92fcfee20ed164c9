// Package store provides SQLite-backed durable storage for the ledger host.
//
// The store holds two tables:
//   - accounts: host-provisioned storage slots and their current bytes
//   - instructions: append-only log of every invocation, successful or not
//
// # Critical Patterns
//
// Atomic commit:
//   - An instruction's log row and all of its account writes are applied in
//     one SQL transaction (Commit). A crash never leaves half an instruction.
//
// Logical time:
//   - All ordering uses seq INTEGER from the runtime's logical clock, NEVER
//     timestamps. Provisioning and instructions share one seq space, so the
//     log can be replayed in exact order.
//
// Deterministic reads:
//   - Every list query has an explicit ORDER BY on seq, then address.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Addresses are stored as base58 TEXT so the database stays readable with
// the sqlite3 shell.
package store
