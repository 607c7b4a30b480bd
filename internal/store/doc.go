// Package store provides SQLite-backed durable storage for warchest's
// shared mutable state.
//
// Three tables:
//   - sync_cursors: newest record ID already applied, per scope
//   - ledger_txns: idempotency markers, one per applied
//     (target, resource, source record) triple
//   - balances: current resource vector per target
//
// # Critical Patterns
//
// Triple-level idempotency:
//   - UNIQUE(target_id, resource, source_record_id) constraint
//   - ApplyDelta inserts the marker and mutates the balance in one
//     transaction; a conflicting insert commits as AlreadyApplied with no
//     balance mutation
//
// Cursor monotonicity:
//   - AdvanceCursor's upsert is guarded by last_seen_id comparison, so a
//     cursor never moves backward regardless of caller interleaving
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
