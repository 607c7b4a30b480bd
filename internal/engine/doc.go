// Package engine drives warchest's reconciliation pipeline.
//
// Each tick walks every registered scope through
// fetch → classify → apply → advance-cursor. Three properties hold:
//
//   - Per-scope isolation: a scope's failure lands in its Result and never
//     aborts another scope's pass.
//   - Single-flight: passes for the same scope never overlap; different
//     scopes run concurrently under a bounded worker pool.
//   - Monotonic progress: a scope's cursor advances only after every
//     (target, resource, record) triple of a batch was durably applied,
//     so a partial failure re-fetches and re-applies idempotently.
//
// The timer loop is a thin wrapper; Tick is independently testable
// without real time.
package engine
