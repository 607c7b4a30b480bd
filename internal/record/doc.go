// Package record holds the pure domain logic of warchest: bank records,
// synchronization scopes, record classification, and delta accumulation.
//
// Nothing in this package performs I/O. Classification and accumulation are
// deterministic functions of their inputs, which is what makes the ledger
// writer's idempotency argument hold: replaying a batch re-derives exactly
// the same (target, resource, record) triples.
package record
