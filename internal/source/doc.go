// Package source fetches raw bank records from the upstream API.
//
// The upstream's response shape has drifted across versions: the same
// record list has been served flat, wrapped in a paginator object, and
// nested under a parent alliance entity. Rather than chasing one schema,
// the client carries an ordered list of shape adapters, probes them until
// one decodes, and remembers the winner for the next fetch.
//
// # Error contract
//
//   - ErrShapeMismatch: internal, recovered by probing the next shape.
//   - ErrUnavailable: retries and shapes exhausted; the caller skips the
//     scope this tick and the cursor stays put.
//
// Fetching is strictly read-only. All ledger mutation happens in the
// store, behind its idempotency markers, so a fetch that is retried or
// repeated can never double-apply anything.
package source
