package engine

import (
	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
)

// Result is the structured outcome of one scope's pass through the
// pipeline, rendered by the command surface and logged by the scheduler.
type Result struct {
	Scope record.Scope

	// RunID correlates every scope result of one tick.
	RunID string

	// PreviousCursor is the cursor before the pass; NewCursor after.
	// Equal when nothing new was applied. NewCursor never regresses.
	PreviousCursor int64
	NewCursor      int64

	// RecordCount is the number of new records fetched and considered.
	RecordCount int

	// Totals is the net signed resource movement of the classified
	// records: what the pass credited minus what it debited.
	Totals resource.Vector

	// Applied is true when ledger effects were durably written. Previews
	// always report false.
	Applied bool

	// Err is set when the scope was skipped this pass. The cursor is
	// untouched in that case, so the same records are retried next tick.
	Err error
}
