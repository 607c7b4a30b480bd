// Package harness executes end-to-end reconciliation scenarios against the
// real engine and store, and compares their final state against golden
// snapshots.
//
// A scenario is a YAML file describing a scope, a classification policy, and
// a sequence of ticks during which the upstream feed grows. The harness runs
// each tick through the engine over a fresh in-memory store with a scripted
// record source, then snapshots the cursor, the balances, and the full
// ledger. Deterministic run IDs and canonical JSON keep snapshots stable
// across runs.
package harness

import (
	"context"
	"fmt"
	"sync"

	"github.com/alynder/warchest/internal/engine"
	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/store"
)

// scriptedSource serves a growing in-memory feed, honoring the fetch
// contract (id > sinceID, ascending, truncated to limit). Ticks extend the
// feed before each pass, modelling new upstream records arriving between
// polls.
type scriptedSource struct {
	mu   sync.Mutex
	feed []record.BankRecord
}

func (s *scriptedSource) extend(records []record.BankRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = append(s.feed, records...)
}

func (s *scriptedSource) Fetch(ctx context.Context, scope record.Scope, sinceID int64, limit int) ([]record.BankRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []record.BankRecord
	for _, r := range s.feed {
		if r.ID > sinceID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Run executes a scenario and returns its final-state snapshot.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// fixed run IDs so engine output is deterministic.
func Run(scenario *Scenario) (*Snapshot, error) {
	scope, err := scenario.Scope.scope()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	src := &scriptedSource{}
	rules := record.Rules{TransferTag: scenario.TransferTag}
	if len(scenario.TaxIDs) > 0 && scope.Kind == record.ScopeAlliance {
		rules.TaxIDs = map[int64][]int64{scope.AllianceID: scenario.TaxIDs}
	}

	runIDs := make([]string, len(scenario.Ticks))
	for i := range runIDs {
		runIDs[i] = fmt.Sprintf("tick-%d", i+1)
	}

	eng := engine.New(st, src, rules, []record.Scope{scope},
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runIDs...)))

	ctx := context.Background()
	snapshot := &Snapshot{Scenario: scenario.Name}

	for i, tick := range scenario.Ticks {
		if tick.RewindTo != nil {
			_, err := st.DB().ExecContext(ctx,
				`UPDATE sync_cursors SET last_seen_id = ? WHERE scope_key = ?`,
				*tick.RewindTo, scope.Key())
			if err != nil {
				return nil, fmt.Errorf("tick %d: rewind cursor: %w", i, err)
			}
		}

		records := make([]record.BankRecord, 0, len(tick.Records))
		for _, r := range tick.Records {
			rec, err := r.toBankRecord()
			if err != nil {
				return nil, fmt.Errorf("tick %d: %w", i, err)
			}
			records = append(records, rec)
		}
		src.extend(records)

		res, err := eng.ApplyNow(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
		snapshot.Ticks = append(snapshot.Ticks, tickTrace(res))
	}

	if err := snapshot.captureFinalState(ctx, st, scope); err != nil {
		return nil, err
	}
	return snapshot, nil
}
