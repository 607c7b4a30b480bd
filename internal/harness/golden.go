package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/alynder/warchest/internal/engine"
	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
	"github.com/alynder/warchest/internal/store"
)

// Snapshot captures a scenario's complete final state: the per-tick engine
// results, the scope cursor, every balance, and the full ledger. Map keys
// serialize sorted, so the JSON form is canonical and fit for golden
// comparison.
type Snapshot struct {
	Scenario string         `json:"scenario"`
	Cursor   int64          `json:"cursor"`
	Ticks    []TickTrace    `json:"ticks"`
	Balances []BalanceTrace `json:"balances"`
	Ledger   []LedgerTrace  `json:"ledger"`
}

// TickTrace is the observable outcome of one reconciliation pass.
type TickTrace struct {
	Records int                `json:"records"`
	Cursor  int64              `json:"cursor"`
	Totals  map[string]float64 `json:"totals"`
}

// BalanceTrace is one target's final holdings, non-zero quantities only.
type BalanceTrace struct {
	Target  string             `json:"target"`
	Amounts map[string]float64 `json:"amounts"`
}

// LedgerTrace is one applied (target, resource, record) triple.
type LedgerTrace struct {
	Target   string  `json:"target"`
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
	Record   int64   `json:"record"`
}

func tickTrace(res engine.Result) TickTrace {
	return TickTrace{
		Records: res.RecordCount,
		Cursor:  res.NewCursor,
		Totals:  nonZero(res.Totals),
	}
}

func nonZero(v resource.Vector) map[string]float64 {
	out := map[string]float64{}
	for _, n := range resource.All {
		if q := v.Get(n); q != 0 {
			out[string(n)] = q
		}
	}
	return out
}

func (s *Snapshot) captureFinalState(ctx context.Context, st *store.Store, scope record.Scope) error {
	cursor, _, err := st.Cursor(ctx, scope.Key())
	if err != nil {
		return err
	}
	s.Cursor = cursor

	targets, err := st.Targets(ctx)
	if err != nil {
		return err
	}
	s.Balances = []BalanceTrace{}
	s.Ledger = []LedgerTrace{}
	for _, target := range targets {
		v, _, err := st.Balance(ctx, target)
		if err != nil {
			return err
		}
		s.Balances = append(s.Balances, BalanceTrace{Target: target, Amounts: nonZero(v)})

		entries, err := st.LedgerEntries(ctx, target)
		if err != nil {
			return err
		}
		for _, e := range entries {
			s.Ledger = append(s.Ledger, LedgerTrace{
				Target:   e.TargetID,
				Resource: string(e.Resource),
				Amount:   e.Amount,
				Record:   e.SourceRecordID,
			})
		}
	}
	return nil
}

// RunWithGolden executes a scenario and compares its snapshot against the
// golden file named after the scenario. Regenerate goldens with
// `go test ./internal/harness -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	snapshot, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s failed: %v", scenario.Name, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
