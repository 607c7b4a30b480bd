package store

import (
	"context"
	"testing"

	"github.com/alynder/warchest/internal/resource"
)

func TestApplyDelta_FirstApplicationMutatesBalance(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	status, err := s.ApplyDelta(ctx, "alliance:1234", resource.Money, 500, 102)
	if err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}
	if status != Applied {
		t.Errorf("status = %v, expected Applied", status)
	}

	v, ok, err := s.Balance(ctx, "alliance:1234")
	if err != nil || !ok {
		t.Fatalf("Balance() = ok %v, err %v", ok, err)
	}
	if v.Money != 500 {
		t.Errorf("money = %v, expected 500", v.Money)
	}
}

func TestApplyDelta_RetryIsNoOp(t *testing.T) {
	// Simulates a crash after write but before cursor advance: the retry
	// finds the marker and leaves the balance alone.
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ApplyDelta(ctx, "alliance:1234", resource.Money, 500, 102); err != nil {
		t.Fatalf("first ApplyDelta() failed: %v", err)
	}

	status, err := s.ApplyDelta(ctx, "alliance:1234", resource.Money, 500, 102)
	if err != nil {
		t.Fatalf("second ApplyDelta() failed: %v", err)
	}
	if status != AlreadyApplied {
		t.Errorf("status = %v, expected AlreadyApplied", status)
	}

	v, _, err := s.Balance(ctx, "alliance:1234")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if v.Money != 500 {
		t.Errorf("money = %v, expected 500 after retry", v.Money)
	}

	entries, err := s.LedgerEntries(ctx, "alliance:1234")
	if err != nil {
		t.Fatalf("LedgerEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger entries = %d, expected exactly 1", len(entries))
	}
}

func TestApplyDelta_DistinctTriplesAllApply(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Same record, different resources; same resource, different records;
	// same (resource, record), different targets. All distinct triples.
	cases := []struct {
		target string
		res    resource.Name
		amount float64
		rec    int64
	}{
		{"member:42", resource.Money, 100, 7},
		{"member:42", resource.Steel, 5, 7},
		{"member:42", resource.Money, 50, 8},
		{"alliance:1234", resource.Money, 100, 7},
	}
	for _, c := range cases {
		status, err := s.ApplyDelta(ctx, c.target, c.res, c.amount, c.rec)
		if err != nil {
			t.Fatalf("ApplyDelta(%v) failed: %v", c, err)
		}
		if status != Applied {
			t.Errorf("ApplyDelta(%v) = %v, expected Applied", c, status)
		}
	}

	v, _, err := s.Balance(ctx, "member:42")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if v.Money != 150 || v.Steel != 5 {
		t.Errorf("member balance = money %v steel %v, expected 150/5", v.Money, v.Steel)
	}
}

func TestApplyDelta_NegativeAmounts(t *testing.T) {
	// Offshore netting: resources flow back out, the pair balance may
	// even go negative.
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ApplyDelta(ctx, "offshore:1:2", resource.Steel, 10, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ApplyDelta(ctx, "offshore:1:2", resource.Steel, -4, 2); err != nil {
		t.Fatal(err)
	}

	v, _, err := s.Balance(ctx, "offshore:1:2")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if v.Steel != 6 {
		t.Errorf("steel = %v, expected 6", v.Steel)
	}
}

func TestApplyDelta_UnknownResourceRejected(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ApplyDelta(context.Background(), "member:42", "plutonium", 1, 1)
	if err == nil {
		t.Error("expected error for unknown resource, got nil")
	}
}

func TestLedgerEntries_SumsMatchBalance(t *testing.T) {
	// No double count: the sum of ledger amounts per (target, resource)
	// equals the balance.
	s := createTestStore(t)
	ctx := context.Background()

	amounts := []float64{100, 250, -30}
	for i, a := range amounts {
		if _, err := s.ApplyDelta(ctx, "alliance:9", resource.Money, a, int64(i+1)); err != nil {
			t.Fatal(err)
		}
	}
	// Retried batch must not change the sums.
	for i, a := range amounts {
		if _, err := s.ApplyDelta(ctx, "alliance:9", resource.Money, a, int64(i+1)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.LedgerEntries(ctx, "alliance:9")
	if err != nil {
		t.Fatalf("LedgerEntries() failed: %v", err)
	}
	var sum float64
	for _, e := range entries {
		sum += e.Amount
	}

	v, _, err := s.Balance(ctx, "alliance:9")
	if err != nil {
		t.Fatal(err)
	}
	if sum != v.Money {
		t.Errorf("ledger sum %v != balance %v", sum, v.Money)
	}
	if v.Money != 320 {
		t.Errorf("money = %v, expected 320", v.Money)
	}
}

func TestBalance_AbsentTarget(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.Balance(context.Background(), "member:404")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if ok {
		t.Error("expected ok=false for never-credited target")
	}
}

func TestLedgerEntries_Empty(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.LedgerEntries(context.Background(), "member:404")
	if err != nil {
		t.Fatalf("LedgerEntries() failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", entries)
	}
}
