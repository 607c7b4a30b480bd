package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alynder/warchest/internal/resource"
)

// ApplyStatus is the outcome of a single-triple ledger application.
type ApplyStatus int

const (
	// Applied means the marker was inserted and the balance mutated.
	Applied ApplyStatus = iota

	// AlreadyApplied means the marker existed; the balance was untouched.
	// This is the expected outcome of a retried batch, not an error.
	AlreadyApplied
)

func (s ApplyStatus) String() string {
	if s == AlreadyApplied {
		return "already_applied"
	}
	return "applied"
}

// LedgerEntry is one applied (target, resource, source record) triple,
// kept as both idempotency marker and audit record.
type LedgerEntry struct {
	TargetID       string
	Resource       resource.Name
	SourceRecordID int64
	Amount         float64
	AppliedAt      time.Time
}

// ApplyDelta applies a signed amount to one target balance, keyed by the
// source record that caused it.
//
// Protocol, atomic per triple (single transaction):
//  1. Insert the ledger_txns marker with ON CONFLICT DO NOTHING. Zero rows
//     affected means the triple was applied before: commit and report
//     AlreadyApplied without touching the balance.
//  2. Otherwise upsert-increment the balance column in the same
//     transaction, creating the balance row lazily.
//
// Under arbitrary retries and concurrent invocations for the same triple
// the balance moves by amount exactly once. A transaction failure rolls
// back both the marker and the balance, so the caller may simply retry
// next tick.
func (s *Store) ApplyDelta(ctx context.Context, targetID string, res resource.Name, amount float64, sourceRecordID int64) (ApplyStatus, error) {
	if !resource.Known(res) {
		return 0, fmt.Errorf("apply delta: unknown resource %q", res)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("apply delta: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_txns
		(target_id, resource, source_record_id, amount, applied_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(target_id, resource, source_record_id) DO NOTHING
	`,
		targetID,
		string(res),
		sourceRecordID,
		amount,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("apply delta: insert marker: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("apply delta: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Marker exists - this triple was applied by an earlier tick or a
		// concurrent one. No balance mutation.
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("apply delta: commit (existing): %w", err)
		}
		return AlreadyApplied, nil
	}

	// Resource names are validated against the closed set above, so the
	// column interpolation cannot carry arbitrary input.
	col := string(res)
	query := fmt.Sprintf(`
		INSERT INTO balances (target_id, %s) VALUES (?, ?)
		ON CONFLICT(target_id) DO UPDATE SET %s = %s + excluded.%s
	`, col, col, col, col)

	if _, err := tx.ExecContext(ctx, query, targetID, amount); err != nil {
		return 0, fmt.Errorf("apply delta: update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("apply delta: commit: %w", err)
	}

	return Applied, nil
}

// LedgerEntries returns every applied triple for a target, ordered by
// source record then resource for deterministic listings.
func (s *Store) LedgerEntries(ctx context.Context, targetID string) ([]LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_id, resource, source_record_id, amount, applied_at
		FROM ledger_txns
		WHERE target_id = ?
		ORDER BY source_record_id ASC, resource ASC
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var res, appliedAt string
		if err := rows.Scan(&e.TargetID, &res, &e.SourceRecordID, &e.Amount, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Resource = resource.Name(res)
		if t, perr := time.Parse(time.RFC3339Nano, appliedAt); perr == nil {
			e.AppliedAt = t
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	if entries == nil {
		entries = []LedgerEntry{}
	}
	return entries, nil
}
