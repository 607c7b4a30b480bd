package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cursor returns the newest record ID already applied for a scope.
// ok is false when the scope has never synced.
func (s *Store) Cursor(ctx context.Context, scopeKey string) (lastSeenID int64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT last_seen_id FROM sync_cursors WHERE scope_key = ?
	`, scopeKey).Scan(&lastSeenID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cursor %s: %w", scopeKey, err)
	}
	return lastSeenID, true, nil
}

// AdvanceCursor moves a scope's cursor forward to id.
//
// The upsert is guarded so the cursor never moves backward: a stale
// caller racing a fresher one simply loses. Callers invoke this only
// after every triple in the batch was durably applied.
func (s *Store) AdvanceCursor(ctx context.Context, scopeKey string, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (scope_key, last_seen_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope_key) DO UPDATE SET
			last_seen_id = excluded.last_seen_id,
			updated_at = excluded.updated_at
		WHERE excluded.last_seen_id > sync_cursors.last_seen_id
	`, scopeKey, id, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("advance cursor %s: %w", scopeKey, err)
	}
	return nil
}
