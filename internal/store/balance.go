package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alynder/warchest/internal/resource"
)

// Balance returns the current resource vector for a target.
// ok is false when the target has never been credited; balances are
// created lazily by the first ApplyDelta.
func (s *Store) Balance(ctx context.Context, targetID string) (v resource.Vector, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT money, coal, oil, uranium, iron, bauxite,
		       lead, gasoline, munitions, steel, aluminum, food
		FROM balances
		WHERE target_id = ?
	`, targetID).Scan(
		&v.Money, &v.Coal, &v.Oil, &v.Uranium, &v.Iron, &v.Bauxite,
		&v.Lead, &v.Gasoline, &v.Munitions, &v.Steel, &v.Aluminum, &v.Food,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return resource.Vector{}, false, nil
	}
	if err != nil {
		return resource.Vector{}, false, fmt.Errorf("read balance %s: %w", targetID, err)
	}
	return v, true, nil
}

// Targets returns every target that holds a balance row, sorted by ID.
func (s *Store) Targets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target_id FROM balances ORDER BY target_id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	targets := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, id)
	}
	return targets, rows.Err()
}
