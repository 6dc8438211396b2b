package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kakeibo/internal/domain/profile"
)

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	query := `
		SELECT id, display_name, total_budget, COALESCE(budget_period, ''), created_at
		FROM profiles
		WHERE id = $1
	`

	var p profile.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.TotalBudget, &p.BudgetPeriod, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *ProfileRepository) ListWithBudget(ctx context.Context) ([]*profile.Profile, error) {
	query := `
		SELECT id, display_name, total_budget, COALESCE(budget_period, ''), created_at
		FROM profiles
		WHERE total_budget > 0
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles with budget: %w", err)
	}
	defer rows.Close()

	var profiles []*profile.Profile
	for rows.Next() {
		var p profile.Profile
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.TotalBudget, &p.BudgetPeriod, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
