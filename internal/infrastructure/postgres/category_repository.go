package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kakeibo/internal/domain/category"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	query := `
		SELECT id, user_id, name, COALESCE(monthly_budget, 0), COALESCE(color, ''), COALESCE(icon, ''), created_at
		FROM categories
		WHERE id = $1
	`

	var c category.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.MonthlyBudget, &c.Color, &c.Icon, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}

func (r *CategoryRepository) ListWithBudget(ctx context.Context) ([]*category.Category, error) {
	query := `
		SELECT id, user_id, name, monthly_budget, COALESCE(color, ''), COALESCE(icon, ''), created_at
		FROM categories
		WHERE monthly_budget IS NOT NULL AND monthly_budget > 0
		ORDER BY user_id, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories with budget: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func (r *CategoryRepository) ListByUserID(ctx context.Context, userID string) ([]*category.Category, error) {
	query := `
		SELECT id, user_id, name, COALESCE(monthly_budget, 0), COALESCE(color, ''), COALESCE(icon, ''), created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]*category.Category, error) {
	var categories []*category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.MonthlyBudget, &c.Color, &c.Icon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
