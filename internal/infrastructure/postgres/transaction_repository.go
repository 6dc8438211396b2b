package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, category_id, amount, kind, date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		RETURNING id, user_id, category_id, amount, kind, date, created_at
	`

	var t transaction.Transaction
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, params.CategoryID, params.Amount, params.Kind, params.Date,
	).Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &t.Kind, &t.Date, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &t, nil
}

// SumExpenses totals expense amounts for a user between from and to
// (inclusive, day precision). A nil categoryID sums across all categories.
func (r *TransactionRepository) SumExpenses(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
		  AND kind = 'expense'
		  AND ($2::uuid IS NULL OR category_id = $2)
		  AND date >= $3::date AND date <= $4::date
	`

	var total float64
	err := r.db.QueryRowContext(ctx, query, userID, categoryID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return total, nil
}

func (r *TransactionRepository) ListExpenseAmounts(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
	query := `
		SELECT amount
		FROM transactions
		WHERE user_id = $1
		  AND kind = 'expense'
		  AND category_id = $2
		  AND date >= $3::date AND date <= $4::date
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, categoryID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense amounts: %w", err)
	}
	defer rows.Close()

	var amounts []float64
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense amount: %w", err)
		}
		amounts = append(amounts, amount)
	}

	return amounts, rows.Err()
}

func (r *TransactionRepository) HasAnyOnDate(ctx context.Context, userID string, day time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND date = $2::date
			LIMIT 1
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transactions for date: %w", err)
	}

	return exists, nil
}
