package transaction

import (
	"errors"
	"time"
)

// Transaction kinds
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// Domain errors
var (
	ErrInvalidKind         = errors.New("transaction kind must be 'expense' or 'income'")
	ErrNegativeAmount      = errors.New("transaction amount must not be negative")
	ErrIncomeCategory      = errors.New("income transactions must not reference a category")
	ErrMissingDate         = errors.New("transaction date is required")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction represents a single recorded expense or income.
// Date carries day precision in the server's calendar; CategoryID is nil
// for income and for uncategorized expenses.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	CategoryID *string   `json:"category_id"`
	Amount     float64   `json:"amount"`
	Kind       string    `json:"kind"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateParams contains parameters for recording a transaction.
type CreateParams struct {
	UserID     string
	CategoryID *string
	Amount     float64
	Kind       string
	Date       time.Time
}

func (p CreateParams) Validate() error {
	if p.UserID == "" {
		return errors.New("valid user ID is required")
	}
	if p.Kind != KindExpense && p.Kind != KindIncome {
		return ErrInvalidKind
	}
	if p.Amount < 0 {
		return ErrNegativeAmount
	}
	if p.Kind == KindIncome && p.CategoryID != nil {
		return ErrIncomeCategory
	}
	if p.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}
