package rules

import (
	"context"
	"fmt"
	"log"
	"math"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

// BudgetThreshold compares each category's current-month expense total
// against its monthly budget and notifies at the warning and critical
// crossings. At most one notification fires per category per run; the
// tighter threshold wins by being checked first.
type BudgetThreshold struct {
	categories   CategorySource
	transactions TransactionSource
	prefs        PreferenceSource
	gate         *Gate
	sink         Sink
	clock        Clock
	policy       Policy
	catalog      *messages.Catalog
}

func NewBudgetThreshold(categories CategorySource, transactions TransactionSource, prefs PreferenceSource, gate *Gate, sink Sink, clock Clock, policy Policy, catalog *messages.Catalog) *BudgetThreshold {
	return &BudgetThreshold{
		categories:   categories,
		transactions: transactions,
		prefs:        prefs,
		gate:         gate,
		sink:         sink,
		clock:        clock,
		policy:       policy,
		catalog:      catalog,
	}
}

// Run sweeps every category with a positive monthly budget. A failure on
// one category is logged and does not abort the remaining categories;
// failing to list the categories at all fails the whole run.
func (e *BudgetThreshold) Run(ctx context.Context) (*Summary, error) {
	cats, err := e.categories.ListWithBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories with budget: %w", err)
	}

	summary := &Summary{}
	for _, cat := range cats {
		detail, err := e.evaluateCategory(ctx, cat)
		if err != nil {
			log.Printf("Budget check: category %q (%s): %v", cat.Name, cat.ID, err)
			continue
		}
		summary.add(detail)
	}

	return summary, nil
}

func (e *BudgetThreshold) evaluateCategory(ctx context.Context, cat *category.Category) (Detail, error) {
	detail := Detail{UserID: cat.UserID, Subject: cat.Name}

	prefs, err := loadPreferences(ctx, e.prefs, cat.UserID)
	if err != nil {
		return detail, err
	}
	if prefs == nil || !prefs.BudgetAlerts {
		detail.Reason = "budget alerts disabled"
		return detail, nil
	}

	monthStart, monthEnd := monthBounds(e.clock.Now())

	spent, err := e.transactions.SumExpenses(ctx, cat.UserID, &cat.ID, monthStart, monthEnd)
	if err != nil {
		return detail, err
	}

	// MonthlyBudget > 0 is guaranteed by ListWithBudget.
	percentage := spent / cat.MonthlyBudget * 100

	var notifType, title, message string
	switch {
	case percentage >= e.policy.CriticalPercent:
		notifType = notification.TypeBudgetCritical
		title = e.catalog.BudgetCritical.Title
		message = fmt.Sprintf(e.catalog.BudgetCritical.Body, cat.Name)
	case percentage >= e.policy.WarnPercent:
		notifType = notification.TypeBudgetWarning
		title = e.catalog.BudgetWarning.Title
		message = fmt.Sprintf(e.catalog.BudgetWarning.Body, int(math.Round(percentage)), cat.Name)
	default:
		detail.Reason = "under threshold"
		return detail, nil
	}
	detail.Type = notifType

	// One notification per category per month for the same crossing.
	allowed, err := e.gate.Allow(ctx, cat.UserID, notifType, "category", cat.Name, monthStart)
	if err != nil {
		return detail, err
	}
	if !allowed {
		detail.Reason = "duplicate suppressed"
		return detail, nil
	}

	_, err = e.sink.Publish(ctx, notification.CreateParams{
		UserID:  cat.UserID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Metadata: map[string]any{
			"category":    cat.Name,
			"category_id": cat.ID,
			"amount":      spent,
			"percentage":  math.Round(percentage),
		},
	})
	if err != nil {
		return detail, err
	}

	detail.Sent = true
	return detail, nil
}
