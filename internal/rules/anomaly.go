package rules

import (
	"context"
	"errors"
	"fmt"
	"math"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

// ErrMissingInput is returned when the triggering transaction lacks a user
// or category reference.
var ErrMissingInput = errors.New("user ID and category ID are required")

// AnomalyInput carries the triggering transaction's fields. The evaluator
// is invoked synchronously at transaction-creation time, before the
// transaction is recorded, so the new amount does not skew its own
// baseline.
type AnomalyInput struct {
	UserID     string
	CategoryID string
	Amount     float64
}

// AnomalyResult reports the outcome for the caller to log or test
// against. With fewer than the minimum prior samples InsufficientData is
// set and nothing is inserted.
type AnomalyResult struct {
	Detected         bool    `json:"detected"`
	InsufficientData bool    `json:"insufficient_data"`
	SampleCount      int     `json:"sample_count"`
	Average          float64 `json:"average"`
	Threshold        float64 `json:"threshold"`
}

// Anomaly flags a single transaction as statistically unusual against the
// user's trailing same-category history. There is no dedup gate: every
// qualifying transaction produces a notification, which is acceptable
// because the check is one-shot per transaction, not a repeating poll.
type Anomaly struct {
	categories   CategoryGetter
	transactions TransactionSource
	prefs        PreferenceSource
	sink         Sink
	clock        Clock
	policy       Policy
	catalog      *messages.Catalog
}

func NewAnomaly(categories CategoryGetter, transactions TransactionSource, prefs PreferenceSource, sink Sink, clock Clock, policy Policy, catalog *messages.Catalog) *Anomaly {
	return &Anomaly{
		categories:   categories,
		transactions: transactions,
		prefs:        prefs,
		sink:         sink,
		clock:        clock,
		policy:       policy,
		catalog:      catalog,
	}
}

// Evaluate checks one transaction. A disabled or absent preference row is
// a no-op success; an upstream failure before the comparison surfaces as
// an error and nothing is inserted.
func (e *Anomaly) Evaluate(ctx context.Context, in AnomalyInput) (*AnomalyResult, error) {
	if in.UserID == "" || in.CategoryID == "" {
		return nil, ErrMissingInput
	}

	prefs, err := loadPreferences(ctx, e.prefs, in.UserID)
	if err != nil {
		return nil, err
	}
	if prefs == nil || !prefs.AnomalyAlerts {
		return &AnomalyResult{}, nil
	}

	now := e.clock.Now()
	from := now.AddDate(0, 0, -e.policy.AnomalyLookbackDays)

	amounts, err := e.transactions.ListExpenseAmounts(ctx, in.UserID, in.CategoryID, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history: %w", err)
	}

	result := &AnomalyResult{SampleCount: len(amounts)}

	// Cold-start guard: a single outlier must not define "usual".
	if len(amounts) < e.policy.AnomalyMinSamples {
		result.InsufficientData = true
		return result, nil
	}

	var total float64
	for _, a := range amounts {
		total += a
	}
	result.Average = total / float64(len(amounts))
	result.Threshold = result.Average * e.policy.AnomalyMultiplier

	// Strictly greater than: an amount exactly at the threshold is normal.
	if in.Amount <= result.Threshold {
		return result, nil
	}
	result.Detected = true

	cat, err := e.categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	roundedAvg := math.Round(result.Average*100) / 100
	_, err = e.sink.Publish(ctx, notification.CreateParams{
		UserID:  in.UserID,
		Type:    notification.TypeAnomalyAlert,
		Title:   e.catalog.AnomalyAlert.Title,
		Message: fmt.Sprintf(e.catalog.AnomalyAlert.Body, in.Amount, cat.Name, roundedAvg),
		Metadata: map[string]any{
			"category":    cat.Name,
			"category_id": cat.ID,
			"amount":      in.Amount,
			"average":     roundedAvg,
		},
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
