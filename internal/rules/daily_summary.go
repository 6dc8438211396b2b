package rules

import (
	"context"
	"fmt"
	"log"
	"math"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

// DailySummary reports a user's spending today against yesterday. It does
// not check the clock against the user's configured summary time: the
// scheduler is responsible for invoking it once per user per day at the
// right moment, and a second invocation on the same day produces a second
// summary.
type DailySummary struct {
	profiles     ProfileSource
	transactions TransactionSource
	prefs        PreferenceSource
	sink         Sink
	clock        Clock
	policy       Policy
	catalog      *messages.Catalog
}

func NewDailySummary(profiles ProfileSource, transactions TransactionSource, prefs PreferenceSource, sink Sink, clock Clock, policy Policy, catalog *messages.Catalog) *DailySummary {
	return &DailySummary{
		profiles:     profiles,
		transactions: transactions,
		prefs:        prefs,
		sink:         sink,
		clock:        clock,
		policy:       policy,
		catalog:      catalog,
	}
}

// Run sweeps all users. Per-user failures are logged and skipped.
func (e *DailySummary) Run(ctx context.Context) (*Summary, error) {
	userIDs, err := e.profiles.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	summary := &Summary{}
	for _, userID := range userIDs {
		detail, err := e.RunForUser(ctx, userID)
		if err != nil {
			log.Printf("Daily summary: user %s: %v", userID, err)
			continue
		}
		summary.add(detail)
	}

	return summary, nil
}

// RunForUser produces today's summary for one user.
func (e *DailySummary) RunForUser(ctx context.Context, userID string) (Detail, error) {
	detail := Detail{UserID: userID, Type: notification.TypeDailySummary}

	prefs, err := loadPreferences(ctx, e.prefs, userID)
	if err != nil {
		return detail, err
	}
	if prefs == nil || !prefs.DailySummary {
		detail.Reason = "daily summary disabled"
		return detail, nil
	}

	today := startOfDay(e.clock.Now())
	yesterday := today.AddDate(0, 0, -1)

	todayExpenses, err := e.transactions.SumExpenses(ctx, userID, nil, today, today)
	if err != nil {
		return detail, err
	}
	yesterdayExpenses, err := e.transactions.SumExpenses(ctx, userID, nil, yesterday, yesterday)
	if err != nil {
		return detail, err
	}

	var (
		diffPercentage  float64
		isPositiveTrend bool
		title, message  string
	)
	switch {
	case todayExpenses == 0:
		// Zero spend is always a win; 100 by convention.
		diffPercentage = 100
		isPositiveTrend = true
		title = e.catalog.DailySummaryZero.Title
		message = e.catalog.DailySummaryZero.Body
	case yesterdayExpenses > 0:
		diffPercentage = (yesterdayExpenses - todayExpenses) / yesterdayExpenses * 100
		isPositiveTrend = diffPercentage > 0
		if isPositiveTrend {
			title = e.catalog.DailySummaryPositive.Title
			message = fmt.Sprintf(e.catalog.DailySummaryPositive.Body, todayExpenses, diffPercentage)
		} else {
			title = e.catalog.DailySummaryNegative.Title
			message = fmt.Sprintf(e.catalog.DailySummaryNegative.Body, todayExpenses)
		}
	default:
		// Spent today after a zero-spend yesterday.
		diffPercentage = 0
		isPositiveTrend = false
		title = e.catalog.DailySummaryNegative.Title
		message = fmt.Sprintf(e.catalog.DailySummaryNegative.Body, todayExpenses)
	}

	healthScore := e.policy.NegativeHealthScore
	trend := "negative"
	if isPositiveTrend {
		healthScore = e.policy.PositiveHealthScore
		trend = "positive"
	}

	_, err = e.sink.Publish(ctx, notification.CreateParams{
		UserID:  userID,
		Type:    notification.TypeDailySummary,
		Title:   title,
		Message: message,
		Metadata: map[string]any{
			"amount":          todayExpenses,
			"diff_percentage": math.Round(diffPercentage*10) / 10,
			"trend":           trend,
			"health_score":    healthScore,
		},
	})
	if err != nil {
		return detail, err
	}

	detail.Sent = true
	detail.Subject = trend
	return detail, nil
}
