package rules

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/domain/profile"
	"kakeibo/internal/shared/messages"
)

// Streak rewards consecutive days of staying under the user's implied
// daily budget limit. The walk runs backward from today over a 30-day
// window once per user, and a reward fires only on an exact milestone
// match, so an 8-day run stays silent until it reaches 14.
type Streak struct {
	profiles     ProfileSource
	transactions TransactionSource
	prefs        PreferenceSource
	gate         *Gate
	sink         Sink
	clock        Clock
	policy       Policy
	catalog      *messages.Catalog
}

func NewStreak(profiles ProfileSource, transactions TransactionSource, prefs PreferenceSource, gate *Gate, sink Sink, clock Clock, policy Policy, catalog *messages.Catalog) *Streak {
	return &Streak{
		profiles:     profiles,
		transactions: transactions,
		prefs:        prefs,
		gate:         gate,
		sink:         sink,
		clock:        clock,
		policy:       policy,
		catalog:      catalog,
	}
}

// Run sweeps every profile with an overall budget. Per-user failures are
// logged and skipped.
func (e *Streak) Run(ctx context.Context) (*Summary, error) {
	profiles, err := e.profiles.ListWithBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles with budget: %w", err)
	}

	summary := &Summary{}
	for _, p := range profiles {
		detail, err := e.evaluateProfile(ctx, p)
		if err != nil {
			log.Printf("Streak check: user %s: %v", p.ID, err)
			continue
		}
		summary.add(detail)
	}

	return summary, nil
}

func (e *Streak) evaluateProfile(ctx context.Context, p *profile.Profile) (Detail, error) {
	detail := Detail{UserID: p.ID, Type: notification.TypeStreakReward}

	if !p.HasBudget() {
		detail.Reason = "no total budget"
		return detail, nil
	}

	prefs, err := loadPreferences(ctx, e.prefs, p.ID)
	if err != nil {
		return detail, err
	}
	if prefs == nil || !prefs.StreakRewards {
		detail.Reason = "streak rewards disabled"
		return detail, nil
	}

	// Fixed divisors, not calendar-accurate: weekly budgets spread over 7
	// days, monthly over 30.
	dailyLimit := p.TotalBudget / e.policy.MonthlyDivisor
	if p.BudgetPeriod == profile.PeriodWeekly {
		dailyLimit = p.TotalBudget / e.policy.WeeklyDivisor
	}

	streak, err := e.countStreak(ctx, p.ID, dailyLimit)
	if err != nil {
		return detail, err
	}
	detail.Subject = strconv.Itoa(streak)

	if !e.policy.IsMilestone(streak) {
		detail.Reason = "no milestone"
		return detail, nil
	}

	since := e.clock.Now().Add(-24 * time.Hour)
	allowed, err := e.gate.Allow(ctx, p.ID, notification.TypeStreakReward, "streak_days", strconv.Itoa(streak), since)
	if err != nil {
		return detail, err
	}
	if !allowed {
		detail.Reason = "duplicate suppressed"
		return detail, nil
	}

	text := e.catalog.StreakText(streak)
	_, err = e.sink.Publish(ctx, notification.CreateParams{
		UserID:  p.ID,
		Type:    notification.TypeStreakReward,
		Title:   text.Title,
		Message: text.Body,
		Metadata: map[string]any{
			"streak_days":  streak,
			"daily_limit":  dailyLimit,
			"health_score": e.policy.StreakHealthScore(streak),
		},
	})
	if err != nil {
		return detail, err
	}

	detail.Sent = true
	return detail, nil
}

// countStreak walks backward from today and counts days with expenses at
// or under the limit, stopping at the first day over it. The result is
// the length of the unbroken run ending today, capped at the lookback
// window.
func (e *Streak) countStreak(ctx context.Context, userID string, dailyLimit float64) (int, error) {
	today := startOfDay(e.clock.Now())

	streak := 0
	for i := 0; i < e.policy.StreakLookbackDays; i++ {
		day := today.AddDate(0, 0, -i)
		spent, err := e.transactions.SumExpenses(ctx, userID, nil, day, day)
		if err != nil {
			return 0, err
		}
		if spent > dailyLimit {
			break
		}
		streak++
	}

	return streak, nil
}
