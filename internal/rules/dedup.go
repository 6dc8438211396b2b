package rules

import (
	"context"
	"time"
)

// Gate suppresses notifications that would duplicate a semantically
// identical one inside the caller-supplied window. Each evaluator picks
// its own window: start of month for budget thresholds, last 24 hours for
// streaks, start of today for missing-log reminders.
//
// The check is read-then-write with no transactional exclusion, so two
// concurrent runs can both pass it and insert. Accepted trade-off: a
// duplicate notification is a UX nuisance, not a correctness violation.
type Gate struct {
	checker DuplicateChecker
}

func NewGate(checker DuplicateChecker) *Gate {
	return &Gate{checker: checker}
}

// Allow reports whether a notification keyed by (userID, notifType,
// matchKey=matchValue) may be inserted, i.e. no matching notification
// exists at or after since. An empty matchKey matches on type alone.
func (g *Gate) Allow(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
	exists, err := g.checker.Exists(ctx, userID, notifType, matchKey, matchValue, since)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
