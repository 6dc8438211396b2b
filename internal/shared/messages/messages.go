package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Text is one piece of user-facing notification copy. Body may contain
// fmt verbs filled in by the evaluator that uses it.
type Text struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Catalog holds the notification copy for every notification type.
// StreakMilestones is keyed by milestone length ("3", "7", "14", "30").
type Catalog struct {
	BudgetCritical       Text            `json:"budget_critical"`
	BudgetWarning        Text            `json:"budget_warning"`
	DailySummaryZero     Text            `json:"daily_summary_zero"`
	DailySummaryPositive Text            `json:"daily_summary_positive"`
	DailySummaryNegative Text            `json:"daily_summary_negative"`
	StreakMilestones     map[string]Text `json:"streak_milestones"`
	MissingLog           Text            `json:"missing_log"`
	AnomalyAlert         Text            `json:"anomaly_alert"`
}

// Default returns the built-in English copy.
func Default() *Catalog {
	return &Catalog{
		BudgetCritical: Text{
			Title: "Budget Limit Reached!",
			Body:  "You've spent your entire %s budget for this month.",
		},
		BudgetWarning: Text{
			Title: "Budget Warning",
			Body:  "You've used %d%% of your %s budget this month.",
		},
		DailySummaryZero: Text{
			Title: "Daily Spending Summary",
			Body:  "No spending today. Keep it up!",
		},
		DailySummaryPositive: Text{
			Title: "Daily Spending Summary",
			Body:  "You spent %.2f today, %.1f%% less than yesterday. Nice!",
		},
		DailySummaryNegative: Text{
			Title: "Daily Spending Summary",
			Body:  "You spent %.2f today, more than yesterday. Keep an eye on it.",
		},
		StreakMilestones: map[string]Text{
			"3":  {Title: "3-Day Streak!", Body: "Three days in a row under your daily budget. Keep going!"},
			"7":  {Title: "One Week Streak!", Body: "A full week under your daily budget. Impressive discipline!"},
			"14": {Title: "Two Week Streak!", Body: "Fourteen days under your daily budget. You're on a roll!"},
			"30": {Title: "30-Day Streak!", Body: "A whole month under your daily budget. Outstanding!"},
		},
		MissingLog: Text{
			Title: "Don't forget to log your expenses!",
			Body:  "You haven't recorded any transactions today.",
		},
		AnomalyAlert: Text{
			Title: "Unusual Spending Detected",
			Body:  "You spent %.2f on %s, well above your recent average of %.2f.",
		},
	}
}

// StreakText returns the copy for a milestone, falling back to a generic
// message when the catalog has no entry for it.
func (c *Catalog) StreakText(days int) Text {
	if t, ok := c.StreakMilestones[fmt.Sprintf("%d", days)]; ok {
		return t
	}
	return Text{
		Title: fmt.Sprintf("%d-Day Streak!", days),
		Body:  fmt.Sprintf("%d days in a row under your daily budget. Keep going!", days),
	}
}

var (
	loaded   *Catalog
	loadOnce sync.Once
	loadErr  error
)

// Load reads a JSON copy file, overlaying it on the defaults, and caches
// the result. Safe to call from multiple goroutines.
func Load(path string) (*Catalog, error) {
	loadOnce.Do(func() {
		catalog := Default()

		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read messages file: %w", err)
			return
		}
		if err := json.Unmarshal(data, catalog); err != nil {
			loadErr = fmt.Errorf("failed to parse messages file: %w", err)
			return
		}
		loaded = catalog
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}
