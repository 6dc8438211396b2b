package scheduler

import (
	"context"
	"fmt"
	"log"

	"kakeibo/internal/rules"
)

// SweepJob runs one all-user evaluator pass.
type SweepJob struct {
	name string
	run  func(ctx context.Context) (*rules.Summary, error)
}

func NewSweepJob(name string, run func(ctx context.Context) (*rules.Summary, error)) *SweepJob {
	return &SweepJob{name: name, run: run}
}

func (j *SweepJob) Execute(ctx context.Context) error {
	summary, err := j.run(ctx)
	if err != nil {
		return fmt.Errorf("%s sweep: %w", j.name, err)
	}
	log.Printf("Sweep %s: %d notifications sent across %d users", j.name, summary.Sent, len(summary.Details))
	return nil
}

func (j *SweepJob) UserID() string { return "all" }

func (j *SweepJob) Description() string { return j.name + " sweep" }

// SummaryJob delivers the daily summary to one user at their preferred
// time.
type SummaryJob struct {
	userID    string
	evaluator *rules.DailySummary
}

func NewSummaryJob(userID string, evaluator *rules.DailySummary) *SummaryJob {
	return &SummaryJob{userID: userID, evaluator: evaluator}
}

func (j *SummaryJob) Execute(ctx context.Context) error {
	_, err := j.evaluator.RunForUser(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("daily summary for user %s: %w", j.userID, err)
	}
	return nil
}

func (j *SummaryJob) UserID() string { return j.userID }

func (j *SummaryJob) Description() string { return "daily summary" }
