package main

import (
	"context"

	"kakeibo/internal/scheduler"
	"kakeibo/internal/shared/config"
)

// NewSchedulerConfig wires the rule evaluators into the scheduler. Sweeps
// cover the whole user base; daily summaries go out per user at their
// preferred minute.
func NewSchedulerConfig(deps *Dependencies, cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		ScheduleTimes: cfg.Scheduler.SweepTimes,
		WorkerCount:   cfg.Scheduler.WorkerCount,
		JobDelay:      cfg.Scheduler.JobDelay,
		QueueSize:     cfg.Scheduler.QueueSize,
		RunOnStartup:  cfg.Scheduler.RunOnStartup,

		SweepProvider: func(ctx context.Context) ([]scheduler.Job, error) {
			return []scheduler.Job{
				scheduler.NewSweepJob("budget-check", deps.BudgetThreshold.Run),
				scheduler.NewSweepJob("streak-check", deps.Streak.Run),
				scheduler.NewSweepJob("missing-log", deps.MissingLog.Run),
			}, nil
		},

		SummaryProvider: func(ctx context.Context, hhmm string) ([]scheduler.Job, error) {
			userIDs, err := deps.NotificationRepo.ListUserIDsBySummaryTime(ctx, hhmm)
			if err != nil {
				return nil, err
			}
			jobs := make([]scheduler.Job, 0, len(userIDs))
			for _, id := range userIDs {
				jobs = append(jobs, scheduler.NewSummaryJob(id, deps.DailySummary))
			}
			return jobs, nil
		},
	}
}
