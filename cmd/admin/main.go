package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/infrastructure/postgres"
	"kakeibo/internal/rules"
	"kakeibo/internal/shared/config"
	"kakeibo/internal/shared/messages"
)

const usage = `Kakeibo Admin CLI - Management commands for the Kakeibo API

Usage:
  admin <command> [options]

Commands:
  budget-check    Evaluate category budget thresholds for all users
  daily-summary   Send daily spending summaries (all users, or one with --user-id)
  streak-check    Evaluate under-budget streak milestones for all users
  missing-log     Remind users who logged nothing yesterday

Examples:
  # Run a budget sweep once
  admin budget-check

  # Send the daily summary to a single user
  admin daily-summary --user-id=550e8400-e29b-41d4-a716-446655440000

  # Run with a timeout
  admin streak-check --timeout=5m`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "budget-check", "daily-summary", "streak-check", "missing-log":
		runSweep(command, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func runSweep(command string, args []string) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	userID := fs.String("user-id", "", "Limit the run to one user (daily-summary only)")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		fmt.Printf("Error: invalid timeout: %v\n", err)
		os.Exit(1)
	}

	if *userID != "" && command != "daily-summary" {
		fmt.Println("Error: --user-id is only supported for daily-summary")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	profileRepo := postgres.NewProfileRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// The admin CLI writes records only; push delivery stays with the API.
	sink := notification.NewService(notificationRepo, nil)

	policy := rules.DefaultPolicy()
	catalog := messages.Default()
	clock := rules.SystemClock{}
	gate := rules.NewGate(sink)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()

	var summary *rules.Summary
	switch command {
	case "budget-check":
		e := rules.NewBudgetThreshold(categoryRepo, transactionRepo, notificationRepo, gate, sink, clock, policy, catalog)
		summary, err = e.Run(ctx)
	case "daily-summary":
		e := rules.NewDailySummary(profileRepo, transactionRepo, notificationRepo, sink, clock, policy, catalog)
		if *userID != "" {
			var detail rules.Detail
			detail, err = e.RunForUser(ctx, *userID)
			if err == nil {
				summary = &rules.Summary{Details: []rules.Detail{detail}}
				if detail.Sent {
					summary.Sent = 1
				}
			}
		} else {
			summary, err = e.Run(ctx)
		}
	case "streak-check":
		e := rules.NewStreak(profileRepo, transactionRepo, notificationRepo, gate, sink, clock, policy, catalog)
		summary, err = e.Run(ctx)
	case "missing-log":
		e := rules.NewMissingLog(profileRepo, transactionRepo, notificationRepo, gate, sink, clock, catalog)
		summary, err = e.Run(ctx)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}

	fmt.Printf("\n%s complete in %v\n", command, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  users evaluated:    %d\n", len(summary.Details))
	fmt.Printf("  notifications sent: %d\n", summary.Sent)
	for _, d := range summary.Details {
		if d.Reason != "" && !d.Sent {
			fmt.Printf("  user %s: skipped (%s)\n", d.UserID, d.Reason)
		}
	}
}
