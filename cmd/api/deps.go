package main

import (
	"context"
	"log"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/infrastructure/firebase"
	"kakeibo/internal/infrastructure/postgres"
	httphandlers "kakeibo/internal/interfaces/http"
	"kakeibo/internal/rules"
	"kakeibo/internal/shared/auth"
	"kakeibo/internal/shared/config"
	"kakeibo/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	JobsHandler         *httphandlers.JobsHandler
	NotificationHandler *httphandlers.NotificationHandler
	TransactionHandler  *httphandlers.TransactionHandler

	// Auth
	JWT *auth.JWT

	// Evaluators (for the scheduler's job providers)
	BudgetThreshold *rules.BudgetThreshold
	DailySummary    *rules.DailySummary
	Streak          *rules.Streak
	MissingLog      *rules.MissingLog

	// Repositories
	NotificationRepo *postgres.NotificationRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Push messenger is optional: without Firebase credentials the
	// notification service only writes records.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Firebase unavailable, push delivery disabled: %v", err)
		} else {
			messenger = fcm
			log.Println("Firebase messaging initialized")
		}
	}

	notificationService := notification.NewService(notificationRepo, messenger)

	// Rule engine
	policy := rules.DefaultPolicy()
	if cfg.Rules.WarnPercent > 0 {
		policy.WarnPercent = cfg.Rules.WarnPercent
	}
	if cfg.Rules.CriticalPercent > 0 {
		policy.CriticalPercent = cfg.Rules.CriticalPercent
	}
	if cfg.Rules.AnomalyMultiplier > 0 {
		policy.AnomalyMultiplier = cfg.Rules.AnomalyMultiplier
	}

	catalog := messages.Default()
	if cfg.Rules.MessagesFile != "" {
		catalog, err = messages.Load(cfg.Rules.MessagesFile)
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded message catalog overrides from %s", cfg.Rules.MessagesFile)
	}

	clock := rules.SystemClock{}
	gate := rules.NewGate(notificationService)

	budgetThreshold := rules.NewBudgetThreshold(categoryRepo, transactionRepo, notificationRepo, gate, notificationService, clock, policy, catalog)
	dailySummary := rules.NewDailySummary(profileRepo, transactionRepo, notificationRepo, notificationService, clock, policy, catalog)
	streak := rules.NewStreak(profileRepo, transactionRepo, notificationRepo, gate, notificationService, clock, policy, catalog)
	missingLog := rules.NewMissingLog(profileRepo, transactionRepo, notificationRepo, gate, notificationService, clock, catalog)
	anomaly := rules.NewAnomaly(categoryRepo, transactionRepo, notificationRepo, notificationService, clock, policy, catalog)

	// Auth and handlers
	jwt := auth.NewJWT(cfg.JWT.Secret)

	jobsHandler := httphandlers.NewJobsHandler(budgetThreshold, dailySummary, streak, missingLog, anomaly)
	notificationHandler := httphandlers.NewNotificationHandler(notificationService)
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo, anomaly)

	return &Dependencies{
		DB:                  db,
		JobsHandler:         jobsHandler,
		NotificationHandler: notificationHandler,
		TransactionHandler:  transactionHandler,
		JWT:                 jwt,
		BudgetThreshold:     budgetThreshold,
		DailySummary:        dailySummary,
		Streak:              streak,
		MissingLog:          missingLog,
		NotificationRepo:    notificationRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
