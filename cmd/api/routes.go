package main

import (
	"log"
	"net/http"

	httphandlers "kakeibo/internal/interfaces/http"
	"kakeibo/internal/shared/config"
	"kakeibo/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Job routes, guarded by the service token. Called by the in-process
	// scheduler or an external cron, never by end users.
	serviceAuth := middleware.ServiceAuth(cfg.Jobs.ServiceToken)

	mux.Handle("/api/jobs/budget-check", serviceAuth(http.HandlerFunc(deps.JobsHandler.HandleBudgetCheck)))
	mux.Handle("/api/jobs/daily-summary", serviceAuth(http.HandlerFunc(deps.JobsHandler.HandleDailySummary)))
	mux.Handle("/api/jobs/streak-check", serviceAuth(http.HandlerFunc(deps.JobsHandler.HandleStreakCheck)))
	mux.Handle("/api/jobs/missing-log", serviceAuth(http.HandlerFunc(deps.JobsHandler.HandleMissingLog)))
	mux.Handle("/api/jobs/anomaly-check", serviceAuth(http.HandlerFunc(deps.JobsHandler.HandleAnomalyCheck)))

	// Protected user routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/transactions/", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleCreateTransaction)))
	mux.Handle("/api/notifications/register-device/", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleRegisterDevice)))
	mux.Handle("/api/notifications/preferences/", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandlePreferences)))
	mux.Handle("/api/notifications/read", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleMarkRead)))
	mux.Handle("/api/notifications/read-all", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleMarkAllRead)))
	mux.Handle("/api/notifications/", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleNotifications)))

	// Apply global middleware
	handler := middleware.Logging(middleware.Telemetry(middleware.Tracing(middleware.CORS(cfg.Server.AllowedHosts)(mux))))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
