package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"kakeibo/internal/rules"
)

// JobsHandler exposes the rule evaluators as service endpoints. These routes
// sit behind the service-token middleware and are called by the scheduler or
// an external cron, never by end users.
type JobsHandler struct {
	budget     *rules.BudgetThreshold
	summary    *rules.DailySummary
	streak     *rules.Streak
	missingLog *rules.MissingLog
	anomaly    *rules.Anomaly
}

func NewJobsHandler(budget *rules.BudgetThreshold, summary *rules.DailySummary, streak *rules.Streak, missingLog *rules.MissingLog, anomaly *rules.Anomaly) *JobsHandler {
	return &JobsHandler{
		budget:     budget,
		summary:    summary,
		streak:     streak,
		missingLog: missingLog,
		anomaly:    anomaly,
	}
}

type AnomalyCheckRequest struct {
	UserID     string   `json:"user_id"`
	CategoryID string   `json:"category_id"`
	Amount     *float64 `json:"amount"`
}

const maxJobBodySize = 1 << 20 // 1 MiB

type sweeper interface {
	Run(ctx context.Context) (*rules.Summary, error)
}

// HandleBudgetCheck handles POST /api/jobs/budget-check
func (h *JobsHandler) HandleBudgetCheck(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "budget-check", h.budget)
}

// HandleDailySummary handles POST /api/jobs/daily-summary
func (h *JobsHandler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "daily-summary", h.summary)
}

// HandleStreakCheck handles POST /api/jobs/streak-check
func (h *JobsHandler) HandleStreakCheck(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "streak-check", h.streak)
}

// HandleMissingLog handles POST /api/jobs/missing-log
func (h *JobsHandler) HandleMissingLog(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "missing-log", h.missingLog)
}

func (h *JobsHandler) runSweep(w http.ResponseWriter, r *http.Request, name string, job sweeper) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := job.Run(r.Context())
	if err != nil {
		log.Printf("Job %s failed: %v", name, err)
		respondError(w, http.StatusInternalServerError, "job failed")
		return
	}

	log.Printf("Job %s finished: %d notifications sent, %d users evaluated", name, summary.Sent, len(summary.Details))
	respondJSON(w, http.StatusOK, summary)
}

// HandleAnomalyCheck handles POST /api/jobs/anomaly-check
func (h *JobsHandler) HandleAnomalyCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJobBodySize)
	var req AnomalyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.CategoryID == "" || req.Amount == nil {
		respondError(w, http.StatusBadRequest, "user_id, category_id and amount are required")
		return
	}

	result, err := h.anomaly.Evaluate(r.Context(), rules.AnomalyInput{
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		Amount:     *req.Amount,
	})
	if err != nil {
		if err == rules.ErrMissingInput {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Anomaly check failed for user %s: %v", req.UserID, err)
		respondError(w, http.StatusInternalServerError, "anomaly check failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
