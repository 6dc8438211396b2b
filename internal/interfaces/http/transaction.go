package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"kakeibo/internal/domain/transaction"
	"kakeibo/internal/rules"
	"kakeibo/internal/shared/middleware"
)

type TransactionHandler struct {
	transactionRepo transaction.Repository
	anomaly         *rules.Anomaly
}

func NewTransactionHandler(transactionRepo transaction.Repository, anomaly *rules.Anomaly) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo: transactionRepo,
		anomaly:         anomaly,
	}
}

type CreateTransactionRequest struct {
	Amount     *float64 `json:"amount"`
	Kind       string   `json:"kind"`
	CategoryID *string  `json:"category_id"`
	Date       string   `json:"date"` // YYYY-MM-DD
}

type CreateTransactionResponse struct {
	Transaction *transaction.Transaction `json:"transaction"`
	Anomaly     *rules.AnomalyResult     `json:"anomaly,omitempty"`
}

const maxTransactionBodySize = 1 << 20 // 1 MiB

// HandleCreateTransaction handles POST /api/transactions/
//
// A categorized expense is checked against the user's spending history
// before it is recorded, so the new amount never inflates its own
// baseline. A failed check is logged and does not block the create.
func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTransactionBodySize)
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount == nil {
		respondError(w, http.StatusBadRequest, "amount is required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	params := transaction.CreateParams{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     *req.Amount,
		Kind:       req.Kind,
		Date:       date,
	}
	if err := params.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var anomalyResult *rules.AnomalyResult
	if params.Kind == transaction.KindExpense && params.CategoryID != nil {
		anomalyResult, err = h.anomaly.Evaluate(r.Context(), rules.AnomalyInput{
			UserID:     userID,
			CategoryID: *params.CategoryID,
			Amount:     params.Amount,
		})
		if err != nil {
			log.Printf("Anomaly check failed for user %s: %v", userID, err)
			anomalyResult = nil
		}
	}

	tx, err := h.transactionRepo.Create(r.Context(), params)
	if err != nil {
		log.Printf("Error creating transaction for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	respondJSON(w, http.StatusCreated, CreateTransactionResponse{
		Transaction: tx,
		Anomaly:     anomalyResult,
	})
}
