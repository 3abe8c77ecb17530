package handler

import (
	"net/http"
	"time"

	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

type transactionRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Notes  string `json:"notes"`
}

type transactionResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes"`
}

func toTransactionResponse(t model.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Type:      t.Type,
		Amount:    t.Amount,
		Timestamp: t.Timestamp,
		Notes:     t.Notes,
	}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.List(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load transactions")
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		t   *model.Transaction
		err error
	)
	switch req.Type {
	case model.TransactionDeposit:
		t, err = h.transactionService.Deposit(goalID, req.Amount, req.Notes)
	case model.TransactionWithdrawal:
		t, err = h.transactionService.Withdraw(goalID, req.Amount, req.Notes)
	default:
		writeError(w, http.StatusBadRequest, "invalid transaction type", "use deposit or withdrawal")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "failed to record transaction")
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.transactionService.Delete(r.PathValue("id"), r.PathValue("txID"))
	if err != nil {
		writeServiceError(w, r, err, "failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
