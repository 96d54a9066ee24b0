package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hqhub/taskbank/internal/handler/dto"
	"github.com/hqhub/taskbank/internal/money"
	"github.com/hqhub/taskbank/internal/service"
)

// resolveAmount picks the integer cents from a request that may carry either
// amount_cents or a formatted HQ$ string.
func resolveAmount(w http.ResponseWriter, amountCents int64, amount string) (int64, bool) {
	if amountCents != 0 {
		return amountCents, true
	}
	if amount == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount_cents or amount is required")
		return 0, false
	}

	cents, err := money.ParseCents(amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount is not a valid HQ$ value")
		return 0, false
	}
	return cents, true
}

// handleGetWallet returns the caller's wallet, creating it lazily.
func (h *Handler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wallet, err := h.ledgerService.Balance(ctx, userID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToWalletResponse(wallet))
}

// handleCredit credits the caller's wallet.
func (h *Handler) handleCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	amountCents, ok := resolveAmount(w, req.AmountCents, req.Amount)
	if !ok {
		return
	}

	result, err := h.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      userID,
		AmountCents: amountCents,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ToLedgerResultResponse(result))
}

// handleDebit debits the caller's wallet.
func (h *Handler) handleDebit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	amountCents, ok := resolveAmount(w, req.AmountCents, req.Amount)
	if !ok {
		return
	}

	result, err := h.ledgerService.Debit(ctx, service.EntryParams{
		UserID:      userID,
		AmountCents: amountCents,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ToLedgerResultResponse(result))
}

// handleReverse reverses one of the caller's ledger entries.
func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.OriginalEntryID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "original_entry_id is required")
		return
	}

	result, err := h.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          userID,
		OriginalEntryID: req.OriginalEntryID,
		ReferenceID:     req.ReferenceID,
		Reason:          req.Reason,
	})
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ToLedgerResultResponse(result))
}

// handleStatement returns a page of the caller's ledger.
func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	pageSize := h.cfg.StatementDefaultPageSize
	if sizeParam := query.Get("page_size"); sizeParam != "" {
		if n, err := strconv.Atoi(sizeParam); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > h.cfg.StatementMaxPageSize {
		pageSize = h.cfg.StatementMaxPageSize
	}

	statement, err := h.ledgerService.Statement(ctx, userID, pageSize, query.Get("cursor"))
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToStatementResponse(statement))
}
