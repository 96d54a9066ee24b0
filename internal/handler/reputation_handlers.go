package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/handler/dto"
	"github.com/hqhub/taskbank/internal/service"
)

// handleGetReputation returns a reputation profile. By default the caller's
// own; pass user_id to read someone else's public score.
func (h *Handler) handleGetReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if other := r.URL.Query().Get("user_id"); other != "" {
		userID = other
	}

	profile, err := h.reputationService.Profile(ctx, userID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToReputationProfileResponse(profile))
}

// handleReputationEntries returns a page of the caller's reputation history.
func (h *Handler) handleReputationEntries(w http.ResponseWriter, r *http.Request) {
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

	entries, nextCursor, err := h.reputationService.Entries(ctx, userID, pageSize, query.Get("cursor"))
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToReputationEntriesResponse(entries, nextCursor))
}

// handleReputationAdjust applies a signed points delta to the caller.
func (h *Handler) handleReputationAdjust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.ReputationAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	entryType := domain.ReputationEntryType(req.Type)
	if !entryType.IsValid() {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be EARN, REVOKE, REVERSAL or ADJUSTMENT")
		return
	}

	result, err := h.reputationService.Add(ctx, service.ReputationParams{
		UserID:      userID,
		Type:        entryType,
		DeltaPoints: req.DeltaPoints,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
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
	respondJSON(w, status, dto.ToReputationResultResponse(result))
}

// handleReputationReverse compensates one of the caller's reputation
// entries.
func (h *Handler) handleReputationReverse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.ReputationReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.OriginalReferenceID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "original_reference_id is required")
		return
	}

	result, err := h.reputationService.Reverse(ctx, userID, req.OriginalReferenceID, req.ReferenceID, req.Description)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ToReputationResultResponse(result))
}

// handleLeaderboard returns the top reputation profiles.
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 10
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	profiles, err := h.reputationService.Leaderboard(ctx, limit)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToLeaderboardResponse(profiles))
}
