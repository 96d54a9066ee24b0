package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hqhub/taskbank/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Not-found errors
	case errors.Is(err, domain.ErrWalletNotFound):
		return http.StatusNotFound, "WALLET_NOT_FOUND", message
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "ENTRY_NOT_FOUND", message
	case errors.Is(err, domain.ErrReputationEntryNotFound):
		return http.StatusNotFound, "ENTRY_NOT_FOUND", message
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrApplicationNotFound):
		return http.StatusNotFound, "APPLICATION_NOT_FOUND", message

	// Ledger conflicts
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "INSUFFICIENT_FUNDS", message
	case errors.Is(err, domain.ErrCannotReverseReversal):
		return http.StatusConflict, "CANNOT_REVERSE_REVERSAL", message
	case errors.Is(err, domain.ErrUnsupportedReversalType):
		return http.StatusConflict, "UNSUPPORTED_REVERSAL_TYPE", message

	// Task state conflicts
	case errors.Is(err, domain.ErrTaskNotOpen):
		return http.StatusConflict, "TASK_NOT_OPEN", message
	case errors.Is(err, domain.ErrTaskNotAssigned):
		return http.StatusConflict, "TASK_NOT_ASSIGNED", message
	case errors.Is(err, domain.ErrTaskAlreadyAssigned):
		return http.StatusConflict, "TASK_ALREADY_ASSIGNED", message
	case errors.Is(err, domain.ErrTaskAlreadyDone):
		return http.StatusConflict, "TASK_ALREADY_DONE", message
	case errors.Is(err, domain.ErrOwnTaskApplication):
		return http.StatusConflict, "OWN_TASK_APPLICATION", message
	case errors.Is(err, domain.ErrManualPickNotAllowed):
		return http.StatusConflict, "MANUAL_PICK_NOT_ALLOWED", message

	// Permission errors
	case errors.Is(err, domain.ErrLevelTooLow):
		return http.StatusForbidden, "LEVEL_TOO_LOW", message
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrNotTaskCreator):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrNotTaskExecutor):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrZeroDelta):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrEmptyReference):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidDifficulty):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Default: internal server error
	default:
		// CRITICAL: Log unmapped error for debugging
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
