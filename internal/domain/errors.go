package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Wallet and ledger errors
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrEntryNotFound           = errors.New("ledger entry not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrCannotReverseReversal   = errors.New("cannot reverse a reversal entry")
	ErrUnsupportedReversalType = errors.New("entry type cannot be reversed")

	// Reputation errors
	ErrReputationEntryNotFound = errors.New("reputation entry not found")

	// Task errors
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskNotOpen          = errors.New("task is not open")
	ErrTaskNotAssigned      = errors.New("task is not assigned")
	ErrTaskAlreadyAssigned  = errors.New("task already assigned")
	ErrTaskAlreadyDone      = errors.New("task already done")
	ErrApplicationNotFound  = errors.New("task application not found")
	ErrOwnTaskApplication   = errors.New("creator cannot apply to own task")
	ErrLevelTooLow          = errors.New("reputation level below required minimum")
	ErrManualPickNotAllowed = errors.New("manual executor pick is only allowed for HARD tasks")

	// Permission errors
	ErrForbidden       = errors.New("permission denied")
	ErrNotTaskCreator  = errors.New("not task creator")
	ErrNotTaskExecutor = errors.New("not task executor")

	// Validation errors
	ErrInvalidAmount     = errors.New("amount must be a positive integer of cents")
	ErrZeroDelta         = errors.New("delta points cannot be zero")
	ErrEmptyReference    = errors.New("reference id is required")
	ErrInvalidDifficulty = errors.New("invalid task difficulty")
)
