package dto

// CreditRequest is the request body for crediting a wallet. Amount is a
// formatted HQ$ string accepted as an alternative to amount_cents.
type CreditRequest struct {
	AmountCents int64          `json:"amount_cents"`
	Amount      string         `json:"amount,omitempty"`
	ReferenceID string         `json:"reference_id"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DebitRequest is the request body for debiting a wallet.
type DebitRequest struct {
	AmountCents int64          `json:"amount_cents"`
	Amount      string         `json:"amount,omitempty"`
	ReferenceID string         `json:"reference_id"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ReverseRequest is the request body for reversing a ledger entry.
type ReverseRequest struct {
	OriginalEntryID string  `json:"original_entry_id"`
	ReferenceID     string  `json:"reference_id"`
	Reason          *string `json:"reason,omitempty"`
}

// ReputationAddRequest is the request body for a reputation adjustment.
type ReputationAddRequest struct {
	Type        string  `json:"type"`
	DeltaPoints int64   `json:"delta_points"`
	ReferenceID string  `json:"reference_id"`
	Description *string `json:"description,omitempty"`
}

// ReputationReverseRequest is the request body for reversing a reputation
// entry.
type ReputationReverseRequest struct {
	OriginalReferenceID string  `json:"original_reference_id"`
	ReferenceID         string  `json:"reference_id"`
	Description         *string `json:"description,omitempty"`
}

// CreateTaskRequest is the request body for task creation. TaskID is
// optional; supplying one makes the request replay-safe.
type CreateTaskRequest struct {
	TaskID      string `json:"task_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Acceptance  string `json:"acceptance,omitempty"`
	Difficulty  string `json:"difficulty"`
	ValueCents  int64  `json:"value_cents"`
	Value       string `json:"value,omitempty"`
}

// PickExecutorRequest is the request body for the manual executor pick.
type PickExecutorRequest struct {
	ExecutorID string `json:"executor_id"`
}
