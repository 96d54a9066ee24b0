package dto

import (
	"time"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/money"
	"github.com/hqhub/taskbank/internal/service"
)

// LedgerResultResponse is the outcome of a credit, debit or reversal.
type LedgerResultResponse struct {
	WalletID     string `json:"wallet_id"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	EntryID      string `json:"entry_id"`
	Idempotent   bool   `json:"idempotent"`
}

// ToLedgerResultResponse converts a service result to the response format.
func ToLedgerResultResponse(result *service.LedgerResult) LedgerResultResponse {
	return LedgerResultResponse{
		WalletID:     result.WalletID,
		BalanceCents: result.BalanceCents,
		Balance:      money.FormatCents(result.BalanceCents),
		EntryID:      result.EntryID,
		Idempotent:   result.Idempotent,
	}
}

// LedgerEntryInfo is a single ledger entry in a statement.
type LedgerEntryInfo struct {
	ID          string         `json:"id"`
	Direction   string         `json:"direction"`
	Type        string         `json:"type"`
	AmountCents int64          `json:"amount_cents"`
	Amount      string         `json:"amount"`
	ReferenceID string         `json:"reference_id"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// StatementResponse is a balance plus a page of ledger entries.
type StatementResponse struct {
	WalletID     string            `json:"wallet_id,omitempty"`
	BalanceCents int64             `json:"balance_cents"`
	Balance      string            `json:"balance"`
	Entries      []LedgerEntryInfo `json:"entries"`
	NextCursor   string            `json:"next_cursor,omitempty"`
}

// ToStatementResponse converts a service statement to the response format.
func ToStatementResponse(statement *service.Statement) StatementResponse {
	entries := make([]LedgerEntryInfo, len(statement.Entries))
	for i, entry := range statement.Entries {
		entries[i] = LedgerEntryInfo{
			ID:          entry.ID,
			Direction:   string(entry.Direction),
			Type:        string(entry.Type),
			AmountCents: entry.AmountCents,
			Amount:      money.FormatCents(entry.AmountCents),
			ReferenceID: entry.ReferenceID,
			Description: entry.Description,
			Metadata:    entry.Metadata,
			CreatedAt:   entry.CreatedAt,
		}
	}

	return StatementResponse{
		WalletID:     statement.WalletID,
		BalanceCents: statement.BalanceCents,
		Balance:      money.FormatCents(statement.BalanceCents),
		Entries:      entries,
		NextCursor:   statement.NextCursor,
	}
}

// WalletResponse is a wallet snapshot.
type WalletResponse struct {
	WalletID     string `json:"wallet_id"`
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Status       string `json:"status"`
}

// ToWalletResponse converts a wallet to the response format.
func ToWalletResponse(wallet *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:     wallet.ID,
		UserID:       wallet.UserID,
		BalanceCents: wallet.BalanceCents,
		Balance:      money.FormatCents(wallet.BalanceCents),
		Status:       string(wallet.Status),
	}
}

// ReputationProfileResponse is a reputation snapshot with derived level.
type ReputationProfileResponse struct {
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToReputationProfileResponse converts a profile to the response format.
func ToReputationProfileResponse(profile *domain.ReputationProfile) ReputationProfileResponse {
	return ReputationProfileResponse{
		UserID:    profile.UserID,
		Points:    profile.Points,
		Level:     profile.Level(),
		UpdatedAt: profile.UpdatedAt,
	}
}

// ReputationResultResponse is the outcome of a reputation adjustment.
type ReputationResultResponse struct {
	EntryID     string `json:"entry_id"`
	Points      int64  `json:"points"`
	Level       int    `json:"level"`
	DeltaPoints int64  `json:"delta_points"`
	Idempotent  bool   `json:"idempotent"`
}

// ToReputationResultResponse converts a service result to the response
// format.
func ToReputationResultResponse(result *service.ReputationResult) ReputationResultResponse {
	return ReputationResultResponse{
		EntryID:     result.EntryID,
		Points:      result.Points,
		Level:       result.Level,
		DeltaPoints: result.DeltaPoints,
		Idempotent:  result.Idempotent,
	}
}

// ReputationEntryInfo is a single reputation history entry.
type ReputationEntryInfo struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DeltaPoints int64     `json:"delta_points"`
	ReferenceID string    `json:"reference_id"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReputationEntriesResponse is a page of reputation history.
type ReputationEntriesResponse struct {
	Entries    []ReputationEntryInfo `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// ToReputationEntriesResponse converts entries to the response format.
func ToReputationEntriesResponse(entries []*domain.ReputationEntry, nextCursor string) ReputationEntriesResponse {
	infos := make([]ReputationEntryInfo, len(entries))
	for i, entry := range entries {
		infos[i] = ReputationEntryInfo{
			ID:          entry.ID,
			Type:        string(entry.Type),
			DeltaPoints: entry.DeltaPoints,
			ReferenceID: entry.ReferenceID,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		}
	}
	return ReputationEntriesResponse{Entries: infos, NextCursor: nextCursor}
}

// LeaderboardResponse is the top reputation profiles.
type LeaderboardResponse struct {
	Profiles []ReputationProfileResponse `json:"profiles"`
}

// ToLeaderboardResponse converts profiles to the response format.
func ToLeaderboardResponse(profiles []*domain.ReputationProfile) LeaderboardResponse {
	out := LeaderboardResponse{Profiles: make([]ReputationProfileResponse, len(profiles))}
	for i, profile := range profiles {
		out.Profiles[i] = ToReputationProfileResponse(profile)
	}
	return out
}

// TaskDetail is the full task representation.
type TaskDetail struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Acceptance        string     `json:"acceptance,omitempty"`
	CreatorID         string     `json:"creator_id"`
	ExecutorID        *string    `json:"executor_id,omitempty"`
	Status            string     `json:"status"`
	Difficulty        string     `json:"difficulty"`
	ValueCents        int64      `json:"value_cents"`
	Value             string     `json:"value"`
	RepRewardPoints   int64      `json:"rep_reward_points"`
	MinLevelRequired  int        `json:"min_level_required"`
	ApplyWindowEndsAt *time.Time `json:"apply_window_ends_at,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	DoneAt            *time.Time `json:"done_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToTaskDetail converts a task to the response format.
func ToTaskDetail(task *domain.Task) TaskDetail {
	return TaskDetail{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		Acceptance:        task.Acceptance,
		CreatorID:         task.CreatorID,
		ExecutorID:        task.ExecutorID,
		Status:            string(task.Status),
		Difficulty:        string(task.Difficulty),
		ValueCents:        task.ValueCents,
		Value:             money.FormatCents(task.ValueCents),
		RepRewardPoints:   task.RepRewardPoints,
		MinLevelRequired:  task.MinLevelRequired,
		ApplyWindowEndsAt: task.ApplyWindowEndsAt,
		AssignedAt:        task.AssignedAt,
		DoneAt:            task.DoneAt,
		CancelledAt:       task.CancelledAt,
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}
}

// TaskResponse is a task plus the idempotency marker.
type TaskResponse struct {
	Task       TaskDetail `json:"task"`
	Idempotent bool       `json:"idempotent,omitempty"`
}

// ToTaskResponse converts a service result to the response format.
func ToTaskResponse(result *service.TaskResult) TaskResponse {
	return TaskResponse{
		Task:       ToTaskDetail(result.Task),
		Idempotent: result.Idempotent,
	}
}

// TasksListResponse is a page of tasks.
type TasksListResponse struct {
	Tasks  []TaskDetail `json:"tasks"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ApplicationInfo is a single task application.
type ApplicationInfo struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	ApplicantID string    `json:"applicant_id"`
	AppliedAt   time.Time `json:"applied_at"`
}

// ToApplicationInfo converts an application to the response format.
func ToApplicationInfo(app *domain.TaskApplication) ApplicationInfo {
	return ApplicationInfo{
		ID:          app.ID,
		TaskID:      app.TaskID,
		ApplicantID: app.ApplicantID,
		AppliedAt:   app.AppliedAt,
	}
}

// ApplyResponse is the outcome of a task application.
type ApplyResponse struct {
	Application ApplicationInfo `json:"application"`
	AssignedNow bool            `json:"assigned_now"`
	Idempotent  bool            `json:"idempotent,omitempty"`
}

// ApplicationsResponse is the list of a task's applications.
type ApplicationsResponse struct {
	Applications []ApplicationInfo `json:"applications"`
}

// SweepResponse summarizes a sweep run.
type SweepResponse struct {
	Processed           int `json:"processed"`
	Assigned            int `json:"assigned"`
	SkippedNoApplicants int `json:"skipped_no_applicants"`
}
