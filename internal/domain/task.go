package domain

import "time"

// TaskStatus represents the status of a task in the state machine.
// OPEN -> ASSIGNED -> DONE; OPEN|ASSIGNED -> CANCELLED. DONE and CANCELLED
// are terminal.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "OPEN"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusDone      TaskStatus = "DONE"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// IsTerminal returns true if the status is terminal (no transitions allowed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusAssigned, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskDifficulty fixes the assignment policy at creation time; it never
// changes afterwards.
type TaskDifficulty string

const (
	DifficultyEasy   TaskDifficulty = "EASY"
	DifficultyMedium TaskDifficulty = "MEDIUM"
	DifficultyHard   TaskDifficulty = "HARD"
	DifficultyElite  TaskDifficulty = "ELITE"
)

// IsValid checks if the difficulty is one of the allowed values.
func (d TaskDifficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyElite:
		return true
	default:
		return false
	}
}

// DifficultyConfig describes the policy bound to a difficulty tier.
type DifficultyConfig struct {
	Difficulty       TaskDifficulty
	RepRewardPoints  int64
	MinLevelRequired int
	// ApplyWindow is the span during which applications are accepted before
	// automatic assignment. Zero means the policy has no window.
	ApplyWindow time.Duration

	AutoAssignFirstCome           bool
	AutoPickHighestRepAfterWindow bool
	ManualPickByCreator           bool
}

var difficultyConfigs = map[TaskDifficulty]DifficultyConfig{
	DifficultyEasy: {
		Difficulty:          DifficultyEasy,
		RepRewardPoints:     100,
		MinLevelRequired:    0,
		AutoAssignFirstCome: true,
	},
	DifficultyMedium: {
		Difficulty:                    DifficultyMedium,
		RepRewardPoints:               250,
		MinLevelRequired:              1,
		ApplyWindow:                   2 * time.Hour,
		AutoPickHighestRepAfterWindow: true,
	},
	DifficultyHard: {
		Difficulty:          DifficultyHard,
		RepRewardPoints:     500,
		MinLevelRequired:    3,
		ManualPickByCreator: true,
	},
	DifficultyElite: {
		Difficulty:                    DifficultyElite,
		RepRewardPoints:               1000,
		MinLevelRequired:              8,
		ApplyWindow:                   30 * time.Minute,
		AutoPickHighestRepAfterWindow: true,
	},
}

// ConfigForDifficulty returns the policy configuration for a difficulty tier.
func ConfigForDifficulty(d TaskDifficulty) (DifficultyConfig, error) {
	cfg, ok := difficultyConfigs[d]
	if !ok {
		return DifficultyConfig{}, ErrInvalidDifficulty
	}
	return cfg, nil
}

// WindowEndsAt computes the application-window deadline for a difficulty,
// or nil if the policy has no window.
func WindowEndsAt(d TaskDifficulty, now time.Time) *time.Time {
	cfg, err := ConfigForDifficulty(d)
	if err != nil || cfg.ApplyWindow <= 0 {
		return nil
	}
	ends := now.Add(cfg.ApplyWindow)
	return &ends
}

// Task is the mutable aggregate orchestrating money and reputation movement.
// Funds equal to ValueCents are debited from the creator at creation (escrow)
// and credited to the executor on completion or reversed to the creator on
// cancellation.
type Task struct {
	ID                string
	Title             string
	Description       string
	Acceptance        string
	CreatorID         string
	ExecutorID        *string
	Status            TaskStatus
	Difficulty        TaskDifficulty
	ValueCents        int64
	RepRewardPoints   int64
	MinLevelRequired  int
	ApplyWindowEndsAt *time.Time
	AssignedAt        *time.Time
	DoneAt            *time.Time
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCreatedBy checks if the task was created by the given user.
func (t *Task) IsCreatedBy(userID string) bool {
	return t.CreatorID == userID
}

// IsExecutedBy checks if the task is assigned to the given user.
func (t *Task) IsExecutedBy(userID string) bool {
	return t.ExecutorID != nil && *t.ExecutorID == userID
}

// WindowElapsed reports whether the application window has closed.
func (t *Task) WindowElapsed(now time.Time) bool {
	return t.ApplyWindowEndsAt != nil && !t.ApplyWindowEndsAt.After(now)
}

// TaskApplication records that a user applied to a task. One per
// (task, applicant) pair, never mutated or deleted; its existence is the only
// signal used by assignment policies.
type TaskApplication struct {
	ID          string
	TaskID      string
	ApplicantID string
	AppliedAt   time.Time
}
