package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/repository"
)

// TaskService drives the task lifecycle state machine and composes the
// ledger and reputation services so money, points and task transitions
// commit atomically. Assignment policy is fixed by the task's difficulty at
// creation time.
type TaskService struct {
	pool       *pgxpool.Pool
	ledger     *LedgerService
	reputation *ReputationService
	taskRepo   *repository.TaskRepository
	appRepo    *repository.TaskApplicationRepository
	repRepo    *repository.ReputationRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	ledger *LedgerService,
	reputation *ReputationService,
	taskRepo *repository.TaskRepository,
	appRepo *repository.TaskApplicationRepository,
	repRepo *repository.ReputationRepository,
) *TaskService {
	return &TaskService{
		pool:       pool,
		ledger:     ledger,
		reputation: reputation,
		taskRepo:   taskRepo,
		appRepo:    appRepo,
		repRepo:    repRepo,
	}
}

// CreateTaskParams are the inputs of task creation. TaskID is optional; a
// client-supplied id makes the whole creation, escrow debit included,
// replay-safe.
type CreateTaskParams struct {
	TaskID      string
	CreatorID   string
	Title       string
	Description string
	Acceptance  string
	Difficulty  domain.TaskDifficulty
	ValueCents  int64
}

func (p CreateTaskParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidAmount)
	}
	if p.ValueCents <= 0 {
		return domain.ErrInvalidAmount
	}
	if !p.Difficulty.IsValid() {
		return domain.ErrInvalidDifficulty
	}
	if p.TaskID != "" {
		if _, err := uuid.Parse(p.TaskID); err != nil {
			return fmt.Errorf("invalid task id %q: %w", p.TaskID, err)
		}
	}
	return nil
}

// TaskResult pairs a task with whether the operation was an idempotent
// replay.
type TaskResult struct {
	Task       *domain.Task
	Idempotent bool
}

// CreateTask opens a task and escrows its value from the creator's wallet in
// one transaction. Insufficient creator funds fail the whole creation.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (*TaskResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	cfg, err := domain.ConfigForDifficulty(params.Difficulty)
	if err != nil {
		return nil, err
	}

	taskID := params.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	existing, err := s.taskRepo.GetByID(ctx, tx, taskID)
	if err == nil {
		if !existing.IsCreatedBy(params.CreatorID) {
			return nil, domain.ErrForbidden
		}
		return &TaskResult{Task: existing, Idempotent: true}, nil
	}
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	description := "Task escrow: " + params.Title
	if _, err := s.ledger.DebitInTx(ctx, tx, EntryParams{
		UserID:      params.CreatorID,
		AmountCents: params.ValueCents,
		ReferenceID: domain.TaskCreateRef(taskID),
		Description: &description,
		Metadata:    map[string]any{"task_id": taskID},
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:                taskID,
		Title:             params.Title,
		Description:       params.Description,
		Acceptance:        params.Acceptance,
		CreatorID:         params.CreatorID,
		Status:            domain.TaskStatusOpen,
		Difficulty:        params.Difficulty,
		ValueCents:        params.ValueCents,
		RepRewardPoints:   cfg.RepRewardPoints,
		MinLevelRequired:  cfg.MinLevelRequired,
		ApplyWindowEndsAt: domain.WindowEndsAt(params.Difficulty, now),
	}

	if err := s.taskRepo.Insert(ctx, tx, task); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task created",
		"task_id", task.ID,
		"creator_id", task.CreatorID,
		"difficulty", task.Difficulty,
		"value_cents", task.ValueCents,
	)

	return &TaskResult{Task: task}, nil
}

// ApplyResult is the outcome of a task application.
type ApplyResult struct {
	Application *domain.TaskApplication
	// AssignedNow is set when a first-come policy assigned the task to this
	// applicant within the same transaction.
	AssignedNow bool
	Idempotent  bool
}

// ApplyToTask records the user's application. On first-come tasks the first
// eligible applicant is assigned immediately; exactly one of N concurrent
// applicants wins, decided by the conditional assignment update.
func (s *TaskService) ApplyToTask(ctx context.Context, taskID, applicantID string) (*ApplyResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByID(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if task.Status != domain.TaskStatusOpen {
		return nil, domain.ErrTaskNotOpen
	}
	if task.IsCreatedBy(applicantID) {
		return nil, domain.ErrOwnTaskApplication
	}

	cfg, err := domain.ConfigForDifficulty(task.Difficulty)
	if err != nil {
		return nil, err
	}

	profile, err := s.repRepo.GetProfile(ctx, tx, applicantID)
	if err != nil {
		return nil, err
	}
	// Gate on the requirement stored at creation and on the current policy
	// for the difficulty, whichever is stricter.
	if profile.Level() < task.MinLevelRequired || profile.Level() < cfg.MinLevelRequired {
		return nil, domain.ErrLevelTooLow
	}

	app := &domain.TaskApplication{
		ID:          uuid.NewString(),
		TaskID:      task.ID,
		ApplicantID: applicantID,
	}

	created, err := s.appRepo.Insert(ctx, tx, app)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Application: app, Idempotent: !created}
	if !created {
		existing, err := s.appRepo.GetByTaskAndApplicant(ctx, tx, task.ID, applicantID)
		if err != nil {
			return nil, err
		}
		result.Application = existing
	}

	if cfg.AutoAssignFirstCome && !result.Idempotent {
		assigned, err := s.taskRepo.AssignIfUnassigned(ctx, tx, task.ID, applicantID, now)
		if err != nil {
			return nil, err
		}
		result.AssignedNow = assigned
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task application recorded",
		"task_id", task.ID,
		"applicant_id", applicantID,
		"assigned_now", result.AssignedNow,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// PickExecutor hand-assigns an applicant on a manual-pick task. Only the
// creator may pick, only from recorded applicants, and only while the task
// is still open and unassigned.
func (s *TaskService) PickExecutor(ctx context.Context, taskID, creatorID, executorID string) (*TaskResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsCreatedBy(creatorID) {
		return nil, domain.ErrNotTaskCreator
	}

	cfg, err := domain.ConfigForDifficulty(task.Difficulty)
	if err != nil {
		return nil, err
	}
	if !cfg.ManualPickByCreator {
		return nil, domain.ErrManualPickNotAllowed
	}

	switch task.Status {
	case domain.TaskStatusOpen:
	case domain.TaskStatusAssigned:
		if task.IsExecutedBy(executorID) {
			return &TaskResult{Task: task, Idempotent: true}, nil
		}
		return nil, domain.ErrTaskAlreadyAssigned
	default:
		return nil, domain.ErrTaskNotOpen
	}

	if _, err := s.appRepo.GetByTaskAndApplicant(ctx, tx, task.ID, executorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	assigned, err := s.taskRepo.AssignIfUnassigned(ctx, tx, task.ID, executorID, now)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, domain.ErrTaskAlreadyAssigned
	}

	task.Status = domain.TaskStatusAssigned
	task.ExecutorID = &executorID
	task.AssignedAt = &now

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task executor picked",
		"task_id", task.ID,
		"creator_id", creatorID,
		"executor_id", executorID,
	)

	return &TaskResult{Task: task}, nil
}

// CompleteTask settles the task: the escrowed value is credited to the
// executor, reputation points are earned, and the task moves to DONE, all in
// one transaction. Only the assigned executor may complete. Replaying a
// completed task is a no-op.
func (s *TaskService) CompleteTask(ctx context.Context, taskID, executorID string) (*TaskResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	switch task.Status {
	case domain.TaskStatusDone:
		return &TaskResult{Task: task, Idempotent: true}, nil
	case domain.TaskStatusAssigned:
	default:
		return nil, domain.ErrTaskNotAssigned
	}
	if task.ExecutorID == nil {
		return nil, domain.ErrTaskNotAssigned
	}
	if !task.IsExecutedBy(executorID) {
		return nil, domain.ErrNotTaskExecutor
	}

	payoutDesc := "Task payout: " + task.Title
	if _, err := s.ledger.CreditInTx(ctx, tx, EntryParams{
		UserID:      executorID,
		AmountCents: task.ValueCents,
		ReferenceID: domain.TaskCompleteRef(task.ID),
		Description: &payoutDesc,
		Metadata:    map[string]any{"task_id": task.ID},
	}); err != nil {
		return nil, err
	}

	repDesc := "Task completed: " + task.Title
	if _, err := s.reputation.AddInTx(ctx, tx, ReputationParams{
		UserID:      executorID,
		Type:        domain.ReputationEarn,
		DeltaPoints: task.RepRewardPoints,
		ReferenceID: domain.RepTaskCompleteRef(task.ID),
		Description: &repDesc,
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.taskRepo.MarkDone(ctx, tx, task.ID, now); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatusDone
	task.DoneAt = &now

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task completed",
		"task_id", task.ID,
		"executor_id", executorID,
		"value_cents", task.ValueCents,
		"rep_reward_points", task.RepRewardPoints,
	)

	return &TaskResult{Task: task}, nil
}

// CancelTask aborts an OPEN or ASSIGNED task and refunds the escrow to the
// creator by reversing the creation debit, in one transaction. Only the
// creator may cancel; a DONE task cannot be cancelled and replaying a
// cancellation is a no-op.
func (s *TaskService) CancelTask(ctx context.Context, taskID, creatorID string) (*TaskResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsCreatedBy(creatorID) {
		return nil, domain.ErrNotTaskCreator
	}

	switch task.Status {
	case domain.TaskStatusCancelled:
		return &TaskResult{Task: task, Idempotent: true}, nil
	case domain.TaskStatusDone:
		return nil, domain.ErrTaskAlreadyDone
	}

	reason := "Task cancelled: " + task.Title
	if _, err := s.ledger.ReverseByReferenceInTx(ctx, tx,
		creatorID,
		domain.TaskCreateRef(task.ID),
		domain.TaskCancelRef(task.ID),
		&reason,
	); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.taskRepo.MarkCancelled(ctx, tx, task.ID, now); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatusCancelled
	task.CancelledAt = &now
	task.ExecutorID = nil
	task.AssignedAt = nil

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task cancelled",
		"task_id", task.ID,
		"creator_id", creatorID,
		"refund_cents", task.ValueCents,
	)

	return &TaskResult{Task: task}, nil
}

// GetTask retrieves a task by id.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, nil, taskID)
}

// ListTasks retrieves tasks with filters, newest first.
func (s *TaskService) ListTasks(ctx context.Context, filters repository.TaskListFilters) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx, filters)
}

// ListApplications lists a task's applications in application order.
func (s *TaskService) ListApplications(ctx context.Context, taskID string) ([]*domain.TaskApplication, error) {
	if _, err := s.taskRepo.GetByID(ctx, nil, taskID); err != nil {
		return nil, err
	}
	return s.appRepo.ListByTask(ctx, taskID)
}
