package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "title", "description", "acceptance", "creator_id", "executor_id",
	"status", "difficulty", "value_cents", "rep_reward_points", "min_level_required",
	"apply_window_ends_at", "assigned_at", "done_at", "cancelled_at",
	"created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Acceptance,
		&task.CreatorID,
		&task.ExecutorID,
		&task.Status,
		&task.Difficulty,
		&task.ValueCents,
		&task.RepRewardPoints,
		&task.MinLevelRequired,
		&task.ApplyWindowEndsAt,
		&task.AssignedAt,
		&task.DoneAt,
		&task.CancelledAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, q Querier, taskID string) (*domain.Task, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(q.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Insert creates a new task row in OPEN status within a transaction.
func (r *TaskRepository) Insert(ctx context.Context, tx pgx.Tx, task *domain.Task) error {
	query, args, err := psql.
		Insert("tasks").
		Columns(
			"id", "title", "description", "acceptance", "creator_id",
			"status", "difficulty", "value_cents", "rep_reward_points",
			"min_level_required", "apply_window_ends_at",
		).
		Values(
			task.ID,
			task.Title,
			task.Description,
			task.Acceptance,
			task.CreatorID,
			task.Status,
			task.Difficulty,
			task.ValueCents,
			task.RepRewardPoints,
			task.MinLevelRequired,
			task.ApplyWindowEndsAt,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Insert query for task: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// AssignIfUnassigned performs the optimistic assign-once update. The
// predicate `status = 'OPEN' AND executor_id IS NULL` travels with the update
// so exactly one of any number of concurrent assignment attempts can succeed;
// the rest observe the already-assigned row and report assigned=false.
func (r *TaskRepository) AssignIfUnassigned(ctx context.Context, tx pgx.Tx, taskID, executorID string, at time.Time) (bool, error) {
	query, args, err := psql.
		Update("tasks").
		Set("executor_id", executorID).
		Set("status", domain.TaskStatusAssigned).
		Set("assigned_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":          taskID,
			"status":      domain.TaskStatusOpen,
			"executor_id": nil,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build AssignIfUnassigned query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("assign task %s: %w", taskID, err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkDone transitions an ASSIGNED task to DONE. The status predicate guards
// against a concurrent transition.
func (r *TaskRepository) MarkDone(ctx context.Context, tx pgx.Tx, taskID string, at time.Time) error {
	query, args, err := psql.
		Update("tasks").
		Set("status", domain.TaskStatusDone).
		Set("done_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":     taskID,
			"status": domain.TaskStatusAssigned,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkDone query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark task %s done: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotAssigned
	}

	return nil
}

// MarkCancelled transitions an OPEN or ASSIGNED task to CANCELLED, clearing
// the executor and assignment timestamp.
func (r *TaskRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, taskID string, at time.Time) error {
	query, args, err := psql.
		Update("tasks").
		Set("status", domain.TaskStatusCancelled).
		Set("cancelled_at", at).
		Set("executor_id", nil).
		Set("assigned_at", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":     taskID,
			"status": []domain.TaskStatus{domain.TaskStatusOpen, domain.TaskStatusAssigned},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkCancelled query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark task %s cancelled: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskAlreadyDone
	}

	return nil
}

// FindExpiredWindows finds a bounded page of sweep candidates: OPEN,
// unassigned, window-policy tasks whose application window has elapsed.
func (r *TaskRepository) FindExpiredWindows(ctx context.Context, now time.Time, limit int) ([]*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{
			"status":      domain.TaskStatusOpen,
			"executor_id": nil,
			"difficulty":  []domain.TaskDifficulty{domain.DifficultyMedium, domain.DifficultyElite},
		}).
		Where(sq.NotEq{"apply_window_ends_at": nil}).
		Where(sq.LtOrEq{"apply_window_ends_at": now}).
		OrderBy("apply_window_ends_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindExpiredWindows query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expired windows: %w", err)
	}

	return scanTasks(rows)
}

// TaskListFilters holds the supported filters for task listing.
type TaskListFilters struct {
	Statuses     []string
	Difficulties []string
	CreatorID    *string
	ExecutorID   *string
	Limit        int
	Offset       int
}

// List retrieves tasks with filters, newest first.
func (r *TaskRepository) List(ctx context.Context, filters TaskListFilters) ([]*domain.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks")

	if len(filters.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": filters.Statuses})
	}
	if len(filters.Difficulties) > 0 {
		qb = qb.Where(sq.Eq{"difficulty": filters.Difficulties})
	}
	if filters.CreatorID != nil {
		qb = qb.Where(sq.Eq{"creator_id": *filters.CreatorID})
	}
	if filters.ExecutorID != nil {
		qb = qb.Where(sq.Eq{"executor_id": *filters.ExecutorID})
	}

	qb = qb.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filters.Limit)).
		Offset(uint64(filters.Offset))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query for tasks: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}
