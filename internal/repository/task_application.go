package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
)

// applicationColumns is the shared list of columns for application queries.
var applicationColumns = []string{"id", "task_id", "applicant_id", "applied_at"}

// TaskApplicationRepository handles database operations for task
// applications. Applications are append-only facts: never mutated or deleted.
type TaskApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewTaskApplicationRepository creates a new TaskApplicationRepository.
func NewTaskApplicationRepository(pool *pgxpool.Pool) *TaskApplicationRepository {
	return &TaskApplicationRepository{pool: pool}
}

// scanApplication scans a single row into a TaskApplication struct.
func scanApplication(row pgx.Row) (*domain.TaskApplication, error) {
	var a domain.TaskApplication
	err := row.Scan(&a.ID, &a.TaskID, &a.ApplicantID, &a.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("scan task application: %w", err)
	}
	return &a, nil
}

// Insert records an application. The unique (task_id, applicant_id)
// constraint makes a retried application surface as created=false; the
// caller re-reads the original.
func (r *TaskApplicationRepository) Insert(ctx context.Context, tx pgx.Tx, app *domain.TaskApplication) (bool, error) {
	query, args, err := psql.
		Insert("task_applications").
		Columns("id", "task_id", "applicant_id").
		Values(app.ID, app.TaskID, app.ApplicantID).
		Suffix("ON CONFLICT (task_id, applicant_id) DO NOTHING RETURNING applied_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Insert query for task application: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&app.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert task application: %w", err)
	}

	return true, nil
}

// GetByTaskAndApplicant retrieves the application of one user to one task.
func (r *TaskApplicationRepository) GetByTaskAndApplicant(ctx context.Context, q Querier, taskID, applicantID string) (*domain.TaskApplication, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(applicationColumns...).
		From("task_applications").
		Where(sq.Eq{"task_id": taskID, "applicant_id": applicantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByTaskAndApplicant query: %w", err)
	}

	return scanApplication(q.QueryRow(ctx, query, args...))
}

// ListByTask retrieves all applications for a task, earliest first.
func (r *TaskApplicationRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.TaskApplication, error) {
	query, args, err := psql.
		Select(applicationColumns...).
		From("task_applications").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("applied_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByTask query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task applications: %w", err)
	}
	defer rows.Close()

	var apps []*domain.TaskApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return apps, nil
}

// FindWinner selects the window-close winner for a task: the applicant with
// the highest reputation at sweep time, ties resolved to the earliest
// application. Applicants without a stored profile count as zero points.
func (r *TaskApplicationRepository) FindWinner(ctx context.Context, tx pgx.Tx, taskID string) (*domain.TaskApplication, error) {
	query, args, err := psql.
		Select("ta.id", "ta.task_id", "ta.applicant_id", "ta.applied_at").
		From("task_applications ta").
		LeftJoin("reputation_profiles rp ON rp.user_id = ta.applicant_id").
		Where(sq.Eq{"ta.task_id": taskID}).
		OrderBy("COALESCE(rp.points, 0) DESC", "ta.applied_at ASC", "ta.id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindWinner query: %w", err)
	}

	return scanApplication(tx.QueryRow(ctx, query, args...))
}
