package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/repository"
)

// Sweeper closes elapsed application windows: for each OPEN window-policy
// task whose window has passed, the applicant with the highest reputation is
// assigned (earliest application breaks ties). Tasks without applicants stay
// OPEN and are picked up again on the next run, so running the sweep twice
// over the same window is harmless.
type Sweeper struct {
	pool      *pgxpool.Pool
	taskRepo  *repository.TaskRepository
	appRepo   *repository.TaskApplicationRepository
	batchSize int
}

// NewSweeper creates a new Sweeper. batchSize bounds how many expired
// windows a single run processes.
func NewSweeper(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	appRepo *repository.TaskApplicationRepository,
	batchSize int,
) *Sweeper {
	return &Sweeper{
		pool:      pool,
		taskRepo:  taskRepo,
		appRepo:   appRepo,
		batchSize: batchSize,
	}
}

// SweepReport summarizes a single sweep run.
type SweepReport struct {
	Processed           int
	Assigned            int
	SkippedNoApplicants int
}

// Sweep processes one batch of expired application windows. Each task is
// handled in its own transaction; a failure on one task is logged and does
// not stop the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	now := time.Now().UTC()

	tasks, err := s.taskRepo.FindExpiredWindows(ctx, now, s.batchSize)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	for _, task := range tasks {
		report.Processed++

		assigned, err := s.sweepTask(ctx, task.ID, now)
		if err != nil {
			slog.Error("failed to sweep task", "task_id", task.ID, "error", err)
			continue
		}
		if assigned {
			report.Assigned++
		} else {
			report.SkippedNoApplicants++
		}
	}

	if report.Processed > 0 {
		slog.Info("sweep completed",
			"processed", report.Processed,
			"assigned", report.Assigned,
			"skipped_no_applicants", report.SkippedNoApplicants,
		)
	}

	return report, nil
}

// sweepTask assigns the winner of a single expired window, re-checking the
// task state under a row lock so a concurrent assignment or cancellation
// between the candidate scan and the update is respected.
func (s *Sweeper) sweepTask(ctx context.Context, taskID string, now time.Time) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return false, err
	}
	if task.Status != domain.TaskStatusOpen || task.ExecutorID != nil || !task.WindowElapsed(now) {
		return false, nil
	}

	winner, err := s.appRepo.FindWinner(ctx, tx, task.ID)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			return false, nil
		}
		return false, err
	}

	assigned, err := s.taskRepo.AssignIfUnassigned(ctx, tx, task.ID, winner.ApplicantID, now)
	if err != nil {
		return false, err
	}
	if !assigned {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("expired window assigned",
		"task_id", task.ID,
		"executor_id", winner.ApplicantID,
		"window_ended_at", task.ApplyWindowEndsAt,
	)

	return true, nil
}
