package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/repository"
)

// ReputationService keeps per-user reputation scores and their append-only
// change history. Points never drop below zero; the level is derived from
// points and never stored.
type ReputationService struct {
	pool *pgxpool.Pool
	repo *repository.ReputationRepository
}

// NewReputationService creates a new ReputationService.
func NewReputationService(pool *pgxpool.Pool, repo *repository.ReputationRepository) *ReputationService {
	return &ReputationService{pool: pool, repo: repo}
}

// ReputationParams are the inputs of a reputation adjustment.
type ReputationParams struct {
	UserID      string
	Type        domain.ReputationEntryType
	DeltaPoints int64
	ReferenceID string
	Description *string
}

func (p ReputationParams) validate() error {
	if !p.Type.IsValid() {
		return fmt.Errorf("invalid reputation entry type %q", p.Type)
	}
	if p.DeltaPoints == 0 {
		return domain.ErrZeroDelta
	}
	if strings.TrimSpace(p.ReferenceID) == "" {
		return domain.ErrEmptyReference
	}
	return nil
}

// ReputationResult is the outcome of a reputation adjustment.
type ReputationResult struct {
	EntryID     string
	Points      int64
	Level       int
	DeltaPoints int64
	Idempotent  bool
}

// Add applies a signed points delta to the user's reputation, recording an
// entry. The stored total is clamped at zero even when the raw delta would
// take it negative; the entry keeps the full requested delta.
func (s *ReputationService) Add(ctx context.Context, params ReputationParams) (*ReputationResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := s.AddInTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("reputation adjusted",
		"user_id", params.UserID,
		"type", params.Type,
		"delta_points", params.DeltaPoints,
		"reference_id", params.ReferenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// AddInTx is Add composed into a caller-owned transaction. Task completion
// uses it so the reputation award commits together with the payout and the
// task transition.
func (s *ReputationService) AddInTx(ctx context.Context, tx pgx.Tx, params ReputationParams) (*ReputationResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.EnsureProfile(ctx, tx, params.UserID); err != nil {
		return nil, err
	}

	if result, ok, err := s.replay(ctx, tx, params.UserID, params.ReferenceID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	entry := &domain.ReputationEntry{
		ID:          uuid.NewString(),
		UserID:      params.UserID,
		Type:        params.Type,
		DeltaPoints: params.DeltaPoints,
		ReferenceID: params.ReferenceID,
		Description: params.Description,
	}

	created, err := s.repo.InsertEntry(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		result, ok, err := s.replay(ctx, tx, params.UserID, params.ReferenceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("reference %s conflicted but entry not found", params.ReferenceID)
		}
		return result, nil
	}

	points, err := s.repo.AddPoints(ctx, tx, params.UserID, params.DeltaPoints)
	if err != nil {
		return nil, err
	}

	return &ReputationResult{
		EntryID:     entry.ID,
		Points:      points,
		Level:       domain.LevelForPoints(points),
		DeltaPoints: params.DeltaPoints,
	}, nil
}

// Reverse compensates a previous reputation entry by recording its exact
// negation as a REVERSAL entry. The original is looked up by the reference
// id it was recorded under, scoped to the same user.
func (s *ReputationService) Reverse(ctx context.Context, userID, originalReferenceID, referenceID string, description *string) (*ReputationResult, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, domain.ErrEmptyReference
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := s.ReverseInTx(ctx, tx, userID, originalReferenceID, referenceID, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("reputation entry reversed",
		"user_id", userID,
		"original_reference_id", originalReferenceID,
		"reference_id", referenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// ReverseInTx is Reverse composed into a caller-owned transaction.
func (s *ReputationService) ReverseInTx(ctx context.Context, tx pgx.Tx, userID, originalReferenceID, referenceID string, description *string) (*ReputationResult, error) {
	original, err := s.repo.GetEntryByUserAndReference(ctx, tx, userID, originalReferenceID)
	if err != nil {
		return nil, err
	}
	if original.Type == domain.ReputationReversal {
		return nil, domain.ErrCannotReverseReversal
	}

	return s.AddInTx(ctx, tx, ReputationParams{
		UserID:      userID,
		Type:        domain.ReputationReversal,
		DeltaPoints: -original.DeltaPoints,
		ReferenceID: referenceID,
		Description: description,
	})
}

func (s *ReputationService) replay(ctx context.Context, tx pgx.Tx, userID, referenceID string) (*ReputationResult, bool, error) {
	existing, err := s.repo.GetEntryByUserAndReference(ctx, tx, userID, referenceID)
	if err != nil {
		if errors.Is(err, domain.ErrReputationEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	profile, err := s.repo.GetProfile(ctx, tx, userID)
	if err != nil {
		return nil, false, err
	}

	return &ReputationResult{
		EntryID:     existing.ID,
		Points:      profile.Points,
		Level:       profile.Level(),
		DeltaPoints: existing.DeltaPoints,
		Idempotent:  true,
	}, true, nil
}

// Profile returns the user's reputation snapshot. Users with no recorded
// activity have zero points at level zero.
func (s *ReputationService) Profile(ctx context.Context, userID string) (*domain.ReputationProfile, error) {
	return s.repo.GetProfile(ctx, s.pool, userID)
}

// Entries lists a page of the user's reputation history, newest first.
func (s *ReputationService) Entries(ctx context.Context, userID string, pageSize int, cursor string) ([]*domain.ReputationEntry, string, error) {
	if pageSize <= 0 {
		return nil, "", fmt.Errorf("%w: page size must be positive", domain.ErrInvalidAmount)
	}

	entries, err := s.repo.ListEntriesByUser(ctx, userID, pageSize, cursor)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) == pageSize {
		nextCursor = entries[len(entries)-1].ID
	}

	return entries, nextCursor, nil
}

// Leaderboard returns the top profiles by points.
func (s *ReputationService) Leaderboard(ctx context.Context, limit int) ([]*domain.ReputationProfile, error) {
	return s.repo.Leaderboard(ctx, limit)
}
