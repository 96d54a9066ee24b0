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

// reputationEntryColumns is the shared list of columns for reputation entry queries.
var reputationEntryColumns = []string{
	"id", "user_id", "delta_points", "type",
	"reference_id", "description", "metadata", "created_at",
}

// ReputationRepository handles database operations for reputation profiles
// and the append-only reputation ledger.
type ReputationRepository struct {
	pool *pgxpool.Pool
}

// NewReputationRepository creates a new ReputationRepository.
func NewReputationRepository(pool *pgxpool.Pool) *ReputationRepository {
	return &ReputationRepository{pool: pool}
}

// EnsureProfile creates the profile for a user if it does not exist yet and
// returns it. Profiles are created lazily, like wallets.
func (r *ReputationRepository) EnsureProfile(ctx context.Context, tx pgx.Tx, userID string) (*domain.ReputationProfile, error) {
	query, args, err := psql.
		Insert("reputation_profiles").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build EnsureProfile query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("ensure reputation profile: %w", err)
	}

	return r.GetProfile(ctx, tx, userID)
}

// GetProfile retrieves a reputation profile. A user without stored state has
// the zero snapshot (0 points, level 0); absence is not an error.
func (r *ReputationRepository) GetProfile(ctx context.Context, q Querier, userID string) (*domain.ReputationProfile, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select("user_id", "points", "updated_at").
		From("reputation_profiles").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetProfile query: %w", err)
	}

	var p domain.ReputationProfile
	err = q.QueryRow(ctx, query, args...).Scan(&p.UserID, &p.Points, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ReputationProfile{UserID: userID, UpdatedAt: time.Now()}, nil
		}
		return nil, fmt.Errorf("get reputation profile: %w", err)
	}
	return &p, nil
}

// AddPoints applies a signed delta to the stored snapshot in one atomic
// update, clamping at zero, and returns the new total. Concurrent deltas for
// the same user serialize on the row instead of overwriting each other.
func (r *ReputationRepository) AddPoints(ctx context.Context, tx pgx.Tx, userID string, delta int64) (int64, error) {
	query, args, err := psql.
		Update("reputation_profiles").
		Set("points", sq.Expr("GREATEST(0, points + ?)", delta)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING points").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build AddPoints query: %w", err)
	}

	var points int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&points); err != nil {
		return 0, fmt.Errorf("add reputation points for %s: %w", userID, err)
	}
	return points, nil
}

// scanReputationEntry scans a single row into a ReputationEntry struct.
func scanReputationEntry(row pgx.Row) (*domain.ReputationEntry, error) {
	var e domain.ReputationEntry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.DeltaPoints,
		&e.Type,
		&e.ReferenceID,
		&e.Description,
		&e.Metadata,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReputationEntryNotFound
		}
		return nil, fmt.Errorf("scan reputation entry: %w", err)
	}
	return &e, nil
}

// GetEntryByReferenceID retrieves a reputation entry by its idempotency key.
func (r *ReputationRepository) GetEntryByReferenceID(ctx context.Context, q Querier, referenceID string) (*domain.ReputationEntry, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(reputationEntryColumns...).
		From("reputation_entries").
		Where(sq.Eq{"reference_id": referenceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetEntryByReferenceID query: %w", err)
	}

	return scanReputationEntry(q.QueryRow(ctx, query, args...))
}

// GetEntryByUserAndReference retrieves a user's reputation entry by reference
// id. Reversal looks the original up this way so one user cannot reverse
// another's entry.
func (r *ReputationRepository) GetEntryByUserAndReference(ctx context.Context, q Querier, userID, referenceID string) (*domain.ReputationEntry, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(reputationEntryColumns...).
		From("reputation_entries").
		Where(sq.Eq{"user_id": userID, "reference_id": referenceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetEntryByUserAndReference query: %w", err)
	}

	return scanReputationEntry(q.QueryRow(ctx, query, args...))
}

// InsertEntry appends a reputation entry with the same tagged idempotency
// contract as the monetary ledger: created=false means the reference id
// already exists and the original entry wins.
func (r *ReputationRepository) InsertEntry(ctx context.Context, tx pgx.Tx, entry *domain.ReputationEntry) (bool, error) {
	query, args, err := psql.
		Insert("reputation_entries").
		Columns("id", "user_id", "delta_points", "type",
			"reference_id", "description", "metadata").
		Values(entry.ID, entry.UserID, entry.DeltaPoints, entry.Type,
			entry.ReferenceID, entry.Description, entry.Metadata).
		Suffix("ON CONFLICT (reference_id) DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build InsertEntry query: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert reputation entry: %w", err)
	}

	return true, nil
}

// ListEntriesByUser returns a page of entries ordered by (created_at desc,
// id desc) with the same opaque entry-id cursor as the monetary statement.
func (r *ReputationRepository) ListEntriesByUser(ctx context.Context, userID string, limit int, cursorID string) ([]*domain.ReputationEntry, error) {
	qb := psql.
		Select(reputationEntryColumns...).
		From("reputation_entries").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	if cursorID != "" {
		qb = qb.Where(
			"(created_at, id) < (SELECT created_at, id FROM reputation_entries WHERE id = ?)",
			cursorID,
		)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListEntriesByUser query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reputation entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReputationEntry
	for rows.Next() {
		entry, err := scanReputationEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Leaderboard returns the top profiles ordered by points.
func (r *ReputationRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.ReputationProfile, error) {
	query, args, err := psql.
		Select("user_id", "points", "updated_at").
		From("reputation_profiles").
		OrderBy("points DESC", "user_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Leaderboard query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.ReputationProfile
	for rows.Next() {
		var p domain.ReputationProfile
		if err := rows.Scan(&p.UserID, &p.Points, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reputation profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return profiles, nil
}
