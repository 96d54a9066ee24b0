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

// ledgerEntryColumns is the shared list of columns for ledger entry queries.
var ledgerEntryColumns = []string{
	"id", "wallet_id", "direction", "type", "amount_cents",
	"reference_id", "description", "metadata", "created_at",
}

// LedgerEntryRepository handles database operations for the append-only
// monetary ledger. Entries are never updated or deleted.
type LedgerEntryRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(pool *pgxpool.Pool) *LedgerEntryRepository {
	return &LedgerEntryRepository{pool: pool}
}

// scanLedgerEntry scans a single row into a LedgerEntry struct.
func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.WalletID,
		&e.Direction,
		&e.Type,
		&e.AmountCents,
		&e.ReferenceID,
		&e.Description,
		&e.Metadata,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return &e, nil
}

// GetByID retrieves a ledger entry by id.
func (r *LedgerEntryRepository) GetByID(ctx context.Context, q Querier, entryID string) (*domain.LedgerEntry, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(ledgerEntryColumns...).
		From("ledger_entries").
		Where(sq.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for ledger entry: %w", err)
	}

	return scanLedgerEntry(q.QueryRow(ctx, query, args...))
}

// GetByReferenceID retrieves a ledger entry by its idempotency key.
func (r *LedgerEntryRepository) GetByReferenceID(ctx context.Context, q Querier, referenceID string) (*domain.LedgerEntry, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(ledgerEntryColumns...).
		From("ledger_entries").
		Where(sq.Eq{"reference_id": referenceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByReferenceID query for ledger entry: %w", err)
	}

	return scanLedgerEntry(q.QueryRow(ctx, query, args...))
}

// Insert appends a ledger entry. The unique constraint on reference_id is the
// idempotency source of truth: the insert uses ON CONFLICT DO NOTHING so a
// duplicate submission surfaces as created=false without aborting the
// surrounding transaction, and the caller re-reads the winning entry.
func (r *LedgerEntryRepository) Insert(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) (bool, error) {
	query, args, err := psql.
		Insert("ledger_entries").
		Columns("id", "wallet_id", "direction", "type", "amount_cents",
			"reference_id", "description", "metadata").
		Values(entry.ID, entry.WalletID, entry.Direction, entry.Type, entry.AmountCents,
			entry.ReferenceID, entry.Description, entry.Metadata).
		Suffix("ON CONFLICT (reference_id) DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Insert query for ledger entry: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race or replayed reference id: the original entry wins.
			return false, nil
		}
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}

	return true, nil
}

// ListByWallet returns a page of entries ordered by (created_at desc, id desc)
// for deterministic pagination. The cursor is the id of the last entry of the
// previous page; entries strictly older than the cursor row are returned.
func (r *LedgerEntryRepository) ListByWallet(ctx context.Context, walletID string, limit int, cursorID string) ([]*domain.LedgerEntry, error) {
	qb := psql.
		Select(ledgerEntryColumns...).
		From("ledger_entries").
		Where(sq.Eq{"wallet_id": walletID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	if cursorID != "" {
		qb = qb.Where(
			"(created_at, id) < (SELECT created_at, id FROM ledger_entries WHERE id = ?)",
			cursorID,
		)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByWallet query for ledger entries: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
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
