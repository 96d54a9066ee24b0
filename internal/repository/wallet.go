package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/domain"
)

// walletColumns is the shared list of columns for wallet queries.
var walletColumns = []string{
	"id", "user_id", "balance_cents", "status", "created_at", "updated_at",
}

// WalletRepository handles database operations for wallets.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// scanWallet scans a single row into a Wallet struct.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.BalanceCents,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return &w, nil
}

// Ensure creates the wallet for a user if it does not exist yet and returns
// it. Wallets are created lazily on first access and never deleted.
func (r *WalletRepository) Ensure(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	query, args, err := psql.
		Insert("wallets").
		Columns("id", "user_id").
		Values(uuid.NewString(), userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Ensure query for wallet: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	return r.GetByUserID(ctx, tx, userID)
}

// GetByUserID retrieves a wallet by its owning user id.
func (r *WalletRepository) GetByUserID(ctx context.Context, q Querier, userID string) (*domain.Wallet, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByUserID query for wallet: %w", err)
	}

	return scanWallet(q.QueryRow(ctx, query, args...))
}

// GetByID retrieves a wallet by id.
func (r *WalletRepository) GetByID(ctx context.Context, q Querier, walletID string) (*domain.Wallet, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"id": walletID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for wallet: %w", err)
	}

	return scanWallet(q.QueryRow(ctx, query, args...))
}

// Credit unconditionally increments the wallet balance and returns the new
// balance. Crediting is always safe; the DB-level non-negative check cannot
// fire on an increment.
func (r *WalletRepository) Credit(ctx context.Context, tx pgx.Tx, walletID string, amountCents int64) (int64, error) {
	query, args, err := psql.
		Update("wallets").
		Set("balance_cents", sq.Expr("balance_cents + ?", amountCents)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": walletID}).
		Suffix("RETURNING balance_cents").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build Credit query for wallet %s: %w", walletID, err)
	}

	var balance int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrWalletNotFound
		}
		return 0, fmt.Errorf("credit wallet %s: %w", walletID, err)
	}
	return balance, nil
}

// DebitIfSufficient performs the conditional balance decrement. The guard
// `balance_cents >= amount AND status = 'ACTIVE'` lives in the same atomic
// statement as the decrement, so two concurrent debits against one wallet
// cannot both observe sufficient balance: the second sees the decremented
// row and is rejected with ErrInsufficientFunds.
func (r *WalletRepository) DebitIfSufficient(ctx context.Context, tx pgx.Tx, walletID string, amountCents int64) (int64, error) {
	query, args, err := psql.
		Update("wallets").
		Set("balance_cents", sq.Expr("balance_cents - ?", amountCents)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": walletID, "status": domain.WalletStatusActive}).
		Where(sq.GtOrEq{"balance_cents": amountCents}).
		Suffix("RETURNING balance_cents").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build DebitIfSufficient query for wallet %s: %w", walletID, err)
	}

	var balance int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("debit wallet %s: %w", walletID, err)
	}
	return balance, nil
}
