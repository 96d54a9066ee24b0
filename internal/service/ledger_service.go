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
	"github.com/hqhub/taskbank/internal/money"
	"github.com/hqhub/taskbank/internal/repository"
)

// LedgerService coordinates wallet balance mutations and the append-only
// monetary ledger. Every public operation runs as a single atomic transaction
// against the store; the conditional balance update and the unique reference
// id constraint are the only mechanisms relied upon for correctness under
// concurrent callers.
type LedgerService struct {
	pool       *pgxpool.Pool
	walletRepo *repository.WalletRepository
	entryRepo  *repository.LedgerEntryRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	pool *pgxpool.Pool,
	walletRepo *repository.WalletRepository,
	entryRepo *repository.LedgerEntryRepository,
) *LedgerService {
	return &LedgerService{
		pool:       pool,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
	}
}

// EntryParams are the inputs of a credit or debit.
type EntryParams struct {
	UserID      string
	AmountCents int64
	ReferenceID string
	Description *string
	Metadata    map[string]any
}

func (p EntryParams) validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrForbidden)
	}
	if money.ValidCents(p.AmountCents) != nil {
		return domain.ErrInvalidAmount
	}
	if strings.TrimSpace(p.ReferenceID) == "" {
		return domain.ErrEmptyReference
	}
	return nil
}

// LedgerResult is the outcome of a credit, debit or reversal. Idempotent
// replays return output shaped identically to a fresh success, with the
// current balance rather than the balance at original entry time.
type LedgerResult struct {
	WalletID     string
	BalanceCents int64
	EntryID      string
	Idempotent   bool
}

// rollback discards a transaction, logging unexpected failures.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// Credit adds funds to the user's wallet, creating a CREDIT/REWARD entry.
func (s *LedgerService) Credit(ctx context.Context, params EntryParams) (*LedgerResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := s.CreditInTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("wallet credited",
		"user_id", params.UserID,
		"amount_cents", params.AmountCents,
		"reference_id", params.ReferenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// CreditInTx is Credit composed into a caller-owned transaction. The task
// state machine uses it so money movement and the task transition commit or
// roll back together.
func (s *LedgerService) CreditInTx(ctx context.Context, tx pgx.Tx, params EntryParams) (*LedgerResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.Ensure(ctx, tx, params.UserID)
	if err != nil {
		return nil, err
	}

	if result, ok, err := s.replayByReference(ctx, tx, wallet.UserID, params.ReferenceID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		Direction:   domain.DirectionCredit,
		Type:        domain.EntryTypeReward,
		AmountCents: params.AmountCents,
		ReferenceID: params.ReferenceID,
		Description: params.Description,
		Metadata:    params.Metadata,
	}

	created, err := s.entryRepo.Insert(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost an insert race with a concurrent caller; the winner's entry
		// is visible now and the balance must not move again.
		result, ok, err := s.replayByReference(ctx, tx, wallet.UserID, params.ReferenceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("reference %s conflicted but entry not found", params.ReferenceID)
		}
		return result, nil
	}

	balance, err := s.walletRepo.Credit(ctx, tx, wallet.ID, params.AmountCents)
	if err != nil {
		return nil, err
	}

	return &LedgerResult{
		WalletID:     wallet.ID,
		BalanceCents: balance,
		EntryID:      entry.ID,
	}, nil
}

// Debit removes funds from the user's wallet, creating a DEBIT/PURCHASE
// entry. The balance can never go negative: the decrement is guarded by
// `balance >= amount AND status = ACTIVE` inside the same statement, and a
// failed guard rolls the whole unit back with ErrInsufficientFunds.
func (s *LedgerService) Debit(ctx context.Context, params EntryParams) (*LedgerResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := s.DebitInTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("wallet debited",
		"user_id", params.UserID,
		"amount_cents", params.AmountCents,
		"reference_id", params.ReferenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// DebitInTx is Debit composed into a caller-owned transaction.
func (s *LedgerService) DebitInTx(ctx context.Context, tx pgx.Tx, params EntryParams) (*LedgerResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.Ensure(ctx, tx, params.UserID)
	if err != nil {
		return nil, err
	}

	if result, ok, err := s.replayByReference(ctx, tx, wallet.UserID, params.ReferenceID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		Direction:   domain.DirectionDebit,
		Type:        domain.EntryTypePurchase,
		AmountCents: params.AmountCents,
		ReferenceID: params.ReferenceID,
		Description: params.Description,
		Metadata:    params.Metadata,
	}

	// The entry is appended before the balance moves so a replayed reference
	// id is detected before any mutation; a failed guard below rolls the
	// entry back with the rest of the unit.
	created, err := s.entryRepo.Insert(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		result, ok, err := s.replayByReference(ctx, tx, wallet.UserID, params.ReferenceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("reference %s conflicted but entry not found", params.ReferenceID)
		}
		return result, nil
	}

	balance, err := s.walletRepo.DebitIfSufficient(ctx, tx, wallet.ID, params.AmountCents)
	if err != nil {
		return nil, err
	}

	return &LedgerResult{
		WalletID:     wallet.ID,
		BalanceCents: balance,
		EntryID:      entry.ID,
	}, nil
}

// replayByReference checks whether an entry with the reference id already
// exists and, if so, builds the idempotent result with the current balance.
func (s *LedgerService) replayByReference(ctx context.Context, tx pgx.Tx, userID, referenceID string) (*LedgerResult, bool, error) {
	existing, err := s.entryRepo.GetByReferenceID(ctx, tx, referenceID)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	wallet, err := s.walletRepo.GetByID(ctx, tx, existing.WalletID)
	if err != nil {
		return nil, false, err
	}
	if wallet.UserID != userID {
		return nil, false, domain.ErrForbidden
	}

	return &LedgerResult{
		WalletID:     wallet.ID,
		BalanceCents: wallet.BalanceCents,
		EntryID:      existing.ID,
		Idempotent:   true,
	}, true, nil
}

// Statement is the current balance plus a page of ledger entries ordered by
// (created_at desc, id desc). The cursor is an opaque entry id; a full page
// implies more entries may exist.
type Statement struct {
	WalletID     string
	BalanceCents int64
	Entries      []*domain.LedgerEntry
	NextCursor   string
}

// Statement lists a page of the user's ledger. A user without a wallet has
// an empty statement; listing does not create one.
func (s *LedgerService) Statement(ctx context.Context, userID string, pageSize int, cursor string) (*Statement, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive", domain.ErrInvalidAmount)
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return &Statement{}, nil
		}
		return nil, err
	}

	entries, err := s.entryRepo.ListByWallet(ctx, wallet.ID, pageSize, cursor)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(entries) == pageSize {
		nextCursor = entries[len(entries)-1].ID
	}

	return &Statement{
		WalletID:     wallet.ID,
		BalanceCents: wallet.BalanceCents,
		Entries:      entries,
		NextCursor:   nextCursor,
	}, nil
}

// Balance returns the user's current balance, creating the wallet lazily.
func (s *LedgerService) Balance(ctx context.Context, userID string) (*domain.Wallet, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	wallet, err := s.walletRepo.Ensure(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return wallet, nil
}
