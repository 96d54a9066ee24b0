package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hqhub/taskbank/internal/domain"
)

// ReverseParams are the inputs of an entry reversal.
type ReverseParams struct {
	UserID          string
	OriginalEntryID string
	ReferenceID     string
	Reason          *string
}

// Reverse compensates a previous ledger entry with a new REVERSAL entry in
// the opposite direction for the same amount. The original entry is never
// modified. Only PURCHASE and REWARD entries are reversible, a reversal
// cannot itself be reversed, and the caller must own the wallet the original
// entry belongs to.
func (s *LedgerService) Reverse(ctx context.Context, params ReverseParams) (*LedgerResult, error) {
	if strings.TrimSpace(params.ReferenceID) == "" {
		return nil, domain.ErrEmptyReference
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	original, err := s.entryRepo.GetByID(ctx, tx, params.OriginalEntryID)
	if err != nil {
		return nil, err
	}

	result, err := s.reverseInTx(ctx, tx, original, params.UserID, params.ReferenceID, params.Reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("ledger entry reversed",
		"user_id", params.UserID,
		"original_entry_id", original.ID,
		"reference_id", params.ReferenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// ReverseByReference reverses the entry identified by its reference id
// rather than its entry id.
func (s *LedgerService) ReverseByReference(ctx context.Context, userID, originalReferenceID, referenceID string, reason *string) (*LedgerResult, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, domain.ErrEmptyReference
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := s.ReverseByReferenceInTx(ctx, tx, userID, originalReferenceID, referenceID, reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("ledger entry reversed",
		"user_id", userID,
		"original_reference_id", originalReferenceID,
		"reference_id", referenceID,
		"idempotent", result.Idempotent,
	)

	return result, nil
}

// ReverseByReferenceInTx is ReverseByReference composed into a caller-owned
// transaction. Task cancellation uses it to refund the escrow debit together
// with the task transition.
func (s *LedgerService) ReverseByReferenceInTx(ctx context.Context, tx pgx.Tx, userID, originalReferenceID, referenceID string, reason *string) (*LedgerResult, error) {
	original, err := s.entryRepo.GetByReferenceID(ctx, tx, originalReferenceID)
	if err != nil {
		return nil, err
	}
	return s.reverseInTx(ctx, tx, original, userID, referenceID, reason)
}

func (s *LedgerService) reverseInTx(ctx context.Context, tx pgx.Tx, original *domain.LedgerEntry, userID, referenceID string, reason *string) (*LedgerResult, error) {
	wallet, err := s.walletRepo.GetByID(ctx, tx, original.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if original.Type == domain.EntryTypeReversal {
		return nil, domain.ErrCannotReverseReversal
	}
	if !original.Type.IsReversible() {
		return nil, domain.ErrUnsupportedReversalType
	}

	if result, ok, err := s.replayByReference(ctx, tx, userID, referenceID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	description := "Reversal"
	if reason != nil && *reason != "" {
		description = "Reversal: " + *reason
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		Direction:   original.Direction.Opposite(),
		Type:        domain.EntryTypeReversal,
		AmountCents: original.AmountCents,
		ReferenceID: referenceID,
		Description: &description,
		Metadata: map[string]any{
			domain.MetaOriginalEntryID:     original.ID,
			domain.MetaOriginalReferenceID: original.ReferenceID,
			domain.MetaOriginalType:        string(original.Type),
			domain.MetaOriginalDirection:   string(original.Direction),
		},
	}

	created, err := s.entryRepo.Insert(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		result, ok, err := s.replayByReference(ctx, tx, userID, referenceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("reference %s conflicted but entry not found", referenceID)
		}
		return result, nil
	}

	var balance int64
	if entry.Direction == domain.DirectionDebit {
		// Reversing a credit takes the funds back and is subject to the same
		// non-negative balance guard as any other debit.
		balance, err = s.walletRepo.DebitIfSufficient(ctx, tx, wallet.ID, entry.AmountCents)
	} else {
		balance, err = s.walletRepo.Credit(ctx, tx, wallet.ID, entry.AmountCents)
	}
	if err != nil {
		return nil, err
	}

	return &LedgerResult{
		WalletID:     wallet.ID,
		BalanceCents: balance,
		EntryID:      entry.ID,
	}, nil
}
