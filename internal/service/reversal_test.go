package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/service"
)

// TestReverse_CreditEntry tests reversing a credit, which takes the funds
// back out.
func (s *LedgerServiceTestSuite) TestReverse_CreditEntry() {
	ctx := context.Background()

	original, err := s.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 1000,
		ReferenceID: "credit-1",
	})
	s.Require().NoError(err)

	result, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Require().NoError(err)
	s.Equal(int64(0), result.BalanceCents)
	s.False(result.Idempotent)

	entry, err := s.entryRepo.GetByID(ctx, nil, result.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.EntryTypeReversal, entry.Type)
	s.Equal(domain.DirectionDebit, entry.Direction)
	s.Equal(int64(1000), entry.AmountCents)
	s.Equal(original.EntryID, entry.Metadata[domain.MetaOriginalEntryID])
	s.Equal("credit-1", entry.Metadata[domain.MetaOriginalReferenceID])

	// The original entry is never modified.
	kept, err := s.entryRepo.GetByID(ctx, nil, original.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.EntryTypeReward, kept.Type)
}

// TestReverse_DebitEntry tests reversing a debit, which refunds the wallet.
func (s *LedgerServiceTestSuite) TestReverse_DebitEntry() {
	ctx := context.Background()
	s.credit("user-1", 1000, "seed")

	debit, err := s.ledgerService.Debit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 400,
		ReferenceID: "debit-1",
	})
	s.Require().NoError(err)

	reason := "ordered by mistake"
	result, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: debit.EntryID,
		ReferenceID:     "reverse-1",
		Reason:          &reason,
	})
	s.Require().NoError(err)
	s.Equal(int64(1000), result.BalanceCents)

	entry, err := s.entryRepo.GetByID(ctx, nil, result.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.DirectionCredit, entry.Direction)
	s.Require().NotNil(entry.Description)
	s.Equal("Reversal: ordered by mistake", *entry.Description)
}

// TestReverse_IdempotentReplay tests that replaying a reversal reference
// does not move the balance twice.
func (s *LedgerServiceTestSuite) TestReverse_IdempotentReplay() {
	ctx := context.Background()

	original, err := s.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 1000,
		ReferenceID: "credit-1",
	})
	s.Require().NoError(err)

	first, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Require().NoError(err)

	second, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Require().NoError(err)
	s.True(second.Idempotent)
	s.Equal(first.EntryID, second.EntryID)
	s.Equal(int64(0), second.BalanceCents)
}

// TestReverse_CannotReverseReversal tests the one-level depth limit.
func (s *LedgerServiceTestSuite) TestReverse_CannotReverseReversal() {
	ctx := context.Background()

	original, err := s.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 1000,
		ReferenceID: "credit-1",
	})
	s.Require().NoError(err)

	reversal, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Require().NoError(err)

	_, err = s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: reversal.EntryID,
		ReferenceID:     "reverse-2",
	})
	s.Error(err)
	s.ErrorIs(err, domain.ErrCannotReverseReversal)
}

// TestReverse_Forbidden tests that only the wallet owner may reverse.
func (s *LedgerServiceTestSuite) TestReverse_Forbidden() {
	ctx := context.Background()

	original, err := s.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 1000,
		ReferenceID: "credit-1",
	})
	s.Require().NoError(err)

	_, err = s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-2",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Error(err)
	s.ErrorIs(err, domain.ErrForbidden)
}

// TestReverse_EntryNotFound tests reversing a nonexistent entry.
func (s *LedgerServiceTestSuite) TestReverse_EntryNotFound() {
	ctx := context.Background()

	_, err := s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: uuid.NewString(),
		ReferenceID:     "reverse-1",
	})
	s.Error(err)
	s.ErrorIs(err, domain.ErrEntryNotFound)
}

// TestReverse_UnsupportedType tests that only PURCHASE and REWARD entries
// are reversible.
func (s *LedgerServiceTestSuite) TestReverse_UnsupportedType() {
	ctx := context.Background()
	s.credit("user-1", 1000, "seed")

	wallet, err := s.walletRepo.GetByUserID(ctx, nil, "user-1")
	s.Require().NoError(err)

	feeEntryID := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_entries (id, wallet_id, direction, type, amount_cents, reference_id)
		VALUES ($1, $2, 'DEBIT', 'FEE', 50, 'fee-1')
	`, feeEntryID, wallet.ID)
	s.Require().NoError(err, "failed to insert fee entry")

	_, err = s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: feeEntryID,
		ReferenceID:     "reverse-1",
	})
	s.Error(err)
	s.ErrorIs(err, domain.ErrUnsupportedReversalType)
}

// TestReverse_InsufficientFundsForCreditReversal tests that clawing back a
// spent credit fails instead of overdrawing.
func (s *LedgerServiceTestSuite) TestReverse_InsufficientFundsForCreditReversal() {
	ctx := context.Background()

	original, err := s.ledgerService.Credit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 1000,
		ReferenceID: "credit-1",
	})
	s.Require().NoError(err)

	_, err = s.ledgerService.Debit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 800,
		ReferenceID: "debit-1",
	})
	s.Require().NoError(err)

	_, err = s.ledgerService.Reverse(ctx, service.ReverseParams{
		UserID:          "user-1",
		OriginalEntryID: original.EntryID,
		ReferenceID:     "reverse-1",
	})
	s.Error(err)
	s.ErrorIs(err, domain.ErrInsufficientFunds)
}

// TestReverseByReference tests reversal addressed by the original reference
// id.
func (s *LedgerServiceTestSuite) TestReverseByReference() {
	ctx := context.Background()
	s.credit("user-1", 1000, "seed")

	_, err := s.ledgerService.Debit(ctx, service.EntryParams{
		UserID:      "user-1",
		AmountCents: 300,
		ReferenceID: "debit-1",
	})
	s.Require().NoError(err)

	result, err := s.ledgerService.ReverseByReference(ctx, "user-1", "debit-1", "reverse-1", nil)
	s.Require().NoError(err)
	s.Equal(int64(1000), result.BalanceCents)

	_, err = s.ledgerService.ReverseByReference(ctx, "user-1", "missing-ref", "reverse-2", nil)
	s.ErrorIs(err, domain.ErrEntryNotFound)
}
