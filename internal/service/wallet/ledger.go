package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

// systemDescription is the treasury side narration for a transaction type.
func systemDescription(t domain.TransactionType, counterparty *domain.User) string {
	switch t {
	case domain.TransactionTypeTopup:
		return "Topup issued to " + counterparty.Email
	case domain.TransactionTypeBonus:
		return "Bonus issued to " + counterparty.Email
	case domain.TransactionTypeSpend:
		return "Credits spent by " + counterparty.Email
	default:
		return string(t)
	}
}

// buildEntries returns the debit and credit legs of t, in that order. The
// user leg carries the post-mutation balance and the caller's key. The
// treasury leg carries a derived key and a zero BalanceAfter since the
// system balance is not tracked.
func buildEntries(t *domain.Transaction, user *domain.User, systemUserID uuid.UUID, balanceAfter int64, userDescription string, now time.Time) (debit, credit domain.LedgerEntry) {
	userLeg := domain.LedgerEntry{
		ID:              uuid.New(),
		TransactionID:   t.ID,
		UserID:          user.ID,
		AssetID:         t.AssetID,
		TransactionType: t.Type,
		Amount:          t.Amount,
		BalanceAfter:    balanceAfter,
		Status:          domain.TransactionStatusCompleted,
		IdempotencyKey:  t.IdempotencyKey,
		Description:     userDescription,
		CreatedAt:       now,
	}
	systemLeg := domain.LedgerEntry{
		ID:              uuid.New(),
		TransactionID:   t.ID,
		UserID:          systemUserID,
		AssetID:         t.AssetID,
		TransactionType: t.Type,
		Amount:          t.Amount,
		BalanceAfter:    0,
		Status:          domain.TransactionStatusCompleted,
		IdempotencyKey:  domain.SystemEntryKey(t.IdempotencyKey),
		Description:     systemDescription(t.Type, user),
		CreatedAt:       now,
	}

	if t.Type == domain.TransactionTypeSpend {
		userLeg.Direction = domain.DirectionDebit
		systemLeg.Direction = domain.DirectionCredit
		return userLeg, systemLeg
	}
	systemLeg.Direction = domain.DirectionDebit
	userLeg.Direction = domain.DirectionCredit
	return systemLeg, userLeg
}

// writeEntries appends both legs of t inside tx.
func (s *Service) writeEntries(ctx context.Context, tx *sql.Tx, t *domain.Transaction, user *domain.User, balanceAfter int64, userDescription string) error {
	debit, credit := buildEntries(t, user, s.systemUserID, balanceAfter, userDescription, time.Now().UTC())

	if err := s.ledger.Create(ctx, tx, &debit); err != nil {
		return fmt.Errorf("writeEntries: debit: %w", err)
	}
	if err := s.ledger.Create(ctx, tx, &credit); err != nil {
		return fmt.Errorf("writeEntries: credit: %w", err)
	}
	return nil
}
