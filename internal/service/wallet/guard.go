package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

// checkDuplicate returns the transaction already stored under the
// command's idempotency key, or nil when the key is unused. A stored
// transaction that describes a different operation is a conflict.
func (s *Service) checkDuplicate(ctx context.Context, cmd command) (*domain.Transaction, error) {
	existing, err := s.transactions.GetByIdempotencyKey(ctx, cmd.IdempotencyKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("checkDuplicate: %w", err)
	}

	if !cmd.matches(existing) {
		return nil, fmt.Errorf("checkDuplicate: transaction %s: %w", existing.ID, domain.ErrIdempotencyConflict)
	}
	return existing, nil
}
