package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

// Page bounds a list query. Limit must be positive.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) validate() error {
	if p.Limit <= 0 || p.Offset < 0 {
		return fmt.Errorf("page limit %d offset %d: %w", p.Limit, p.Offset, domain.ErrInvalidRequest)
	}
	return nil
}

// GetBalance returns the total amount held. A pair that has never been
// credited has a balance of zero.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID, assetSymbol string) (int64, error) {
	asset, err := s.assets.GetBySymbol(ctx, assetSymbol)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}

	b, err := s.balances.GetByUserAndAsset(ctx, userID, asset.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	return b.Amount, nil
}

func (s *Service) GetUserBalances(ctx context.Context, userID uuid.UUID) ([]domain.BalanceView, error) {
	views, err := s.balances.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetUserBalances: %w", err)
	}
	return views, nil
}

// GetTransactionHistory lists transactions where the user is either party,
// newest first, along with the unpaged total.
func (s *Service) GetTransactionHistory(ctx context.Context, userID uuid.UUID, page Page) ([]domain.Transaction, int, error) {
	if err := page.validate(); err != nil {
		return nil, 0, fmt.Errorf("GetTransactionHistory: %w", err)
	}
	txs, total, err := s.transactions.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetTransactionHistory: %w", err)
	}
	return txs, total, nil
}

// GetLedgerEntries lists the user's own ledger entries, newest first,
// optionally restricted to one asset.
func (s *Service) GetLedgerEntries(ctx context.Context, userID uuid.UUID, assetID *uuid.UUID, page Page) ([]domain.LedgerEntry, int, error) {
	if err := page.validate(); err != nil {
		return nil, 0, fmt.Errorf("GetLedgerEntries: %w", err)
	}
	entries, total, err := s.ledger.ListByUser(ctx, userID, assetID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetLedgerEntries: %w", err)
	}
	return entries, total, nil
}

// GetTransaction returns a transaction with both of its ledger legs. FAILED
// transactions have no legs.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.LedgerEntry, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}
	entries, err := s.ledger.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return t, entries, nil
}
