package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

// FundsLockRequest reserves or releases part of a balance.
type FundsLockRequest struct {
	UserID      uuid.UUID
	AssetSymbol string
	Amount      int64
}

// mutate applies a signed delta to the (user, asset) balance while holding
// its row lock. Credits create the row on first use. A debit against a
// missing row is a debit against zero.
func (s *Service) mutate(ctx context.Context, tx *sql.Tx, userID, assetID uuid.UUID, delta int64) (*domain.Balance, error) {
	var (
		b   *domain.Balance
		err error
	)
	if delta >= 0 {
		b, err = s.balances.LockOrCreateRow(ctx, tx, userID, assetID)
	} else {
		b, err = s.balances.LockRow(ctx, tx, userID, assetID)
		if errors.Is(err, domain.ErrBalanceNotFound) {
			return nil, fmt.Errorf("mutate: %w", domain.ErrInsufficientFunds)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}

	if err := applyDelta(b, delta); err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}
	b.UpdatedAt = time.Now().UTC()

	if err := s.balances.Update(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}
	return b, nil
}

// applyDelta changes Amount only. Debits may not dip into locked funds.
func applyDelta(b *domain.Balance, delta int64) error {
	if delta < 0 && b.Available() < -delta {
		return domain.ErrInsufficientFunds
	}
	if delta > 0 && b.Amount > math.MaxInt64-delta {
		return domain.ErrBalanceOverflow
	}
	b.Amount += delta
	return nil
}

func lockAmount(b *domain.Balance, amount int64) error {
	if b.Available() < amount {
		return domain.ErrInsufficientFunds
	}
	b.LockedAmount += amount
	return nil
}

// unlockAmount floors LockedAmount at zero.
func unlockAmount(b *domain.Balance, amount int64) {
	b.LockedAmount -= amount
	if b.LockedAmount < 0 {
		b.LockedAmount = 0
	}
}

// LockFunds moves amount from available to locked. Amount is unchanged.
func (s *Service) LockFunds(ctx context.Context, req FundsLockRequest) (*domain.BalanceView, error) {
	view, err := s.adjustLock(ctx, req, true)
	if err != nil {
		return nil, fmt.Errorf("LockFunds: %w", err)
	}
	return view, nil
}

// UnlockFunds releases up to amount of previously locked funds.
func (s *Service) UnlockFunds(ctx context.Context, req FundsLockRequest) (*domain.BalanceView, error) {
	view, err := s.adjustLock(ctx, req, false)
	if err != nil {
		return nil, fmt.Errorf("UnlockFunds: %w", err)
	}
	return view, nil
}

func (s *Service) adjustLock(ctx context.Context, req FundsLockRequest, lock bool) (*domain.BalanceView, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("adjustLock: %w", domain.ErrInvalidAmount)
	}
	if req.UserID == uuid.Nil || req.AssetSymbol == "" {
		return nil, fmt.Errorf("adjustLock: user id and asset symbol required: %w", domain.ErrInvalidRequest)
	}

	asset, err := s.assets.GetBySymbol(ctx, req.AssetSymbol)
	if err != nil {
		return nil, fmt.Errorf("adjustLock: resolve asset %s: %w", req.AssetSymbol, err)
	}
	// Releasing funds on a retired asset is still allowed.
	if lock && !asset.IsActive() {
		return nil, fmt.Errorf("adjustLock: %s: %w", asset.Symbol, domain.ErrAssetInactive)
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("adjustLock: resolve user: %w", err)
	}

	var b *domain.Balance
	err = s.uow.Do(ctx, func(tx *sql.Tx) error {
		var err error
		b, err = s.balances.LockRow(ctx, tx, req.UserID, asset.ID)
		if err != nil {
			if lock && errors.Is(err, domain.ErrBalanceNotFound) {
				return fmt.Errorf("lock balance: %w", domain.ErrInsufficientFunds)
			}
			return fmt.Errorf("lock balance: %w", err)
		}

		if lock {
			if err := lockAmount(b, req.Amount); err != nil {
				return fmt.Errorf("lock amount: %w", err)
			}
		} else {
			unlockAmount(b, req.Amount)
		}
		b.UpdatedAt = time.Now().UTC()
		if err := s.balances.Update(ctx, tx, b); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjustLock: %w", err)
	}

	logging.FromContext(ctx).Info("balance lock adjusted",
		"user_id", req.UserID,
		"asset", asset.Symbol,
		"lock", lock,
		"amount", req.Amount,
		"locked_amount", b.LockedAmount,
	)
	return &domain.BalanceView{Balance: *b, AssetSymbol: asset.Symbol, AssetDecimals: asset.Decimals}, nil
}
