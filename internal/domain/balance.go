package domain

import (
	"time"

	"github.com/google/uuid"
)

// Balance is the per (user, asset) aggregate. Invariant:
// 0 <= LockedAmount <= Amount.
type Balance struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AssetID      uuid.UUID
	Amount       int64
	LockedAmount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b *Balance) Available() int64 {
	return b.Amount - b.LockedAmount
}

// BalanceView is a balance joined with its asset for read projections.
type BalanceView struct {
	Balance
	AssetSymbol   string
	AssetDecimals int32
}
