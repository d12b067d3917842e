package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "ACTIVE"
	AssetStatusInactive AssetStatus = "INACTIVE"
)

type AssetType struct {
	ID          uuid.UUID
	Symbol      string
	Name        string
	Description *string
	Decimals    int32
	Status      AssetStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *AssetType) IsActive() bool {
	return a.Status == AssetStatusActive
}

// FormatAmount renders an amount held in minor units using the asset's
// decimal places. Amounts are stored and computed as int64 only.
func (a *AssetType) FormatAmount(amount int64) decimal.Decimal {
	return FormatMinorUnits(amount, a.Decimals)
}

func FormatMinorUnits(amount int64, decimals int32) decimal.Decimal {
	return decimal.New(amount, -decimals)
}
