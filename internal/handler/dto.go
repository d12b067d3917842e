package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type transactionDTO struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	FromUserID     uuid.UUID       `json:"fromUserId"`
	ToUserID       uuid.UUID       `json:"toUserId"`
	AssetID        uuid.UUID       `json:"assetId"`
	AssetSymbol    string          `json:"assetSymbol"`
	Amount         int64           `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Metadata       domain.Metadata `json:"metadata,omitempty"`
	ErrorMessage   *string         `json:"errorMessage,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:             t.ID,
		Type:           string(t.Type),
		Status:         string(t.Status),
		FromUserID:     t.FromUserID,
		ToUserID:       t.ToUserID,
		AssetID:        t.AssetID,
		AssetSymbol:    t.AssetSymbol,
		Amount:         t.Amount,
		IdempotencyKey: t.IdempotencyKey,
		Metadata:       t.Metadata,
		ErrorMessage:   t.ErrorMessage,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

type ledgerEntryDTO struct {
	ID              uuid.UUID `json:"id"`
	TransactionID   uuid.UUID `json:"transactionId"`
	UserID          uuid.UUID `json:"userId"`
	AssetID         uuid.UUID `json:"assetId"`
	TransactionType string    `json:"transactionType"`
	Direction       string    `json:"direction"`
	Amount          int64     `json:"amount"`
	BalanceAfter    int64     `json:"balanceAfter"`
	Status          string    `json:"status"`
	IdempotencyKey  string    `json:"idempotencyKey"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toLedgerEntryDTOs(entries []domain.LedgerEntry) []ledgerEntryDTO {
	dtos := make([]ledgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ledgerEntryDTO{
			ID:              e.ID,
			TransactionID:   e.TransactionID,
			UserID:          e.UserID,
			AssetID:         e.AssetID,
			TransactionType: string(e.TransactionType),
			Direction:       string(e.Direction),
			Amount:          e.Amount,
			BalanceAfter:    e.BalanceAfter,
			Status:          string(e.Status),
			IdempotencyKey:  e.IdempotencyKey,
			Description:     e.Description,
			CreatedAt:       e.CreatedAt,
		})
	}
	return dtos
}

type balanceDTO struct {
	UserID          uuid.UUID       `json:"userId"`
	AssetID         uuid.UUID       `json:"assetId"`
	AssetSymbol     string          `json:"assetSymbol"`
	Amount          int64           `json:"amount"`
	LockedAmount    int64           `json:"lockedAmount"`
	AvailableAmount int64           `json:"availableAmount"`
	DisplayAmount   decimal.Decimal `json:"displayAmount"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toBalanceDTO(v *domain.BalanceView) balanceDTO {
	return balanceDTO{
		UserID:          v.UserID,
		AssetID:         v.AssetID,
		AssetSymbol:     v.AssetSymbol,
		Amount:          v.Amount,
		LockedAmount:    v.LockedAmount,
		AvailableAmount: v.Available(),
		DisplayAmount:   domain.FormatMinorUnits(v.Amount, v.AssetDecimals),
		UpdatedAt:       v.UpdatedAt,
	}
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type pageDTO[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
