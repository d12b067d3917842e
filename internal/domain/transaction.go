package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeTopup    TransactionType = "TOPUP"
	TransactionTypeBonus    TransactionType = "BONUS"
	TransactionTypeSpend    TransactionType = "SPEND"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

// Metadata is free-form caller context attached to a transaction.
type Metadata map[string]any

type Transaction struct {
	ID             uuid.UUID
	FromUserID     uuid.UUID
	ToUserID       uuid.UUID
	AssetID        uuid.UUID
	AssetSymbol    string
	Type           TransactionType
	Amount         int64
	Status         TransactionStatus
	IdempotencyKey string
	Metadata       Metadata
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}
