package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

const systemKeySuffix = "-system"

// SystemEntryKey derives the idempotency key of the treasury side entry.
func SystemEntryKey(key string) string {
	return key + systemKeySuffix
}

type LedgerEntry struct {
	ID              uuid.UUID
	TransactionID   uuid.UUID
	UserID          uuid.UUID
	AssetID         uuid.UUID
	TransactionType TransactionType
	Direction       Direction
	Amount          int64
	BalanceAfter    int64
	Status          TransactionStatus
	IdempotencyKey  string
	Description     string
	CreatedAt       time.Time
}
