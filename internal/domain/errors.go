package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrUserNotFound            = fmt.Errorf("user %w", ErrNotFound)
	ErrAssetNotFound           = fmt.Errorf("asset %w", ErrNotFound)
	ErrBalanceNotFound         = fmt.Errorf("balance %w", ErrNotFound)
	ErrTransactionNotFound     = fmt.Errorf("transaction %w", ErrNotFound)
	ErrSystemAccountMissing    = errors.New("system account not configured")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrAssetInactive           = errors.New("asset inactive")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrBalanceOverflow         = errors.New("balance would exceed the maximum representable amount")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrIdempotencyConflict     = errors.New("idempotency key reused with a different request")
)

// DeclinedError reports an operation that was refused by a business rule
// after its FAILED transaction record was durably stored.
type DeclinedError struct {
	Transaction *Transaction
	Err         error
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("transaction %s declined: %v", e.Transaction.ID, e.Err)
}

func (e *DeclinedError) Unwrap() error { return e.Err }
