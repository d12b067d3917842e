package wallet

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const (
	maxIdempotencyKeyLen = 255

	// ledger_entries.description is VARCHAR(500).
	maxDescriptionLen = 500
	bonusPrefix       = "Bonus: "
)

type TopupRequest struct {
	UserID         uuid.UUID
	AssetSymbol    string
	Amount         int64
	IdempotencyKey string
	Metadata       domain.Metadata
}

type BonusRequest struct {
	UserID         uuid.UUID
	AssetSymbol    string
	Amount         int64
	IdempotencyKey string
	Reason         string
}

type SpendRequest struct {
	UserID         uuid.UUID
	AssetSymbol    string
	Amount         int64
	IdempotencyKey string
	Description    string
}

// Result is the outcome of a ledger operation. Replayed is set when the
// idempotency key had already been used and no mutation ran.
type Result struct {
	Transaction *domain.Transaction
	Replayed    bool
}

// command is the shape shared by topup, bonus and spend.
type command struct {
	Type            domain.TransactionType
	UserID          uuid.UUID
	AssetSymbol     string
	Amount          int64
	IdempotencyKey  string
	Metadata        domain.Metadata
	UserDescription string
}

func (c command) isDebit() bool {
	return c.Type == domain.TransactionTypeSpend
}

// delta is the signed change to the acting user's balance.
func (c command) delta() int64 {
	if c.isDebit() {
		return -c.Amount
	}
	return c.Amount
}

func (c command) validate(systemUserID uuid.UUID) error {
	if c.Amount <= 0 {
		return fmt.Errorf("validate: %w", domain.ErrInvalidAmount)
	}
	if c.IdempotencyKey == "" {
		return fmt.Errorf("validate: idempotency key required: %w", domain.ErrInvalidRequest)
	}
	if len(c.IdempotencyKey) > maxIdempotencyKeyLen {
		return fmt.Errorf("validate: idempotency key longer than %d: %w", maxIdempotencyKeyLen, domain.ErrInvalidRequest)
	}
	if c.AssetSymbol == "" {
		return fmt.Errorf("validate: asset symbol required: %w", domain.ErrInvalidRequest)
	}
	if c.UserID == uuid.Nil {
		return fmt.Errorf("validate: user id required: %w", domain.ErrInvalidRequest)
	}
	if c.UserID == systemUserID {
		return fmt.Errorf("validate: system account cannot be the acting user: %w", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(c.UserDescription) > maxDescriptionLen {
		return fmt.Errorf("validate: description longer than %d characters: %w", maxDescriptionLen, domain.ErrInvalidRequest)
	}
	return nil
}

// matches reports whether a stored transaction is a replay of c.
// Metadata is not compared.
func (c command) matches(t *domain.Transaction) bool {
	actingUser := t.ToUserID
	if c.isDebit() {
		actingUser = t.FromUserID
	}
	return t.Type == c.Type &&
		actingUser == c.UserID &&
		t.AssetSymbol == c.AssetSymbol &&
		t.Amount == c.Amount
}

func topupCommand(req TopupRequest) command {
	return command{
		Type:            domain.TransactionTypeTopup,
		UserID:          req.UserID,
		AssetSymbol:     req.AssetSymbol,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        req.Metadata,
		UserDescription: "Topup received from system",
	}
}

func bonusCommand(req BonusRequest) command {
	desc := bonusPrefix + "No reason provided"
	var metadata domain.Metadata
	if req.Reason != "" {
		desc = bonusPrefix + req.Reason
		metadata = domain.Metadata{"reason": req.Reason}
	}
	return command{
		Type:            domain.TransactionTypeBonus,
		UserID:          req.UserID,
		AssetSymbol:     req.AssetSymbol,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        metadata,
		UserDescription: desc,
	}
}

func spendCommand(req SpendRequest) command {
	desc := "Credit spent"
	var metadata domain.Metadata
	if req.Description != "" {
		desc = req.Description
		metadata = domain.Metadata{"description": req.Description}
	}
	return command{
		Type:            domain.TransactionTypeSpend,
		UserID:          req.UserID,
		AssetSymbol:     req.AssetSymbol,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        metadata,
		UserDescription: desc,
	}
}
