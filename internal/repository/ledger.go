package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const ledgerColumns = `id, transaction_id, user_id, asset_id, transaction_type, direction,
	amount, balance_after, status, idempotency_key, description, created_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, transaction_id, user_id, asset_id, transaction_type, direction,
			amount, balance_after, status, idempotency_key, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.TransactionID, entry.UserID, entry.AssetID, entry.TransactionType,
		entry.Direction, entry.Amount, entry.BalanceAfter, entry.Status,
		entry.IdempotencyKey, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ListByUser pages a user's entries newest first. A nil assetID returns
// entries for every asset.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, assetID *uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	asset := uuid.NullUUID{}
	if assetID != nil {
		asset = uuid.NullUUID{UUID: *assetID, Valid: true}
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries
		WHERE user_id = $1 AND ($2::uuid IS NULL OR asset_id = $2)`,
		userID, asset,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE user_id = $1 AND ($2::uuid IS NULL OR asset_id = $2)
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		userID, asset, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE transaction_id = $1 ORDER BY direction DESC`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return entries, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransactionID, &e.UserID, &e.AssetID, &e.TransactionType, &e.Direction,
		&e.Amount, &e.BalanceAfter, &e.Status, &e.IdempotencyKey, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
