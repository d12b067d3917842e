package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const balanceColumns = `b.id, b.user_id, b.asset_id, b.amount, b.locked_amount, b.created_at, b.updated_at`

type BalanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// LockRow takes an exclusive row lock on the (user, asset) balance for the
// rest of tx. Concurrent callers on the same pair block until tx ends.
func (r *BalanceRepository) LockRow(ctx context.Context, tx *sql.Tx, userID, assetID uuid.UUID) (*domain.Balance, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances b
		WHERE b.user_id = $1 AND b.asset_id = $2 FOR UPDATE`,
		userID, assetID,
	)
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LockRow: %w", domain.ErrBalanceNotFound)
		}
		return nil, fmt.Errorf("LockRow: %w", err)
	}
	return b, nil
}

// LockOrCreateRow is LockRow with lazy initialisation: a missing pair is
// materialised as a zero balance first. Racing creators converge on the
// same row through the (user_id, asset_id) unique constraint.
func (r *BalanceRepository) LockOrCreateRow(ctx context.Context, tx *sql.Tx, userID, assetID uuid.UUID) (*domain.Balance, error) {
	b, err := r.LockRow(ctx, tx, userID, assetID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		return nil, fmt.Errorf("LockOrCreateRow: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO balances (id, user_id, asset_id, amount, locked_amount, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $4)
		ON CONFLICT (user_id, asset_id) DO NOTHING`,
		uuid.New(), userID, assetID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("LockOrCreateRow: insert: %w", err)
	}

	b, err = r.LockRow(ctx, tx, userID, assetID)
	if err != nil {
		return nil, fmt.Errorf("LockOrCreateRow: %w", err)
	}
	return b, nil
}

func (r *BalanceRepository) Update(ctx context.Context, tx *sql.Tx, b *domain.Balance) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE balances SET amount = $1, locked_amount = $2, updated_at = $3 WHERE id = $4`,
		b.Amount, b.LockedAmount, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrBalanceNotFound)
	}
	return nil
}

func (r *BalanceRepository) GetByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*domain.Balance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances b WHERE b.user_id = $1 AND b.asset_id = $2`,
		userID, assetID,
	)
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserAndAsset: %w", domain.ErrBalanceNotFound)
		}
		return nil, fmt.Errorf("GetByUserAndAsset: %w", err)
	}
	return b, nil
}

func (r *BalanceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BalanceView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+balanceColumns+`, a.symbol, a.decimals
		FROM balances b JOIN asset_types a ON a.id = b.asset_id
		WHERE b.user_id = $1 ORDER BY a.symbol`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var views []domain.BalanceView
	for rows.Next() {
		var v domain.BalanceView
		err := rows.Scan(
			&v.ID, &v.UserID, &v.AssetID, &v.Amount, &v.LockedAmount,
			&v.CreatedAt, &v.UpdatedAt, &v.AssetSymbol, &v.AssetDecimals,
		)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return views, nil
}

func scanBalance(s scanner) (*domain.Balance, error) {
	var b domain.Balance
	err := s.Scan(&b.ID, &b.UserID, &b.AssetID, &b.Amount, &b.LockedAmount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
