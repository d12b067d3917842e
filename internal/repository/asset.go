package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const assetColumns = `id, symbol, name, description, decimals, status, created_at, updated_at`

type AssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.AssetType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM asset_types WHERE symbol = $1`, symbol,
	)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetBySymbol: %s: %w", symbol, domain.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("GetBySymbol: %w", err)
	}
	return a, nil
}

func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssetType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM asset_types WHERE id = $1`, id,
	)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AssetRepository) List(ctx context.Context) ([]domain.AssetType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM asset_types ORDER BY symbol`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var assets []domain.AssetType
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return assets, nil
}

// Create inserts the asset unless its symbol is already registered.
func (r *AssetRepository) Create(ctx context.Context, a *domain.AssetType) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_types (id, symbol, name, description, decimals, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol) DO NOTHING`,
		a.ID, a.Symbol, a.Name, a.Description, a.Decimals, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("Create: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Create: rows affected: %w", err)
	}
	return n > 0, nil
}

func scanAsset(s scanner) (*domain.AssetType, error) {
	var a domain.AssetType
	err := s.Scan(
		&a.ID, &a.Symbol, &a.Name, &a.Description, &a.Decimals,
		&a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
