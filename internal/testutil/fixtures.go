package testutil

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func SeedSystemUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO users (id, email, name, role)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		SystemUserID, "system@wallet-service.local", "System Treasury", domain.UserRoleSystem,
	)
	if err != nil {
		t.Fatalf("seed system user: %v", err)
	}
	return SystemUserID
}

// SeedTestUser inserts a regular user with a generated name and a unique
// email.
func SeedTestUser(t *testing.T, db *sql.DB) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString()[:8] + "." + gofakeit.Email(),
		Name:      gofakeit.Name(),
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO users (id, email, name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", u.Email, err)
	}
	return u
}

func SeedAsset(t *testing.T, db *sql.DB, symbol string, status domain.AssetStatus) *domain.AssetType {
	t.Helper()

	now := time.Now().UTC()
	a := &domain.AssetType{
		ID:        uuid.New(),
		Symbol:    symbol,
		Name:      gofakeit.ProductName(),
		Decimals:  0,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO asset_types (id, symbol, name, decimals, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Symbol, a.Name, a.Decimals, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed asset %s: %v", symbol, err)
	}
	return a
}

func SeedBalance(t *testing.T, db *sql.DB, userID, assetID uuid.UUID, amount, locked int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO balances (id, user_id, asset_id, amount, locked_amount)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), userID, assetID, amount, locked,
	)
	if err != nil {
		t.Fatalf("seed balance %s/%s: %v", userID, assetID, err)
	}
}

// GetBalance returns (amount, locked) for a pair, or zeros if no row exists.
func GetBalance(t *testing.T, db *sql.DB, userID, assetID uuid.UUID) (int64, int64) {
	t.Helper()

	var amount, locked int64
	err := db.QueryRow(
		`SELECT amount, locked_amount FROM balances WHERE user_id = $1 AND asset_id = $2`,
		userID, assetID,
	).Scan(&amount, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0
	}
	if err != nil {
		t.Fatalf("get balance %s/%s: %v", userID, assetID, err)
	}
	return amount, locked
}

func CountLedgerEntries(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for transaction %s: %v", transactionID, err)
	}
	return count
}

func CountTransactionsByKey(t *testing.T, db *sql.DB, key string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE idempotency_key = $1`, key).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for key %s: %v", key, err)
	}
	return count
}
