package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/testutil"
)

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	balances := repository.NewBalanceRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)

	boom := errors.New("boom")
	err := uow.Do(ctx, func(tx *sql.Tx) error {
		b, err := balances.LockOrCreateRow(ctx, tx, user.ID, asset.ID)
		require.NoError(t, err)
		b.Amount = 500
		require.NoError(t, balances.Update(ctx, tx, b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = balances.GetByUserAndAsset(ctx, user.ID, asset.ID)
	require.ErrorIs(t, err, domain.ErrBalanceNotFound)
}

func TestBalanceRepository_LockOrCreateRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	balances := repository.NewBalanceRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)

	var firstID uuid.UUID
	err := uow.Do(ctx, func(tx *sql.Tx) error {
		_, err := balances.LockRow(ctx, tx, user.ID, asset.ID)
		require.ErrorIs(t, err, domain.ErrBalanceNotFound)

		b, err := balances.LockOrCreateRow(ctx, tx, user.ID, asset.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(0), b.Amount)
		firstID = b.ID
		return nil
	})
	require.NoError(t, err)

	err = uow.Do(ctx, func(tx *sql.Tx) error {
		b, err := balances.LockOrCreateRow(ctx, tx, user.ID, asset.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, firstID, b.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestBalanceRepository_RejectsLockedAboveAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	balances := repository.NewBalanceRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)
	testutil.SeedBalance(t, db, user.ID, asset.ID, 100, 0)

	err := uow.Do(ctx, func(tx *sql.Tx) error {
		b, err := balances.LockRow(ctx, tx, user.ID, asset.ID)
		if err != nil {
			return err
		}
		b.LockedAmount = 101
		return balances.Update(ctx, tx, b)
	})
	require.Error(t, err)
}

func seedTransaction(t *testing.T, db *sql.DB, userID, assetID uuid.UUID, key string) *domain.Transaction {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:             uuid.New(),
		FromUserID:     testutil.SystemUserID,
		ToUserID:       userID,
		AssetID:        assetID,
		Type:           domain.TransactionTypeTopup,
		Amount:         10,
		Status:         domain.TransactionStatusPending,
		IdempotencyKey: key,
		Metadata:       domain.Metadata{"source": "test"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := repository.NewUnitOfWork(db).Do(ctx, func(sqlTx *sql.Tx) error {
		return repository.NewTransactionRepository(db).Create(ctx, sqlTx, tx)
	})
	require.NoError(t, err)
	return tx
}

func TestTransactionRepository_DuplicateKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedSystemUser(t, db)
	ctx := context.Background()
	transactions := repository.NewTransactionRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)
	first := seedTransaction(t, db, user.ID, asset.ID, "dup-key")

	err := repository.NewUnitOfWork(db).Do(ctx, func(sqlTx *sql.Tx) error {
		dup := *first
		dup.ID = uuid.New()
		return transactions.Create(ctx, sqlTx, &dup)
	})
	require.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)

	stored, err := transactions.GetByIdempotencyKey(ctx, "dup-key")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "GOLD_COINS", stored.AssetSymbol)
	assert.Equal(t, "test", stored.Metadata["source"])
}

func TestTransactionRepository_UpdateStatusOnlyFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedSystemUser(t, db)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	transactions := repository.NewTransactionRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)
	tx := seedTransaction(t, db, user.ID, asset.ID, uuid.NewString())

	now := time.Now().UTC()
	err := uow.Do(ctx, func(sqlTx *sql.Tx) error {
		return transactions.UpdateStatus(ctx, sqlTx, tx.ID, domain.TransactionStatusCompleted, nil, &now)
	})
	require.NoError(t, err)

	err = uow.Do(ctx, func(sqlTx *sql.Tx) error {
		return transactions.UpdateStatus(ctx, sqlTx, tx.ID, domain.TransactionStatusFailed, nil, nil)
	})
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestLedgerEntries_AppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedSystemUser(t, db)
	ctx := context.Background()
	ledger := repository.NewLedgerRepository(db)

	user := testutil.SeedTestUser(t, db)
	asset := testutil.SeedAsset(t, db, "GOLD_COINS", domain.AssetStatusActive)
	tx := seedTransaction(t, db, user.ID, asset.ID, "ledger-key")

	entry := &domain.LedgerEntry{
		ID:              uuid.New(),
		TransactionID:   tx.ID,
		UserID:          user.ID,
		AssetID:         asset.ID,
		TransactionType: domain.TransactionTypeTopup,
		Direction:       domain.DirectionCredit,
		Amount:          10,
		BalanceAfter:    10,
		Status:          domain.TransactionStatusCompleted,
		IdempotencyKey:  "ledger-key",
		Description:     "Topup received from system",
		CreatedAt:       time.Now().UTC(),
	}
	err := repository.NewUnitOfWork(db).Do(ctx, func(sqlTx *sql.Tx) error {
		return ledger.Create(ctx, sqlTx, entry)
	})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `UPDATE ledger_entries SET amount = 1 WHERE id = $1`, entry.ID)
	require.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, entry.ID)
	require.Error(t, err)

	entries, err := ledger.GetByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10), entries[0].Amount)
}
