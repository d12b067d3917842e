package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type scanner interface {
	Scan(dest ...any) error
}

// UnitOfWork runs a group of repository writes as one database
// transaction. The *sql.Tx handed to fn is the only handle that may be
// used for writes that must commit or roll back together.
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do commits when fn returns nil and rolls back otherwise, including on panic.
func (u *UnitOfWork) Do(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UnitOfWork.Do: begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.FromContext(ctx).Warn("rollback failed", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UnitOfWork.Do: commit: %w", err)
	}
	return nil
}
