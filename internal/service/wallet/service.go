package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type assetRepo interface {
	GetBySymbol(ctx context.Context, symbol string) (*domain.AssetType, error)
}

type balanceRepo interface {
	LockRow(ctx context.Context, tx *sql.Tx, userID, assetID uuid.UUID) (*domain.Balance, error)
	LockOrCreateRow(ctx context.Context, tx *sql.Tx, userID, assetID uuid.UUID) (*domain.Balance, error)
	Update(ctx context.Context, tx *sql.Tx, b *domain.Balance) error
	GetByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*domain.Balance, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BalanceView, error)
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.TransactionStatus, errorMessage *string, completedAt *time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, assetID *uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
}

type unitOfWork interface {
	Do(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Service is the ledger transaction engine. All balance mutations go
// through a unit of work and the balance row lock.
type Service struct {
	users        userRepo
	assets       assetRepo
	balances     balanceRepo
	transactions transactionRepo
	ledger       ledgerRepo
	uow          unitOfWork
	systemUserID uuid.UUID
}

func NewService(
	users userRepo,
	assets assetRepo,
	balances balanceRepo,
	transactions transactionRepo,
	ledger ledgerRepo,
	uow unitOfWork,
	systemUserID uuid.UUID,
) *Service {
	return &Service{
		users:        users,
		assets:       assets,
		balances:     balances,
		transactions: transactions,
		ledger:       ledger,
		uow:          uow,
		systemUserID: systemUserID,
	}
}

func (s *Service) SystemUserID() uuid.UUID {
	return s.systemUserID
}

// VerifySystemAccount checks the configured treasury account exists and
// carries the system role. Callers treat a failure as fatal at startup.
func (s *Service) VerifySystemAccount(ctx context.Context) error {
	u, err := s.users.GetByID(ctx, s.systemUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("VerifySystemAccount: %s: %w", s.systemUserID, domain.ErrSystemAccountMissing)
		}
		return fmt.Errorf("VerifySystemAccount: %w", err)
	}
	if u.Role != domain.UserRoleSystem {
		return fmt.Errorf("VerifySystemAccount: %s has role %q: %w", s.systemUserID, u.Role, domain.ErrSystemAccountMissing)
	}
	return nil
}
