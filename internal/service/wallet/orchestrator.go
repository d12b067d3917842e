package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

const insufficientBalanceMessage = "Insufficient balance"

// Topup credits a user from the treasury, typically after an external
// purchase has settled.
func (s *Service) Topup(ctx context.Context, req TopupRequest) (*Result, error) {
	res, err := s.execute(ctx, topupCommand(req))
	if err != nil {
		return nil, fmt.Errorf("Topup: %w", err)
	}
	return res, nil
}

// Bonus credits a user from the treasury as an incentive.
func (s *Service) Bonus(ctx context.Context, req BonusRequest) (*Result, error) {
	res, err := s.execute(ctx, bonusCommand(req))
	if err != nil {
		return nil, fmt.Errorf("Bonus: %w", err)
	}
	return res, nil
}

// Spend debits a user back to the treasury. A spend larger than the
// available balance is recorded as FAILED and returned as a
// *domain.DeclinedError. The key is consumed in that case.
func (s *Service) Spend(ctx context.Context, req SpendRequest) (*Result, error) {
	res, err := s.execute(ctx, spendCommand(req))
	if err != nil {
		return nil, fmt.Errorf("Spend: %w", err)
	}
	return res, nil
}

func (s *Service) execute(ctx context.Context, cmd command) (*Result, error) {
	ctx = logging.With(ctx, "idempotency_key", cmd.IdempotencyKey, "transaction_type", cmd.Type)
	log := logging.FromContext(ctx)

	if err := cmd.validate(s.systemUserID); err != nil {
		return nil, err
	}

	existing, err := s.checkDuplicate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("idempotent replay", "transaction_id", existing.ID, "status", existing.Status)
		return &Result{Transaction: existing, Replayed: true}, nil
	}

	asset, user, err := s.resolve(ctx, cmd)
	if err != nil {
		return nil, err
	}

	t, err := s.run(ctx, cmd, asset, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			return s.replayAfterRace(ctx, cmd)
		}
		return nil, err
	}

	if t.Status == domain.TransactionStatusFailed {
		log.Warn("transaction declined",
			"transaction_id", t.ID,
			"user_id", cmd.UserID,
			"asset", cmd.AssetSymbol,
			"amount", cmd.Amount,
		)
		return nil, &domain.DeclinedError{Transaction: t, Err: domain.ErrInsufficientFunds}
	}

	log.Info("transaction completed",
		"transaction_id", t.ID,
		"user_id", cmd.UserID,
		"asset", cmd.AssetSymbol,
		"amount", cmd.Amount,
	)
	return &Result{Transaction: t}, nil
}

// replayAfterRace handles losing a unique-key race to a concurrent request
// with the same key. The winner has committed by now, so its record is
// returned instead. No record means the key collided with a derived
// ledger key rather than another transaction.
func (s *Service) replayAfterRace(ctx context.Context, cmd command) (*Result, error) {
	existing, err := s.checkDuplicate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("replayAfterRace: %w", domain.ErrIdempotencyConflict)
	}
	logging.FromContext(ctx).Info("idempotent replay (race)", "transaction_id", existing.ID, "status", existing.Status)
	return &Result{Transaction: existing, Replayed: true}, nil
}

func (s *Service) resolve(ctx context.Context, cmd command) (*domain.AssetType, *domain.User, error) {
	asset, err := s.assets.GetBySymbol(ctx, cmd.AssetSymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve: %w", err)
	}
	if !asset.IsActive() {
		return nil, nil, fmt.Errorf("resolve: %s: %w", asset.Symbol, domain.ErrAssetInactive)
	}

	user, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve: %w", err)
	}
	return asset, user, nil
}

func newTransaction(cmd command, systemUserID uuid.UUID, asset *domain.AssetType, now time.Time) *domain.Transaction {
	from, to := systemUserID, cmd.UserID
	if cmd.isDebit() {
		from, to = cmd.UserID, systemUserID
	}
	return &domain.Transaction{
		ID:             uuid.New(),
		FromUserID:     from,
		ToUserID:       to,
		AssetID:        asset.ID,
		AssetSymbol:    asset.Symbol,
		Type:           cmd.Type,
		Amount:         cmd.Amount,
		Status:         domain.TransactionStatusPending,
		IdempotencyKey: cmd.IdempotencyKey,
		Metadata:       cmd.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// run performs the whole operation in one unit of work. Any error rolls
// back every write including the PENDING header, which leaves the key
// free for a retry. A declined debit is not an error here: the FAILED
// header commits on its own.
func (s *Service) run(ctx context.Context, cmd command, asset *domain.AssetType, user *domain.User) (*domain.Transaction, error) {
	t := newTransaction(cmd, s.systemUserID, asset, time.Now().UTC())

	err := s.uow.Do(ctx, func(tx *sql.Tx) error {
		if err := s.transactions.Create(ctx, tx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		b, err := s.mutate(ctx, tx, user.ID, asset.ID, cmd.delta())
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				return s.markFailed(ctx, tx, t, insufficientBalanceMessage)
			}
			return err
		}

		if err := s.writeEntries(ctx, tx, t, user, b.Amount, cmd.UserDescription); err != nil {
			return err
		}
		return s.markCompleted(ctx, tx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return t, nil
}

func (s *Service) markCompleted(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	now := time.Now().UTC()
	if err := s.transactions.UpdateStatus(ctx, tx, t.ID, domain.TransactionStatusCompleted, nil, &now); err != nil {
		return fmt.Errorf("markCompleted: %w", err)
	}
	t.Status = domain.TransactionStatusCompleted
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

func (s *Service) markFailed(ctx context.Context, tx *sql.Tx, t *domain.Transaction, reason string) error {
	if err := s.transactions.UpdateStatus(ctx, tx, t.ID, domain.TransactionStatusFailed, &reason, nil); err != nil {
		return fmt.Errorf("markFailed: %w", err)
	}
	t.Status = domain.TransactionStatusFailed
	t.ErrorMessage = &reason
	t.UpdatedAt = time.Now().UTC()
	return nil
}
