// Command seed bootstraps the asset catalog, the treasury account and two
// demo users, then prints bearer tokens for trying the API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/auth"
	"github.com/josh-kwaku/wallet-ledger/internal/config"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/service/wallet"
)

type assetSeed struct {
	symbol      string
	name        string
	description string
}

type userSeed struct {
	email string
	name  string
}

var (
	assets = []assetSeed{
		{"GOLD_COINS", "Gold Coins", "Primary in-game currency"},
		{"DIAMONDS", "Diamonds", "Premium currency"},
		{"LOYALTY_POINTS", "Loyalty Points", "Rewards for engagement"},
	}

	demoUsers = []userSeed{
		{"user1@example.com", "Alice Johnson"},
		{"user2@example.com", "Bob Smith"},
	}

	demoBalances = map[string]int64{
		"GOLD_COINS":     1000,
		"DIAMONDS":       500,
		"LOYALTY_POINTS": 5000,
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("wallet-seed", cfg.LogLevel, cfg.AppEnv)

	if err := run(cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := repository.Migrate(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}

	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	if err := seedAssets(ctx, assetRepo); err != nil {
		return err
	}

	if _, err := ensureUser(ctx, userRepo, &domain.User{
		ID:    cfg.SystemUserID,
		Email: "system@wallet-service.local",
		Name:  "System Treasury",
		Role:  domain.UserRoleSystem,
	}); err != nil {
		return err
	}

	svc := wallet.NewService(
		userRepo,
		assetRepo,
		repository.NewBalanceRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewUnitOfWork(db),
		cfg.SystemUserID,
	)
	if err := svc.VerifySystemAccount(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	operatorToken, err := auth.GenerateToken(auth.Principal{UserID: cfg.SystemUserID, Role: auth.RoleOperator}, cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	fmt.Printf("operator token: %s\n", operatorToken)

	for _, seed := range demoUsers {
		u, err := ensureUser(ctx, userRepo, &domain.User{
			ID:    uuid.New(),
			Email: seed.email,
			Name:  seed.name,
			Role:  domain.UserRoleUser,
		})
		if err != nil {
			return err
		}

		if err := creditDemoBalances(ctx, svc, u); err != nil {
			return err
		}

		token, err := auth.GenerateToken(auth.Principal{UserID: u.ID, Role: auth.RoleUser}, cfg.JWTSecret, cfg.JWTExpiry)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Printf("%s (%s) token: %s\n", u.Name, u.ID, token)
	}

	slog.Info("seed complete")
	return nil
}

func seedAssets(ctx context.Context, repo *repository.AssetRepository) error {
	now := time.Now().UTC()
	for _, a := range assets {
		desc := a.description
		created, err := repo.Create(ctx, &domain.AssetType{
			ID:          uuid.New(),
			Symbol:      a.symbol,
			Name:        a.name,
			Description: &desc,
			Status:      domain.AssetStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("seedAssets: %s: %w", a.symbol, err)
		}
		slog.Info("asset", "symbol", a.symbol, "created", created)
	}
	return nil
}

// ensureUser inserts u unless a user with the same email exists and
// returns the stored user either way.
func ensureUser(ctx context.Context, repo *repository.UserRepository, u *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	created, err := repo.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ensureUser: %s: %w", u.Email, err)
	}

	stored, err := repo.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, fmt.Errorf("ensureUser: %s: %w", u.Email, err)
	}
	slog.Info("user", "email", stored.Email, "id", stored.ID, "created", created)
	return stored, nil
}

// creditDemoBalances tops up through the engine with fixed keys, so
// rerunning the seed replays instead of crediting twice.
func creditDemoBalances(ctx context.Context, svc *wallet.Service, u *domain.User) error {
	for _, a := range assets {
		res, err := svc.Topup(ctx, wallet.TopupRequest{
			UserID:         u.ID,
			AssetSymbol:    a.symbol,
			Amount:         demoBalances[a.symbol],
			IdempotencyKey: fmt.Sprintf("seed-%s-%s", u.Email, a.symbol),
			Metadata:       domain.Metadata{"source": "seed"},
		})
		if err != nil {
			return fmt.Errorf("creditDemoBalances: %s %s: %w", u.Email, a.symbol, err)
		}
		slog.Info("demo balance", "email", u.Email, "asset", a.symbol, "replayed", res.Replayed)
	}
	return nil
}
