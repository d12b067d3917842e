package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/wallet-ledger/api"
	"github.com/josh-kwaku/wallet-ledger/internal/config"
	"github.com/josh-kwaku/wallet-ledger/internal/handler"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/middleware"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/service/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("wallet-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := repository.Migrate(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "dir", cfg.MigrationsDir)
	}

	users := repository.NewUserRepository(db)
	walletSvc := wallet.NewService(
		users,
		repository.NewAssetRepository(db),
		repository.NewBalanceRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewUnitOfWork(db),
		cfg.SystemUserID,
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	err = walletSvc.VerifySystemAccount(startupCtx)
	cancelStartup()
	if err != nil {
		slog.Error("system account check failed", "error", err, "system_user_id", cfg.SystemUserID)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, db, walletSvc, users),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "system_user_id", cfg.SystemUserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newRouter(cfg *config.Config, db *sql.DB, walletSvc *wallet.Service, users *repository.UserRepository) http.Handler {
	walletHandler := handler.NewWalletHandler(walletSvc, handler.PageLimits{
		HistoryDefault: cfg.HistoryDefaultLimit,
		LedgerDefault:  cfg.LedgerDefaultLimit,
		Max:            cfg.MaxPageLimit,
	})
	userHandler := handler.NewUserHandler(users)
	healthHandler := handler.NewHealthHandler(db, walletSvc.VerifySystemAccount)

	v1 := http.NewServeMux()
	v1.HandleFunc("POST /api/v1/wallet/topup", walletHandler.Topup)
	v1.HandleFunc("POST /api/v1/wallet/bonus", walletHandler.Bonus)
	v1.HandleFunc("POST /api/v1/wallet/spend", walletHandler.Spend)
	v1.HandleFunc("POST /api/v1/wallet/lock", walletHandler.Lock)
	v1.HandleFunc("POST /api/v1/wallet/unlock", walletHandler.Unlock)
	v1.HandleFunc("GET /api/v1/wallet/balance/{userId}/{assetSymbol}", walletHandler.GetBalance)
	v1.HandleFunc("GET /api/v1/wallet/balances/{userId}", walletHandler.GetBalances)
	v1.HandleFunc("GET /api/v1/wallet/transactions/{userId}", walletHandler.GetTransactions)
	v1.HandleFunc("GET /api/v1/wallet/ledger/{userId}", walletHandler.GetLedger)
	v1.HandleFunc("GET /api/v1/wallet/transactions/{id}/ledger", walletHandler.GetTransactionLedger)
	v1.HandleFunc("GET /api/v1/users", userHandler.List)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs(handler.DocsPage{
		Title:   "Wallet Ledger API Documentation",
		SpecURL: "/docs/openapi.yaml",
	}))
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.Spec))
	mux.Handle("/api/v1/", middleware.Chain(v1, middleware.Auth(cfg.JWTSecret), middleware.Logging))

	return middleware.Chain(mux,
		middleware.Tracing,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Recovery,
	)
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var db *sql.DB
		db, err = repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
