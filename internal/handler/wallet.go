package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/service/wallet"
)

// ReplayedHeader marks a response served from a previously stored transaction.
const ReplayedHeader = "X-Idempotent-Replayed"

type walletService interface {
	Topup(ctx context.Context, req wallet.TopupRequest) (*wallet.Result, error)
	Bonus(ctx context.Context, req wallet.BonusRequest) (*wallet.Result, error)
	Spend(ctx context.Context, req wallet.SpendRequest) (*wallet.Result, error)
	LockFunds(ctx context.Context, req wallet.FundsLockRequest) (*domain.BalanceView, error)
	UnlockFunds(ctx context.Context, req wallet.FundsLockRequest) (*domain.BalanceView, error)
	GetBalance(ctx context.Context, userID uuid.UUID, assetSymbol string) (int64, error)
	GetUserBalances(ctx context.Context, userID uuid.UUID) ([]domain.BalanceView, error)
	GetTransactionHistory(ctx context.Context, userID uuid.UUID, page wallet.Page) ([]domain.Transaction, int, error)
	GetLedgerEntries(ctx context.Context, userID uuid.UUID, assetID *uuid.UUID, page wallet.Page) ([]domain.LedgerEntry, int, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.LedgerEntry, error)
}

// PageLimits bounds the limit query parameter of list endpoints.
type PageLimits struct {
	HistoryDefault int
	LedgerDefault  int
	Max            int
}

type WalletHandler struct {
	wallet walletService
	limits PageLimits
}

func NewWalletHandler(svc walletService, limits PageLimits) *WalletHandler {
	return &WalletHandler{wallet: svc, limits: limits}
}

type creditRequest struct {
	UserID         string          `json:"userId" validate:"required,uuid"`
	AssetSymbol    string          `json:"assetSymbol" validate:"required,max=100"`
	Amount         int64           `json:"amount" validate:"gt=0"`
	IdempotencyKey string          `json:"idempotencyKey" validate:"required,max=255"`
	Metadata       domain.Metadata `json:"metadata"`
	Reason         string          `json:"reason" validate:"max=493"`
}

func (r creditRequest) Validate() []FieldError {
	return validateStruct(r)
}

type spendRequest struct {
	UserID         string `json:"userId" validate:"required,uuid"`
	AssetSymbol    string `json:"assetSymbol" validate:"required,max=100"`
	Amount         int64  `json:"amount" validate:"gt=0"`
	IdempotencyKey string `json:"idempotencyKey" validate:"required,max=255"`
	Description    string `json:"description" validate:"max=500"`
}

func (r spendRequest) Validate() []FieldError {
	return validateStruct(r)
}

type fundsLockRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	AssetSymbol string `json:"assetSymbol" validate:"required,max=100"`
	Amount      int64  `json:"amount" validate:"gt=0"`
}

func (r fundsLockRequest) Validate() []FieldError {
	return validateStruct(r)
}

type validatable interface {
	Validate() []FieldError
}

// decode reads and validates a JSON body. It writes the error response
// itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return false
	}
	if fields := dst.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return false
	}
	return true
}

func respondResult(w http.ResponseWriter, res *wallet.Result) {
	if res.Replayed {
		w.Header().Set(ReplayedHeader, "true")
		RespondSuccess(w, http.StatusOK, toTransactionDTO(res.Transaction))
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(res.Transaction))
}

func (h *WalletHandler) Topup(w http.ResponseWriter, r *http.Request) {
	if appErr := requireOperator(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req creditRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.wallet.Topup(r.Context(), wallet.TopupRequest{
		UserID:         uuid.MustParse(req.UserID),
		AssetSymbol:    req.AssetSymbol,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("topup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	respondResult(w, res)
}

func (h *WalletHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	if appErr := requireOperator(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req creditRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.wallet.Bonus(r.Context(), wallet.BonusRequest{
		UserID:         uuid.MustParse(req.UserID),
		AssetSymbol:    req.AssetSymbol,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Reason:         req.Reason,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("bonus failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	respondResult(w, res)
}

func (h *WalletHandler) Spend(w http.ResponseWriter, r *http.Request) {
	var req spendRequest
	if !decode(w, r, &req) {
		return
	}

	userID := uuid.MustParse(req.UserID)
	if appErr := requireActor(r, userID); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	res, err := h.wallet.Spend(r.Context(), wallet.SpendRequest{
		UserID:         userID,
		AssetSymbol:    req.AssetSymbol,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("spend failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	respondResult(w, res)
}

func (h *WalletHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.adjustLock(w, r, h.wallet.LockFunds)
}

func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.adjustLock(w, r, h.wallet.UnlockFunds)
}

func (h *WalletHandler) adjustLock(w http.ResponseWriter, r *http.Request, op func(context.Context, wallet.FundsLockRequest) (*domain.BalanceView, error)) {
	if appErr := requireOperator(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req fundsLockRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := op(r.Context(), wallet.FundsLockRequest{
		UserID:      uuid.MustParse(req.UserID),
		AssetSymbol: req.AssetSymbol,
		Amount:      req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("funds lock adjustment failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBalanceDTO(view))
}

func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	symbol := r.PathValue("assetSymbol")

	balance, err := h.wallet.GetBalance(r.Context(), userID, symbol)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"userId":      userID,
		"assetSymbol": symbol,
		"balance":     balance,
	})
}

func (h *WalletHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	views, err := h.wallet.GetUserBalances(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list balances", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]balanceDTO, 0, len(views))
	for i := range views {
		dtos = append(dtos, toBalanceDTO(&views[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	page, fields := h.parsePage(r, h.limits.HistoryDefault)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txs, total, err := h.wallet.GetTransactionHistory(r.Context(), userID, page)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	items := make([]transactionDTO, 0, len(txs))
	for i := range txs {
		items = append(items, toTransactionDTO(&txs[i]))
	}
	RespondSuccess(w, http.StatusOK, pageDTO[transactionDTO]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

func (h *WalletHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	page, fields := h.parsePage(r, h.limits.LedgerDefault)

	var assetID *uuid.UUID
	if raw := r.URL.Query().Get("assetId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: "assetId", Message: "must be a valid UUID"})
		} else {
			assetID = &id
		}
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entries, total, err := h.wallet.GetLedgerEntries(r.Context(), userID, assetID, page)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list ledger entries", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, pageDTO[ledgerEntryDTO]{Items: toLedgerEntryDTOs(entries), Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GetTransactionLedger returns a transaction with its double-entry pair.
// A user principal only sees transactions it is party to.
func (h *WalletHandler) GetTransactionLedger(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrTransactionNotFound, nil)
		return
	}

	tx, entries, err := h.wallet.GetTransaction(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	if !p.CanActFor(tx.FromUserID) && !p.CanActFor(tx.ToUserID) {
		RespondAppError(w, ErrTransactionNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transaction": toTransactionDTO(tx),
		"entries":     toLedgerEntryDTOs(entries),
	})
}

func (h *WalletHandler) parsePage(r *http.Request, defaultLimit int) (wallet.Page, []FieldError) {
	page := wallet.Page{Limit: defaultLimit}
	var fields []FieldError

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a positive integer"})
		} else {
			page.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			page.Offset = n
		}
	}

	if h.limits.Max > 0 && page.Limit > h.limits.Max {
		page.Limit = h.limits.Max
	}
	return page, fields
}
