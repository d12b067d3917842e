package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/auth"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/service/wallet"
)

type mockWalletService struct {
	result    *wallet.Result
	view      *domain.BalanceView
	balance   int64
	balances  []domain.BalanceView
	txs       []domain.Transaction
	entries   []domain.LedgerEntry
	total     int
	tx        *domain.Transaction
	err       error
	gotTopup  wallet.TopupRequest
	gotSpend  wallet.SpendRequest
	gotBonus  wallet.BonusRequest
	gotPage   wallet.Page
	gotAsset  *uuid.UUID
	gotSymbol string
}

func (m *mockWalletService) Topup(_ context.Context, req wallet.TopupRequest) (*wallet.Result, error) {
	m.gotTopup = req
	return m.result, m.err
}

func (m *mockWalletService) Bonus(_ context.Context, req wallet.BonusRequest) (*wallet.Result, error) {
	m.gotBonus = req
	return m.result, m.err
}

func (m *mockWalletService) Spend(_ context.Context, req wallet.SpendRequest) (*wallet.Result, error) {
	m.gotSpend = req
	return m.result, m.err
}

func (m *mockWalletService) LockFunds(_ context.Context, _ wallet.FundsLockRequest) (*domain.BalanceView, error) {
	return m.view, m.err
}

func (m *mockWalletService) UnlockFunds(_ context.Context, _ wallet.FundsLockRequest) (*domain.BalanceView, error) {
	return m.view, m.err
}

func (m *mockWalletService) GetBalance(_ context.Context, _ uuid.UUID, symbol string) (int64, error) {
	m.gotSymbol = symbol
	return m.balance, m.err
}

func (m *mockWalletService) GetUserBalances(_ context.Context, _ uuid.UUID) ([]domain.BalanceView, error) {
	return m.balances, m.err
}

func (m *mockWalletService) GetTransactionHistory(_ context.Context, _ uuid.UUID, page wallet.Page) ([]domain.Transaction, int, error) {
	m.gotPage = page
	return m.txs, m.total, m.err
}

func (m *mockWalletService) GetLedgerEntries(_ context.Context, _ uuid.UUID, assetID *uuid.UUID, page wallet.Page) ([]domain.LedgerEntry, int, error) {
	m.gotPage = page
	m.gotAsset = assetID
	return m.entries, m.total, m.err
}

func (m *mockWalletService) GetTransaction(_ context.Context, _ uuid.UUID) (*domain.Transaction, []domain.LedgerEntry, error) {
	return m.tx, m.entries, m.err
}

var testLimits = PageLimits{HistoryDefault: 50, LedgerDefault: 100, Max: 500}

func newTestMux(h *WalletHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/wallet/topup", h.Topup)
	mux.HandleFunc("POST /api/v1/wallet/bonus", h.Bonus)
	mux.HandleFunc("POST /api/v1/wallet/spend", h.Spend)
	mux.HandleFunc("POST /api/v1/wallet/lock", h.Lock)
	mux.HandleFunc("POST /api/v1/wallet/unlock", h.Unlock)
	mux.HandleFunc("GET /api/v1/wallet/balance/{userId}/{assetSymbol}", h.GetBalance)
	mux.HandleFunc("GET /api/v1/wallet/balances/{userId}", h.GetBalances)
	mux.HandleFunc("GET /api/v1/wallet/transactions/{userId}", h.GetTransactions)
	mux.HandleFunc("GET /api/v1/wallet/ledger/{userId}", h.GetLedger)
	mux.HandleFunc("GET /api/v1/wallet/transactions/{id}/ledger", h.GetTransactionLedger)
	return mux
}

func doRequest(t *testing.T, mux http.Handler, p *auth.Principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if p != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func completedTx(userID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC()
	return &domain.Transaction{
		ID:             uuid.New(),
		FromUserID:     uuid.New(),
		ToUserID:       userID,
		AssetSymbol:    "GOLD_COINS",
		Type:           domain.TransactionTypeTopup,
		Amount:         100,
		Status:         domain.TransactionStatusCompleted,
		IdempotencyKey: "k1",
		CreatedAt:      now,
		UpdatedAt:      now,
		CompletedAt:    &now,
	}
}

func TestWalletCommands(t *testing.T) {
	userID := uuid.New()
	operator := &auth.Principal{UserID: uuid.New(), Role: auth.RoleOperator}
	owner := &auth.Principal{UserID: userID, Role: auth.RoleUser}
	stranger := &auth.Principal{UserID: uuid.New(), Role: auth.RoleUser}

	body := map[string]any{
		"userId":         userID.String(),
		"assetSymbol":    "GOLD_COINS",
		"amount":         100,
		"idempotencyKey": "k1",
	}
	declinedTx := completedTx(userID)
	declinedTx.Status = domain.TransactionStatusFailed

	tests := []struct {
		name         string
		path         string
		principal    *auth.Principal
		body         any
		result       *wallet.Result
		svcErr       error
		wantStatus   int
		wantCode     string
		wantReplayed bool
	}{
		{
			name:       "operator topup",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       body,
			result:     &wallet.Result{Transaction: completedTx(userID)},
			wantStatus: http.StatusCreated,
		},
		{
			name:         "topup replay",
			path:         "/api/v1/wallet/topup",
			principal:    operator,
			body:         body,
			result:       &wallet.Result{Transaction: completedTx(userID), Replayed: true},
			wantStatus:   http.StatusOK,
			wantReplayed: true,
		},
		{
			name:       "user cannot topup",
			path:       "/api/v1/wallet/topup",
			principal:  owner,
			body:       body,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "unauthenticated bonus",
			path:       "/api/v1/wallet/bonus",
			body:       body,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "owner spends",
			path:       "/api/v1/wallet/spend",
			principal:  owner,
			body:       body,
			result:     &wallet.Result{Transaction: completedTx(userID)},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "stranger cannot spend",
			path:       "/api/v1/wallet/spend",
			principal:  stranger,
			body:       body,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "declined spend",
			path:       "/api/v1/wallet/spend",
			principal:  owner,
			body:       body,
			svcErr:     &domain.DeclinedError{Transaction: declinedTx, Err: domain.ErrInsufficientFunds},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_FUNDS",
		},
		{
			name:       "key conflict",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       body,
			svcErr:     domain.ErrIdempotencyConflict,
			wantStatus: http.StatusConflict,
			wantCode:   "IDEMPOTENCY_CONFLICT",
		},
		{
			name:       "inactive asset",
			path:       "/api/v1/wallet/bonus",
			principal:  operator,
			body:       body,
			svcErr:     domain.ErrAssetInactive,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "ASSET_INACTIVE",
		},
		{
			name:       "balance overflow",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       body,
			svcErr:     domain.ErrBalanceOverflow,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "BALANCE_OVERFLOW",
		},
		{
			name:       "unknown user",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       body,
			svcErr:     domain.ErrUserNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
		{
			name:       "infrastructure failure",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       body,
			svcErr:     errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "validation failure",
			path:       "/api/v1/wallet/topup",
			principal:  operator,
			body:       map[string]any{"userId": "not-a-uuid", "amount": 0},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "malformed json",
			path:       "/api/v1/wallet/spend",
			principal:  owner,
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockWalletService{result: tc.result, err: tc.svcErr}
			mux := newTestMux(NewWalletHandler(svc, testLimits))

			rec := doRequest(t, mux, tc.principal, http.MethodPost, tc.path, tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantReplayed {
				assert.Equal(t, "true", rec.Header().Get(ReplayedHeader))
			} else {
				assert.Empty(t, rec.Header().Get(ReplayedHeader))
			}

			resp := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.True(t, resp.Success)
		})
	}
}

func TestSpend_DeclineCarriesTransactionID(t *testing.T) {
	userID := uuid.New()
	tx := completedTx(userID)
	tx.Status = domain.TransactionStatusFailed
	svc := &mockWalletService{err: &domain.DeclinedError{Transaction: tx, Err: domain.ErrInsufficientFunds}}
	mux := newTestMux(NewWalletHandler(svc, testLimits))

	rec := doRequest(t, mux, &auth.Principal{UserID: userID, Role: auth.RoleUser}, http.MethodPost, "/api/v1/wallet/spend", map[string]any{
		"userId":         userID.String(),
		"assetSymbol":    "GOLD_COINS",
		"amount":         1500,
		"idempotencyKey": "s1",
		"description":    "sword",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, tx.ID.String(), details["transactionId"])
	assert.Equal(t, "FAILED", details["status"])
	assert.Equal(t, "sword", svc.gotSpend.Description)
}

func TestBonus_PassesReason(t *testing.T) {
	userID := uuid.New()
	svc := &mockWalletService{result: &wallet.Result{Transaction: completedTx(userID)}}
	mux := newTestMux(NewWalletHandler(svc, testLimits))

	rec := doRequest(t, mux, &auth.Principal{UserID: uuid.New(), Role: auth.RoleOperator}, http.MethodPost, "/api/v1/wallet/bonus", map[string]any{
		"userId":         userID.String(),
		"assetSymbol":    "DIAMONDS",
		"amount":         5,
		"idempotencyKey": "b1",
		"reason":         "referral",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "referral", svc.gotBonus.Reason)
	assert.Equal(t, userID, svc.gotBonus.UserID)
}

func TestBonus_ReasonMustFitLedgerDescription(t *testing.T) {
	userID := uuid.New()
	operator := &auth.Principal{UserID: uuid.New(), Role: auth.RoleOperator}

	tests := []struct {
		name     string
		reason   string
		wantCode int
	}{
		{name: "longest accepted reason", reason: strings.Repeat("x", 493), wantCode: http.StatusCreated},
		{name: "one character over", reason: strings.Repeat("x", 494), wantCode: http.StatusBadRequest},
		{name: "500 characters", reason: strings.Repeat("x", 500), wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWalletService{result: &wallet.Result{Transaction: completedTx(userID)}}
			mux := newTestMux(NewWalletHandler(svc, testLimits))

			rec := doRequest(t, mux, operator, http.MethodPost, "/api/v1/wallet/bonus", map[string]any{
				"userId":         userID.String(),
				"assetSymbol":    "DIAMONDS",
				"amount":         5,
				"idempotencyKey": "b-long",
				"reason":         tt.reason,
			})

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusBadRequest {
				resp := decodeResponse(t, rec)
				require.NotNil(t, resp.Error)
				assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
				assert.Empty(t, svc.gotBonus.Reason)
			}
		})
	}
}

func TestValidationFieldNames(t *testing.T) {
	fields := creditRequest{UserID: "x", Amount: -1}.Validate()

	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid UUID", got["userId"])
	assert.Equal(t, "required", got["assetSymbol"])
	assert.Equal(t, "must be greater than 0", got["amount"])
	assert.Equal(t, "required", got["idempotencyKey"])
}

func TestLockFunds(t *testing.T) {
	userID := uuid.New()
	view := &domain.BalanceView{
		Balance:       domain.Balance{UserID: userID, Amount: 1050, LockedAmount: 50},
		AssetSymbol:   "GOLD_COINS",
		AssetDecimals: 2,
	}
	svc := &mockWalletService{view: view}
	mux := newTestMux(NewWalletHandler(svc, testLimits))

	rec := doRequest(t, mux, &auth.Principal{UserID: uuid.New(), Role: auth.RoleOperator}, http.MethodPost, "/api/v1/wallet/lock", map[string]any{
		"userId":      userID.String(),
		"assetSymbol": "GOLD_COINS",
		"amount":      50,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1000), data["availableAmount"])
	assert.Equal(t, "10.5", data["displayAmount"])
}

func TestWalletQueries(t *testing.T) {
	userID := uuid.New()
	owner := &auth.Principal{UserID: userID, Role: auth.RoleUser}

	t.Run("balance of own wallet", func(t *testing.T) {
		svc := &mockWalletService{balance: 700}
		mux := newTestMux(NewWalletHandler(svc, testLimits))

		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/balance/"+userID.String()+"/GOLD_COINS", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, float64(700), data["balance"])
		assert.Equal(t, "GOLD_COINS", svc.gotSymbol)
	})

	t.Run("balance of another wallet", func(t *testing.T) {
		mux := newTestMux(NewWalletHandler(&mockWalletService{}, testLimits))
		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/balance/"+uuid.NewString()+"/GOLD_COINS", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown asset", func(t *testing.T) {
		svc := &mockWalletService{err: domain.ErrAssetNotFound}
		mux := newTestMux(NewWalletHandler(svc, testLimits))
		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/balance/"+userID.String()+"/NOPE", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "ASSET_NOT_FOUND", decodeResponse(t, rec).Error.Code)
	})

	t.Run("history defaults and caps limit", func(t *testing.T) {
		svc := &mockWalletService{txs: []domain.Transaction{*completedTx(userID)}, total: 1}
		mux := newTestMux(NewWalletHandler(svc, testLimits))

		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/transactions/"+userID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wallet.Page{Limit: 50}, svc.gotPage)

		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, float64(1), data["total"])
		assert.Len(t, data["items"], 1)

		rec = doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/transactions/"+userID.String()+"?limit=10000&offset=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wallet.Page{Limit: 500, Offset: 5}, svc.gotPage)
	})

	t.Run("history rejects bad paging", func(t *testing.T) {
		mux := newTestMux(NewWalletHandler(&mockWalletService{}, testLimits))
		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/transactions/"+userID.String()+"?limit=abc&offset=-1", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeResponse(t, rec).Error.Code)
	})

	t.Run("ledger with asset filter", func(t *testing.T) {
		assetID := uuid.New()
		svc := &mockWalletService{}
		mux := newTestMux(NewWalletHandler(svc, testLimits))

		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/ledger/"+userID.String()+"?assetId="+assetID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotAsset)
		assert.Equal(t, assetID, *svc.gotAsset)
		assert.Equal(t, 100, svc.gotPage.Limit)

		rec = doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/ledger/"+userID.String()+"?assetId=bad", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("transaction ledger hidden from non-party", func(t *testing.T) {
		svc := &mockWalletService{tx: completedTx(uuid.New())}
		mux := newTestMux(NewWalletHandler(svc, testLimits))

		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/transactions/"+uuid.NewString()+"/ledger", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "TRANSACTION_NOT_FOUND", decodeResponse(t, rec).Error.Code)
	})

	t.Run("transaction ledger for party", func(t *testing.T) {
		tx := completedTx(userID)
		svc := &mockWalletService{tx: tx, entries: []domain.LedgerEntry{
			{ID: uuid.New(), TransactionID: tx.ID, Direction: domain.DirectionDebit, Amount: 100},
			{ID: uuid.New(), TransactionID: tx.ID, Direction: domain.DirectionCredit, Amount: 100},
		}}
		mux := newTestMux(NewWalletHandler(svc, testLimits))

		rec := doRequest(t, mux, owner, http.MethodGet, "/api/v1/wallet/transactions/"+tx.ID.String()+"/ledger", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Len(t, data["entries"], 2)
	})
}
