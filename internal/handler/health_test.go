package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		systemErr  error
		wantStatus int
		wantChecks map[string]any
	}{
		{
			name:       "ready",
			wantStatus: http.StatusOK,
			wantChecks: map[string]any{"database": "ok", "system_account": "ok"},
		},
		{
			name:       "database down",
			pingErr:    errors.New("dial tcp: refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]any{"database": "down", "system_account": "unknown"},
		},
		{
			name:       "system account missing",
			systemErr:  domain.ErrSystemAccountMissing,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]any{"database": "ok", "system_account": "down"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(fakePinger{tc.pingErr}, func(context.Context) error { return tc.systemErr })
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.wantChecks, body["checks"])
		})
	}
}
