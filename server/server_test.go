package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/invite-rooms/invites"
)

const testToken = "test-admin-token"

func newTestMux(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if deps.Ledger == nil {
		deps.Ledger = invites.NewLedger(invites.NewMemoryStore())
	}
	return NewMux(ctx, adminOptions("", "", testToken), deps)
}

func do(t *testing.T, h http.Handler, method, target string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if admin {
		req.Header.Set("X-Admin-Token", testToken)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestHealthzWithoutDatabase(t *testing.T) {
	rr := do(t, newTestMux(t, Deps{}), http.MethodGet, "/healthz", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestHealthzDatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	rr := do(t, newTestMux(t, Deps{DB: db}), http.MethodGet, "/healthz", false)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrelationHeaderIsReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rr := httptest.NewRecorder()
	newTestMux(t, Deps{}).ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Correlation-ID"))
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		gatewayUp  bool
		wantStatus int
		wantFailed string
	}{
		{name: "ready", gatewayUp: true, wantStatus: http.StatusOK},
		{name: "database down", pingErr: errors.New("no route"), gatewayUp: true, wantStatus: http.StatusServiceUnavailable, wantFailed: "database"},
		{name: "gateway down", gatewayUp: false, wantStatus: http.StatusServiceUnavailable, wantFailed: "gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			ping := mock.ExpectPing()
			if tt.pingErr != nil {
				ping.WillReturnError(tt.pingErr)
			}

			up := tt.gatewayUp
			rr := do(t, newTestMux(t, Deps{DB: db, GatewayUp: func() bool { return up }}), http.MethodGet, "/readyz", false)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			body := decode(t, rr)
			if tt.wantFailed == "" {
				assert.Equal(t, "ready", body["status"])
				return
			}
			assert.Equal(t, "not_ready", body["status"])
			assert.Equal(t, tt.wantFailed, body["failed_check"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestMux(t, Deps{}), http.MethodGet, "/metrics", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestAdminInvitesRequiresAuth(t *testing.T) {
	rr := do(t, newTestMux(t, Deps{}), http.MethodGet, "/admin/invites?guild_id=g1&user_id=u1", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminInvitesQuery(t *testing.T) {
	ctx := context.Background()
	ledger := invites.NewLedger(invites.NewMemoryStore())
	_, err := ledger.RecordJoin(ctx, "g1", "inviter", "joiner-a")
	require.NoError(t, err)
	_, err = ledger.RecordJoin(ctx, "g1", "inviter", "joiner-b")
	require.NoError(t, err)
	h := newTestMux(t, Deps{Ledger: ledger})

	rr := do(t, h, http.MethodGet, "/admin/invites?guild_id=g1&user_id=inviter", true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, float64(2), body["invite_count"])
	assert.Equal(t, []any{"joiner-a", "joiner-b"}, body["invited_users"])

	rr = do(t, h, http.MethodGet, "/admin/invites?guild_id=g1&user_id=nobody", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/admin/invites?guild_id=g1", true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/admin/invites?guild_id=g1&user_id=inviter", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdminInvitesReset(t *testing.T) {
	ctx := context.Background()
	ledger := invites.NewLedger(invites.NewMemoryStore())
	_, err := ledger.RecordJoin(ctx, "g1", "a", "x")
	require.NoError(t, err)
	_, err = ledger.RecordJoin(ctx, "g1", "b", "y")
	require.NoError(t, err)
	_, err = ledger.RecordJoin(ctx, "g2", "a", "z")
	require.NoError(t, err)
	h := newTestMux(t, Deps{Ledger: ledger})

	rr := do(t, h, http.MethodGet, "/admin/invites/reset?guild_id=g1", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, h, http.MethodPost, "/admin/invites/reset?guild_id=g1", true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, float64(2), decode(t, rr)["deleted"])

	_, err = ledger.Query(ctx, "g1", "a")
	assert.ErrorIs(t, err, invites.ErrNoInvites)
	rec, err := ledger.Query(ctx, "g2", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.InviteCount)
}
