package server_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-tenant-console/auth"
	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/identity/memory"
	"github.com/jrsteele09/go-tenant-console/internal/config"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/internal/metrics"
	"github.com/jrsteele09/go-tenant-console/server"
	"github.com/jrsteele09/go-tenant-console/storage/memstore"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/jrsteele09/go-tenant-console/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "owner@acme.test"
	testPassword = "password123"
)

type testConfig struct {
	config.EnvVars
	config.Cors
}

// testFixture holds all test dependencies
type testFixture struct {
	backend *memory.Backend
	tenant  *tenants.Tenant
	orch    *auth.Orchestrator
	srv     *server.Server
}

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	backend := memory.NewBackend()
	tenant := backend.SeedTenant("Acme")
	_, err := backend.SeedUser(testEmail, testPassword, map[string]any{"tenant_id": tenant.ID, "role": "admin"}, nil)
	require.NoError(t, err)

	local := memstore.New()
	registry := prometheus.NewRegistry()
	orch, err := auth.New(auth.Deps{
		Identity: identity.NewProvider(&config.Backend{URL: "http://localhost:54321", AnonKey: "anon-key"}, backend.Factory(local)),
		Profile:  users.NewProfileStore(),
		Tenants:  tenants.NewStore(ctx, local),
		Local:    local,
	}, auth.WithMetrics(metrics.New(registry)))
	require.NoError(t, err)

	cfg := testConfig{
		EnvVars: config.EnvVars{Env: "TEST"},
		Cors:    config.Cors{Origins: []string{"http://localhost:5173"}},
	}
	srv, err := server.New(cfg, orch, server.WithGatherer(registry))
	require.NoError(t, err)

	return &testFixture{backend: backend, tenant: tenant, orch: orch, srv: srv}
}

func (f *testFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (f *testFixture) signIn(t *testing.T) {
	t.Helper()
	rec, _ := f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := server.New(nil, nil)
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := setupTestFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestSignInAndOut(t *testing.T) {
	f := setupTestFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeData[server.SessionView](t, env).Authenticated)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec, env = f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail, "password": testPassword, "remember_me": true})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[server.SessionView](t, env)
	require.True(t, view.Authenticated)
	require.False(t, view.Expired)
	require.Equal(t, f.tenant.ID, view.TenantID)
	require.NotContains(t, rec.Body.String(), "access_token")

	rec, env = f.do(t, http.MethodPost, "/api/signout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeData[server.SessionView](t, env).Authenticated)
}

func TestSignInErrors(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("invalid credentials", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail, "password": "nope-nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "INVALID_CREDENTIALS", env.Code)
		require.Equal(t, "error", env.Status)
	})

	t.Run("missing password", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "VALIDATION_ERROR", env.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail, "password": testPassword, "mfa": "123"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("backend unreachable", func(t *testing.T) {
		f.backend.FailNext(memory.OpSignIn, &apperrors.TransportError{Op: "signIn", Err: errors.New("connection refused")})
		rec, env := f.do(t, http.MethodPost, "/api/signin", map[string]any{"email": testEmail, "password": testPassword})
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, "BACKEND_UNAVAILABLE", env.Code)
	})
}

func TestRegister(t *testing.T) {
	body := map[string]any{"email": "new@globex.test", "password": "Abc12345", "tenant_name": "Globex"}

	t.Run("created", func(t *testing.T) {
		f := setupTestFixture(t)
		rec, env := f.do(t, http.MethodPost, "/api/register", body)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, auth.MessageRegistrationReady, env.Message)
		require.True(t, f.orch.IsAuthenticated())
	})

	t.Run("email taken", func(t *testing.T) {
		f := setupTestFixture(t)
		before := f.backend.TenantCount()
		rec, env := f.do(t, http.MethodPost, "/api/register", map[string]any{"email": testEmail, "password": "Abc12345", "tenant_name": "Globex"})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "EMAIL_TAKEN", env.Code)
		require.Equal(t, before, f.backend.TenantCount())
	})

	t.Run("rollback failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.FailNext(memory.OpSignUp, &apperrors.AuthError{Op: "signUp", Message: "signups disabled"})
		f.backend.FailNext(memory.OpTenantDelete, errors.New("delete failed"))
		rec, env := f.do(t, http.MethodPost, "/api/register", body)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "COMPENSATION_FAILED", env.Code)
	})

	t.Run("missing tenant name", func(t *testing.T) {
		f := setupTestFixture(t)
		rec, _ := f.do(t, http.MethodPost, "/api/register", map[string]any{"email": "a@b.test", "password": "Abc12345"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "NO_SESSION", env.Code)

	f.signIn(t)
	rec, env = f.do(t, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeData[server.SessionView](t, env).Authenticated)
}

func TestResetPassword(t *testing.T) {
	f := setupTestFixture(t)
	rec, env := f.do(t, http.MethodPost, "/api/reset-password", map[string]any{"email": testEmail})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, auth.MessagePasswordReset, env.Message)
	require.Equal(t, []string{testEmail}, f.backend.PasswordResets())
}

func TestTenants(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t)

	rec, env := f.do(t, http.MethodGet, "/api/tenants?sync=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeData[struct {
		CurrentTenantID string           `json:"current_tenant_id"`
		Tenants         []tenants.Tenant `json:"tenants"`
	}](t, env)
	require.Equal(t, f.tenant.ID, list.CurrentTenantID)
	require.Len(t, list.Tenants, 1)

	rec, env = f.do(t, http.MethodPut, "/api/tenants/current", map[string]any{"tenant_id": "unknown"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "UNKNOWN_TENANT", env.Code)

	rec, env = f.do(t, http.MethodPut, "/api/tenants/current", map[string]any{"tenant_id": f.tenant.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	tc := decodeData[auth.TenantContext](t, env)
	require.Equal(t, "Acme", tc.CurrentTenant.Name)
	require.Equal(t, tenants.RoleAdmin, tc.CurrentUserRole)
	require.False(t, tc.IsSuperAdmin)

	rec, env = f.do(t, http.MethodGet, "/api/tenants/"+f.tenant.ID+"/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members := decodeData[struct {
		Users []tenants.Profile `json:"users"`
	}](t, env)
	require.Len(t, members.Users, 1)
}

func TestTenantUsersRequireSession(t *testing.T) {
	f := setupTestFixture(t)
	rec, env := f.do(t, http.MethodGet, "/api/tenants/"+f.tenant.ID+"/users", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "NO_SESSION", env.Code)
}

func TestTenantContextSignedOut(t *testing.T) {
	f := setupTestFixture(t)
	rec, env := f.do(t, http.MethodGet, "/api/tenant-context", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tc := decodeData[auth.TenantContext](t, env)
	require.Equal(t, tenants.DefaultTenantID, tc.CurrentTenant.ID)
	require.Empty(t, tc.CurrentUserRole)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/signin", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCompression(t *testing.T) {
	f := setupTestFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"authenticated":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t)

	rec, _ := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `console_auth_call_total{method="signIn"} 1`)
}

func TestRoutes(t *testing.T) {
	f := setupTestFixture(t)
	routes := f.srv.Routes()
	require.Contains(t, routes, "POST /api/signin")
	require.Contains(t, routes, "PUT /api/tenants/current")
	require.Contains(t, routes, "GET /metrics")
}
