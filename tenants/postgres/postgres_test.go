package postgres_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/internal/utils"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/jrsteele09/go-tenant-console/tenants/postgres"
	"github.com/stretchr/testify/require"
)

func TestClaimsJSON(t *testing.T) {
	role, claims, err := postgres.ClaimsJSON(nil)
	require.NoError(t, err)
	require.Equal(t, "anon", role)
	require.JSONEq(t, `{"role":"anon"}`, claims)

	role, claims, err = postgres.ClaimsJSON(&sessions.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		Role:             "authenticated",
		UserMetadata:     map[string]any{"tenant_id": "tenant-1"},
	})
	require.NoError(t, err)
	require.Equal(t, "authenticated", role)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(claims), &decoded))
	require.Equal(t, "user-1", decoded["sub"])
	require.Equal(t, map[string]any{"tenant_id": "tenant-1"}, decoded["user_metadata"])
}

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	return pool
}

func TestTenantRepo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repo := postgres.NewTenantRepo(pool, nil, postgres.WithoutRoleSwitch())

	name := "Acme " + uuid.NewString()
	created, err := repo.Create(ctx, &tenants.Tenant{Name: name})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), created.ID) })

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, name, got.Name)
	require.Empty(t, got.Domain)

	updated, err := repo.Update(ctx, created.ID, tenants.TenantUpdate{Domain: utils.Ptr("acme.test")})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, "acme.test", updated.Domain)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProfileRepo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	tenantRepo := postgres.NewTenantRepo(pool, nil, postgres.WithoutRoleSwitch())
	repo := postgres.NewProfileRepo(pool, nil, postgres.WithoutRoleSwitch())

	tenant, err := tenantRepo.Create(ctx, &tenants.Tenant{Name: "Profiles " + uuid.NewString()})
	require.NoError(t, err)
	userID := uuid.NewString()
	_, err = pool.Exec(ctx, "insert into profiles (id, tenant_id, role) values ($1, $2, 'member')", userID, tenant.ID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "delete from profiles where id = $1", userID)
		_ = tenantRepo.Delete(context.Background(), tenant.ID)
	})

	admin := tenants.RoleAdmin
	p, err := repo.Update(ctx, userID, tenants.ProfileUpdate{DisplayName: utils.Ptr("Jane"), Role: &admin})
	require.NoError(t, err)
	require.Equal(t, "Jane", p.DisplayName)
	require.Equal(t, tenants.RoleAdmin, p.Role)

	list, err := repo.ListByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}
