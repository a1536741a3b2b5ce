package memory_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/identity/memory"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/internal/utils"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/stretchr/testify/require"
)

type isolationFixture struct {
	backend    *memory.Backend
	tenantA    *tenants.Tenant
	tenantB    *tenants.Tenant
	memberA    *memory.Client
	adminA     *memory.Client
	memberB    *memory.Client
	superAdmin *memory.Client
	anonymous  *memory.Client
}

func signedInClient(t *testing.T, b *memory.Backend, email, tenantID string, role tenants.Role) *memory.Client {
	t.Helper()
	meta := map[string]any{"role": string(role)}
	if tenantID != "" {
		meta["tenant_id"] = tenantID
	}
	_, err := b.SeedUser(email, "password123", meta, nil)
	require.NoError(t, err)
	c := b.NewClient(nil)
	_, err = c.SignInWithPassword(context.Background(), identity.Credentials{Email: email, Password: "password123"})
	require.NoError(t, err)
	return c
}

func setupIsolationFixture(t *testing.T) *isolationFixture {
	t.Helper()
	b := memory.NewBackend()
	f := &isolationFixture{backend: b}
	f.tenantA = b.SeedTenant("Tenant A")
	f.tenantB = b.SeedTenant("Tenant B")
	system := b.SeedTenant("System")
	f.memberA = signedInClient(t, b, "member.a@example.com", f.tenantA.ID, tenants.RoleMember)
	f.adminA = signedInClient(t, b, "admin.a@example.com", f.tenantA.ID, tenants.RoleAdmin)
	f.memberB = signedInClient(t, b, "member.b@example.com", f.tenantB.ID, tenants.RoleMember)
	f.superAdmin = signedInClient(t, b, "root@example.com", system.ID, tenants.RoleSuperAdmin)
	f.anonymous = b.NewClient(nil)
	return f
}

func TestTenantIsolation(t *testing.T) {
	f := setupIsolationFixture(t)
	ctx := context.Background()

	t.Run("members list only their tenant", func(t *testing.T) {
		list, err := f.memberA.Tenants().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, f.tenantA.ID, list[0].ID)
	})

	t.Run("members cannot read another tenant", func(t *testing.T) {
		_, err := f.memberA.Tenants().Get(ctx, f.tenantB.ID)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("super admin sees every tenant", func(t *testing.T) {
		list, err := f.superAdmin.Tenants().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
	})

	t.Run("anonymous sees nothing", func(t *testing.T) {
		list, err := f.anonymous.Tenants().List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("profiles are scoped to the tenant", func(t *testing.T) {
		list, err := f.memberA.Profiles().ListByTenant(ctx, f.tenantA.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)

		list, err = f.memberA.Profiles().ListByTenant(ctx, f.tenantB.ID)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("only admins update the tenant", func(t *testing.T) {
		_, err := f.memberA.Tenants().Update(ctx, f.tenantA.ID, tenants.TenantUpdate{Name: utils.Ptr("Renamed")})
		require.ErrorIs(t, err, apperrors.ErrUnauthorizedTenant)

		updated, err := f.adminA.Tenants().Update(ctx, f.tenantA.ID, tenants.TenantUpdate{Name: utils.Ptr("Renamed")})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Name)

		_, err = f.adminA.Tenants().Update(ctx, f.tenantB.ID, tenants.TenantUpdate{Name: utils.Ptr("Hijacked")})
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("role changes need an admin", func(t *testing.T) {
		memberA, err := f.memberA.Profiles().ListByTenant(ctx, f.tenantA.ID)
		require.NoError(t, err)
		var selfID string
		for _, p := range memberA {
			if p.Role == tenants.RoleMember {
				selfID = p.ID
			}
		}
		require.NotEmpty(t, selfID)

		admin := tenants.RoleAdmin
		_, err = f.memberA.Profiles().Update(ctx, selfID, tenants.ProfileUpdate{Role: &admin})
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)

		p, err := f.memberA.Profiles().Update(ctx, selfID, tenants.ProfileUpdate{DisplayName: utils.Ptr("Me")})
		require.NoError(t, err)
		require.Equal(t, "Me", p.DisplayName)

		viewer := tenants.RoleViewer
		p, err = f.adminA.Profiles().Update(ctx, selfID, tenants.ProfileUpdate{Role: &viewer})
		require.NoError(t, err)
		require.Equal(t, tenants.RoleViewer, p.Role)
	})
}

func TestTenantDeleteRules(t *testing.T) {
	f := setupIsolationFixture(t)
	ctx := context.Background()

	t.Run("anyone may create and delete an empty tenant", func(t *testing.T) {
		created, err := f.anonymous.Tenants().Create(ctx, &tenants.Tenant{Name: "Fresh"})
		require.NoError(t, err)
		require.True(t, f.backend.HasTenant(created.ID))

		require.NoError(t, f.anonymous.Tenants().Delete(ctx, created.ID))
		require.False(t, f.backend.HasTenant(created.ID))
	})

	t.Run("a tenant with members is protected", func(t *testing.T) {
		err := f.adminA.Tenants().Delete(ctx, f.tenantA.ID)
		require.ErrorIs(t, err, apperrors.ErrUnauthorizedTenant)
		require.True(t, f.backend.HasTenant(f.tenantA.ID))
	})

	t.Run("super admin may delete any tenant", func(t *testing.T) {
		require.NoError(t, f.superAdmin.Tenants().Delete(ctx, f.tenantB.ID))
		require.False(t, f.backend.HasTenant(f.tenantB.ID))
	})

	t.Run("create requires a name", func(t *testing.T) {
		_, err := f.anonymous.Tenants().Create(ctx, &tenants.Tenant{Name: "  "})
		require.True(t, apperrors.IsAuthError(err))
	})
}
