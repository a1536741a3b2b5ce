package tenants_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/storage/memstore"
	"github.com/jrsteele09/go-tenant-console/tenants"
	tenantrepofakes "github.com/jrsteele09/go-tenant-console/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

var (
	tenantA = tenants.Tenant{ID: "tenant-a", Name: "Tenant A"}
	tenantB = tenants.Tenant{ID: "tenant-b", Name: "Tenant B"}
)

func persistedTenant(t *testing.T, local storage.Store) string {
	t.Helper()
	var id string
	found, err := local.GetItem(context.Background(), storage.KeyCurrentTenantID, &id)
	require.NoError(t, err)
	require.True(t, found)
	return id
}

func TestStore_Defaults(t *testing.T) {
	s := tenants.NewStore(context.Background(), memstore.New())

	require.Equal(t, tenants.DefaultTenantID, s.CurrentTenantID())
	require.Equal(t, tenants.DefaultTenant(), s.CurrentTenant())
	require.Equal(t, []tenants.Tenant{tenants.DefaultTenant()}, s.Tenants())
}

func TestStore_SetCurrentTenant(t *testing.T) {
	ctx := context.Background()
	local := memstore.New()
	s := tenants.NewStore(ctx, local, tenants.WithTenants(tenants.DefaultTenant(), tenantA, tenantB))

	t.Run("unknown id is rejected", func(t *testing.T) {
		require.False(t, s.SetCurrentTenant(ctx, "tenant-z"))
		require.Equal(t, tenants.DefaultTenantID, s.CurrentTenantID())
	})

	t.Run("known id is selected and persisted", func(t *testing.T) {
		require.True(t, s.SetCurrentTenant(ctx, "tenant-b"))
		require.Equal(t, "tenant-b", s.CurrentTenantID())
		require.Equal(t, tenantB, s.CurrentTenant())
		require.Equal(t, "tenant-b", persistedTenant(t, local))
	})
}

func TestStore_RestoresPersistedSelection(t *testing.T) {
	ctx := context.Background()
	local := memstore.New()
	require.NoError(t, local.SetItem(ctx, storage.KeyCurrentTenantID, "tenant-a"))

	restored := tenants.NewStore(ctx, local, tenants.WithTenants(tenantA, tenantB))
	require.Equal(t, "tenant-a", restored.CurrentTenantID())

	require.NoError(t, local.SetItem(ctx, storage.KeyCurrentTenantID, "gone"))
	fallback := tenants.NewStore(ctx, local, tenants.WithTenants(tenantA))
	require.Equal(t, tenants.DefaultTenantID, fallback.CurrentTenantID())
}

func TestStore_SetTenantsDropsDanglingSelection(t *testing.T) {
	ctx := context.Background()
	local := memstore.New()
	s := tenants.NewStore(ctx, local, tenants.WithTenants(tenantA, tenantB))
	require.True(t, s.SetCurrentTenant(ctx, "tenant-b"))

	s.SetTenants(ctx, []tenants.Tenant{tenantA})

	require.Equal(t, tenants.DefaultTenantID, s.CurrentTenantID())
	require.Equal(t, tenants.DefaultTenant(), s.CurrentTenant())
	require.Equal(t, tenants.DefaultTenantID, persistedTenant(t, local))
}

func TestStore_AdoptIdentityTenant(t *testing.T) {
	ctx := context.Background()
	s := tenants.NewStore(ctx, memstore.New())

	s.AdoptIdentityTenant(ctx, "")
	require.Equal(t, tenants.DefaultTenantID, s.CurrentTenantID())

	s.AdoptIdentityTenant(ctx, "tenant-x")
	require.Equal(t, "tenant-x", s.CurrentTenantID())
	require.Equal(t, tenants.Tenant{ID: "tenant-x", Name: "tenant-x"}, s.CurrentTenant())

	s.Reset(ctx)
	require.Equal(t, tenants.DefaultTenantID, s.CurrentTenantID())
	require.Len(t, s.Tenants(), 1)
}

func TestStore_FetchTenants(t *testing.T) {
	ctx := context.Background()

	t.Run("loads rows", func(t *testing.T) {
		repo := tenantrepofakes.NewFakeTenantRepo()
		_, err := repo.Create(ctx, &tenants.Tenant{ID: "tenant-a", Name: "Tenant A"})
		require.NoError(t, err)

		s := tenants.NewStore(ctx, memstore.New())
		list, err := s.FetchTenants(ctx, repo)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "tenant-a", list[0].ID)
		require.True(t, s.SetCurrentTenant(ctx, "tenant-a"))
	})

	t.Run("empty result falls back to default", func(t *testing.T) {
		s := tenants.NewStore(ctx, memstore.New())
		list, err := s.FetchTenants(ctx, tenantrepofakes.NewFakeTenantRepo())
		require.NoError(t, err)
		require.Equal(t, []tenants.Tenant{tenants.DefaultTenant()}, list)
	})

	t.Run("error keeps list", func(t *testing.T) {
		repo := tenantrepofakes.NewFakeTenantRepo()
		repo.ListErr = errors.New("boom")
		s := tenants.NewStore(ctx, memstore.New(), tenants.WithTenants(tenantA))
		list, err := s.FetchTenants(ctx, repo)
		require.Error(t, err)
		require.Equal(t, []tenants.Tenant{tenantA}, list)
	})
}

func TestStore_Watch(t *testing.T) {
	ctx := context.Background()
	s := tenants.NewStore(ctx, memstore.New(), tenants.WithTenants(tenantA))

	var seen []string
	cancel := s.Watch(func(snap tenants.StoreSnapshot) {
		seen = append(seen, snap.CurrentTenantID)
	})
	require.True(t, s.SetCurrentTenant(ctx, "tenant-a"))
	require.False(t, s.SetCurrentTenant(ctx, "nope"))
	cancel()
	s.Reset(ctx)

	require.Equal(t, []string{"tenant-a"}, seen)
}
