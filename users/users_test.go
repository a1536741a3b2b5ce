package users_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/storage/memstore"
	"github.com/jrsteele09/go-tenant-console/users"
	"github.com/stretchr/testify/require"
)

func testUser() *sessions.User {
	return &sessions.User{
		ID:    "u-1",
		Email: "a@x.com",
		UserMetadata: map[string]any{
			"tenant_id": "t-1",
			"role":      "admin",
			"nickname":  "ace",
			"avatar":    "https://img/a.png",
		},
		AppMetadata: map[string]any{
			"roles":       []any{"admin"},
			"permissions": []any{"tenants:write"},
		},
	}
}

func TestProfileStore(t *testing.T) {
	s := users.NewProfileStore()
	require.Equal(t, users.EmptyProfile(), s.Snapshot())

	var notified int
	cancel := s.Watch(func(users.Profile) { notified++ })
	defer cancel()

	s.Apply(users.ProfileFromUser(testUser()))
	got := s.Snapshot()
	require.Equal(t, users.Profile{
		Username:    "a@x.com",
		Nickname:    "ace",
		Avatar:      "https://img/a.png",
		Role:        "admin",
		Roles:       []string{"admin"},
		Permissions: []string{"tenants:write"},
		TenantID:    "t-1",
	}, got)

	got.Roles[0] = "mutated"
	require.Equal(t, []string{"admin"}, s.Snapshot().Roles)

	s.SetNickname("zed")
	s.SetRoles([]string{"viewer"})
	require.Equal(t, "zed", s.Snapshot().Nickname)
	require.Equal(t, []string{"viewer"}, s.Snapshot().Roles)

	s.Reset()
	require.Equal(t, users.EmptyProfile(), s.Snapshot())
	require.Equal(t, 4, notified)
}

func TestLocalRecord_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	local := memstore.New()

	rec := users.RecordFromUser(testUser())
	require.NoError(t, users.SaveRecord(ctx, local, rec))

	loaded, found, err := users.LoadRecord(ctx, local)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rec, *loaded)
	require.Equal(t, "t-1", *loaded.TenantID)

	var tenantID string
	found, err = local.GetItem(ctx, storage.KeyTenantID, &tenantID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "t-1", tenantID)

	require.NoError(t, users.ClearRecord(ctx, local))
	require.False(t, local.Has(storage.KeyUserInfo))
	require.False(t, local.Has(storage.KeyTenantID))
}

func TestLocalRecord_NoTenant(t *testing.T) {
	ctx := context.Background()
	local := memstore.New()
	require.NoError(t, local.SetItem(ctx, storage.KeyTenantID, "stale"))

	rec := users.RecordFromUser(&sessions.User{ID: "u-2", Email: "b@x.com"})
	require.Nil(t, rec.TenantID)
	require.Equal(t, []string{}, rec.Roles)
	require.NoError(t, users.SaveRecord(ctx, local, rec))
	require.False(t, local.Has(storage.KeyTenantID))
}
