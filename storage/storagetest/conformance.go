// Package storagetest holds behaviour checks shared by every storage driver.
package storagetest

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// Run exercises the Store contract against s. s must start empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		var out record
		found, err := s.GetItem(ctx, "absent", &out)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, storage.KeyUserInfo, record{ID: "u-1", Roles: []string{"admin"}}))

		var out record
		found, err := s.GetItem(ctx, storage.KeyUserInfo, &out)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, record{ID: "u-1", Roles: []string{"admin"}}, out)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, storage.KeyCurrentTenantID, "tenant-a"))
		require.NoError(t, s.SetItem(ctx, storage.KeyCurrentTenantID, "tenant-b"))

		var out string
		found, err := s.GetItem(ctx, storage.KeyCurrentTenantID, &out)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "tenant-b", out)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.RemoveItem(ctx, storage.KeyUserInfo))
		require.NoError(t, s.RemoveItem(ctx, storage.KeyUserInfo))

		var out record
		found, err := s.GetItem(ctx, storage.KeyUserInfo, &out)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("unencodable value", func(t *testing.T) {
		require.Error(t, s.SetItem(ctx, "bad", make(chan int)))
	})
}
