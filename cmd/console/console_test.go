package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jrsteele09/go-tenant-console/internal/config"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func runConsole(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setConsoleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_URL", "http://127.0.0.1:1")
	t.Setenv("BACKEND_ANON_KEY", "anon-key")
	t.Setenv("STORE_DRIVER", config.StoreDriverMemory)
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "disabled")
}

func TestWhoAmISignedOut(t *testing.T) {
	setConsoleEnv(t)

	out, err := runConsole(t, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)

	out, err = runConsole(t, "whoami", "-o", "yaml")
	require.NoError(t, err)
	require.Equal(t, "authenticated: false\n", out)

	out, err = runConsole(t, "whoami", "--output", "json")
	require.NoError(t, err)
	require.JSONEq(t, `{"authenticated": false}`, out)
}

func TestMissingConfigurationIsFatal(t *testing.T) {
	setConsoleEnv(t)
	t.Setenv("BACKEND_URL", "")

	_, err := runConsole(t, "whoami")
	require.Error(t, err)
	require.True(t, apperrors.IsConfigurationError(err))
	require.ErrorIs(t, err, apperrors.ErrMissingBackendURL)
}

func TestUnknownOutputFormat(t *testing.T) {
	setConsoleEnv(t)
	_, err := runConsole(t, "whoami", "-o", "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestSignInNeedsPassword(t *testing.T) {
	setConsoleEnv(t)
	t.Setenv(passwordEnvVar, "")
	_, err := runConsole(t, "signin", "--email", "a@b.test")
	require.ErrorContains(t, err, "password is required")
}

func TestTenantContextSignedOut(t *testing.T) {
	setConsoleEnv(t)
	out, err := runConsole(t, "tenants", "context", "-o", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "id: default")
	require.Contains(t, out, "is_super_admin: false")
}

func TestOpenStoreMemory(t *testing.T) {
	store, closer, err := openStore(context.Background(), config.Store{Driver: config.StoreDriverMemory})
	require.NoError(t, err)
	require.Nil(t, closer)
	require.NoError(t, store.SetItem(context.Background(), "k", "v"))
}

func TestOpenStoreSQLite(t *testing.T) {
	store, closer, err := openStore(context.Background(), config.Store{Driver: config.StoreDriverSQLite, Path: t.TempDir() + "/console.db"})
	require.NoError(t, err)
	defer func() { require.NoError(t, closer()) }()

	var out string
	require.NoError(t, store.SetItem(context.Background(), "k", "v"))
	found, err := store.GetItem(context.Background(), "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", out)
}
