package errors_test

import (
	"errors"
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestCompensationFailure(t *testing.T) {
	cause := &apperrors.AuthError{Op: "signup", Message: "email taken", Err: apperrors.ErrEmailTaken}
	rollback := errors.New("delete tenant: connection reset")

	err := apperrors.NewCompensationFailure(cause, rollback)

	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	require.ErrorIs(t, err, rollback)
	require.True(t, apperrors.IsAuthError(err))
	require.Equal(t, cause, err.Cause())
	require.Contains(t, err.Error(), "email taken")
	require.Contains(t, err.Error(), "connection reset")
}

func TestTypedErrors(t *testing.T) {
	t.Run("configuration", func(t *testing.T) {
		err := apperrors.Wrapf(&apperrors.ConfigurationError{Field: "BACKEND_URL", Err: apperrors.ErrMissingBackendURL}, "build client")
		require.True(t, apperrors.IsConfigurationError(err))
		require.ErrorIs(t, err, apperrors.ErrMissingBackendURL)
	})

	t.Run("transport", func(t *testing.T) {
		err := &apperrors.TransportError{Op: "getSession", Err: errors.New("dial tcp: refused")}
		require.True(t, apperrors.IsTransportError(err))
		require.False(t, apperrors.IsAuthError(err))
		require.Contains(t, err.Error(), "getSession")
	})

	t.Run("auth message with code", func(t *testing.T) {
		err := &apperrors.AuthError{Op: "signIn", Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
		require.Equal(t, "signIn: Invalid login credentials (invalid_grant)", err.Error())
	})

	t.Run("wrap nil", func(t *testing.T) {
		require.NoError(t, apperrors.Wrapf(nil, "noop"))
	})
}
