package metrics_test

import (
	"errors"
	"testing"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.Start("signIn")(nil)
	r.Start("signIn")(&apperrors.AuthError{Op: "signIn", Message: "bad"})
	r.Start("register")(apperrors.NewCompensationFailure(errors.New("a"), errors.New("b")))

	count, err := testutil.GatherAndCount(reg, "console_auth_call_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "console_auth_error_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "console_auth_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestNilRecorder(t *testing.T) {
	var r *metrics.Recorder
	require.NotPanics(t, func() { r.Start("signIn")(errors.New("x")) })
}

func TestKind(t *testing.T) {
	require.Equal(t, "transport", metrics.Kind(&apperrors.TransportError{Op: "x", Err: errors.New("y")}))
	require.Equal(t, "configuration", metrics.Kind(&apperrors.ConfigurationError{Field: "BACKEND_URL"}))
	require.Equal(t, "unknown", metrics.Kind(errors.New("z")))
}
