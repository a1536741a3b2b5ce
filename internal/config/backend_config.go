package config

import (
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
)

const (
	BackendURLVar = "BACKEND_URL"
	BackendKeyVar = "BACKEND_ANON_KEY"
)

// Backend holds the two required values (service URL, public API key) plus
// client tuning.
type Backend struct {
	URL             string        `env:"BACKEND_URL"`
	AnonKey         string        `env:"BACKEND_ANON_KEY"`
	VerifyJWKS      bool          `env:"BACKEND_JWKS_VERIFY" envDefault:"false"`
	RefreshInterval time.Duration `env:"BACKEND_REFRESH_INTERVAL" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
}

var _ BackendConfig = Backend{}

func (b Backend) GetBackendURL() string {
	return strings.TrimRight(strings.TrimSpace(b.URL), "/")
}

func (b Backend) GetBackendAnonKey() string {
	return strings.TrimSpace(b.AnonKey)
}

func (b Backend) GetVerifyJWKS() bool {
	return b.VerifyJWKS
}

func (b Backend) GetRefreshInterval() time.Duration {
	if b.RefreshInterval <= 0 {
		return 30 * time.Second
	}
	return b.RefreshInterval
}

func (b Backend) GetRequestTimeout() time.Duration {
	if b.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return b.RequestTimeout
}

// Validate returns a ConfigurationError when the URL or key is absent.
func (b Backend) Validate() error {
	return ValidateBackend(b)
}

// ValidateBackend checks any BackendConfig for the required values.
func ValidateBackend(b BackendConfig) error {
	if b == nil || b.GetBackendURL() == "" {
		return &apperrors.ConfigurationError{Field: BackendURLVar, Err: apperrors.ErrMissingBackendURL}
	}
	if b.GetBackendAnonKey() == "" {
		return &apperrors.ConfigurationError{Field: BackendKeyVar, Err: apperrors.ErrMissingBackendKey}
	}
	return nil
}
