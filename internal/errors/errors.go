package errors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Common error types for the tenant console
var (
	// Configuration errors
	ErrMissingBackendURL = errors.New("missing backend url")
	ErrMissingBackendKey = errors.New("missing backend public api key")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingSession     = errors.New("backend returned no session")
	ErrMissingUser        = errors.New("backend returned no user")
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet requirements")

	// Tenant errors
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrUnauthorizedTenant = errors.New("unauthorized for tenant")
	ErrProfileNotFound    = errors.New("profile not found")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
)

// ConfigurationError reports configuration that prevents the backend client from being built.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthError is returned when the identity backend rejects a request or answers
// without the data the caller needs.
type AuthError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, msg, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError wraps a failure to reach the backend at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CompensationFailure is returned when an operation failed and undoing its
// completed steps failed too. Errors holds the original failure first.
type CompensationFailure struct {
	Errors *multierror.Error
}

// NewCompensationFailure aggregates the original cause and the rollback failure.
func NewCompensationFailure(cause, rollback error) *CompensationFailure {
	return &CompensationFailure{Errors: multierror.Append(nil, cause, rollback)}
}

func (e *CompensationFailure) Error() string {
	return "compensation failed: " + e.Errors.Error()
}

// Unwrap exposes both the cause and the rollback failure to errors.Is / errors.As.
func (e *CompensationFailure) Unwrap() []error {
	return e.Errors.WrappedErrors()
}

// Cause is the failure that triggered the compensation.
func (e *CompensationFailure) Cause() error {
	if errs := e.Errors.WrappedErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is a convenience alias so callers can import a single errors package.
func New(text string) error {
	return errors.New(text)
}

// IsAuthError reports whether err carries an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransportError reports whether err carries a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
