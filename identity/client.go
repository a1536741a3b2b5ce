// Package identity is the console's contract with the hosted identity/data
// backend, plus the process-wide handle that owns the single client instance.
package identity

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

// Credentials for password sign-in. Persist keeps the session in the
// client's durable storage; otherwise it lives only as long as the process.
type Credentials struct {
	Email    string
	Password string
	Persist  bool
}

// SignUpParams creates a new identity. Data becomes the user metadata.
type SignUpParams struct {
	Email    string
	Password string
	Data     map[string]any
}

// AuthResponse is what sign-in and sign-up return. Session is nil when the
// backend created the user but did not open a session (e.g. pending email
// confirmation).
type AuthResponse struct {
	User    *sessions.User    `json:"user"`
	Session *sessions.Session `json:"session"`
}

// SignOutScope selects which sessions a sign-out revokes.
type SignOutScope string

const (
	ScopeLocal  SignOutScope = "local"  // this device only
	ScopeGlobal SignOutScope = "global" // every session of the user
	ScopeOthers SignOutScope = "others" // every session except this one
)

// Client is the remote identity/data backend as seen by one device.
type Client interface {
	SignInWithPassword(ctx context.Context, creds Credentials) (*AuthResponse, error)
	SignUp(ctx context.Context, params SignUpParams) (*AuthResponse, error)
	SignOut(ctx context.Context, scope SignOutScope) error

	// GetSession returns the current session, or nil when signed out. An
	// expired session is refreshed first.
	GetSession(ctx context.Context) (*sessions.Session, error)
	// CurrentSession returns the held session without any network call.
	CurrentSession() *sessions.Session
	// GetUser asks the backend for the identity behind the current session,
	// or nil when signed out.
	GetUser(ctx context.Context) (*sessions.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*sessions.Session, error)
	ResetPasswordForEmail(ctx context.Context, email string) error

	// OnAuthStateChange registers handler for auth events and returns the
	// unsubscribe func.
	OnAuthStateChange(handler Handler) (unsubscribe func())

	Tenants() tenants.Repo
	Profiles() tenants.ProfileRepo
}
