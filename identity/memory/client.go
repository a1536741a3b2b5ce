package memory

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-tenant-console/identity"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ identity.Client = (*Client)(nil)

// Client is one device's view of a Backend.
type Client struct {
	identity.Notifier
	backend *Backend
	storage *identity.SessionStorage
}

// NewClient builds a client whose persisted sessions go to durable (may be nil).
func (b *Backend) NewClient(durable storage.Store) *Client {
	c := &Client{
		backend: b,
		storage: identity.NewSessionStorage(durable),
	}
	b.register(c)
	return c
}

func (c *Client) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.AuthResponse, error) {
	if err := c.backend.takeFailure(OpSignIn); err != nil {
		return nil, err
	}
	b := c.backend
	b.lock.Lock()
	uid, ok := b.emails[strings.ToLower(strings.TrimSpace(creds.Email))]
	acc := b.accounts[uid]
	if !ok || acc == nil || !checkPasswordHash(creds.Password, acc.passwordHash) {
		b.lock.Unlock()
		return nil, &apperrors.AuthError{Op: OpSignIn, Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials", Err: apperrors.ErrInvalidCredentials}
	}
	s, err := b.issueLocked(acc, "")
	b.lock.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.storage.Save(ctx, s, creds.Persist); err != nil {
		log.Err(err).Msg("Memory client: failed to store session")
	}
	c.Emit(identity.EventSignedIn, s)
	return &identity.AuthResponse{User: s.User.Clone(), Session: s.Clone()}, nil
}

func (c *Client) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.AuthResponse, error) {
	if err := c.backend.takeFailure(OpSignUp); err != nil {
		return nil, err
	}
	b := c.backend
	b.lock.Lock()
	user, err := b.createAccountLocked(params.Email, params.Password, params.Data, nil)
	if err != nil {
		b.lock.Unlock()
		return nil, err
	}
	if b.requireConfirmation {
		b.lock.Unlock()
		return &identity.AuthResponse{User: user}, nil
	}
	s, err := b.issueLocked(b.accounts[user.ID], "")
	b.lock.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.storage.Save(ctx, s, true); err != nil {
		log.Err(err).Msg("Memory client: failed to store session")
	}
	c.Emit(identity.EventSignedIn, s)
	return &identity.AuthResponse{User: s.User.Clone(), Session: s.Clone()}, nil
}

// SignOut revokes sessions per scope. The local session is dropped for the
// local and global scopes even when the backend no longer knows it.
func (c *Client) SignOut(ctx context.Context, scope identity.SignOutScope) error {
	if err := c.backend.takeFailure(OpSignOut); err != nil {
		return err
	}
	current, err := c.storage.Load(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	claims, _ := sessions.DecodeAccessToken(current.AccessToken)

	b := c.backend
	var userID, sessionID string
	if claims != nil {
		userID, sessionID = claims.Subject, claims.SessionID
	}
	b.lock.Lock()
	switch scope {
	case identity.ScopeGlobal:
		b.revokeUserLocked(userID, "")
	case identity.ScopeOthers:
		b.revokeUserLocked(userID, sessionID)
	default:
		b.revokeSessionLocked(sessionID)
	}
	others := append([]*Client{}, b.clients...)
	b.lock.Unlock()

	if scope != identity.ScopeLocal {
		for _, o := range others {
			if o != c {
				o.dropIfUser(userID, identity.EventSignedOut)
			}
		}
	}
	if scope == identity.ScopeOthers {
		return nil
	}
	if err := c.storage.Clear(ctx); err != nil {
		log.Err(err).Msg("Memory client: failed to clear session")
	}
	c.Emit(identity.EventSignedOut, nil)
	return nil
}

func (c *Client) GetSession(ctx context.Context) (*sessions.Session, error) {
	if err := c.backend.takeFailure(OpGetSession); err != nil {
		return nil, err
	}
	s, err := c.storage.Load(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.IsExpired(c.backend.nowTime()) {
		return s, nil
	}
	return c.RefreshSession(ctx, s.RefreshToken)
}

func (c *Client) CurrentSession() *sessions.Session {
	return c.storage.Current()
}

func (c *Client) GetUser(ctx context.Context) (*sessions.User, error) {
	s, err := c.storage.Load(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	b := c.backend
	b.lock.RLock()
	defer b.lock.RUnlock()
	acc, _, err := b.verifyLocked(s.AccessToken)
	if err != nil {
		return nil, err
	}
	return acc.user.Clone(), nil
}

// RefreshSession rotates refreshToken. An unknown token ends the local
// session when it is the one held.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	if err := c.backend.takeFailure(OpRefresh); err != nil {
		return nil, err
	}
	b := c.backend
	b.lock.Lock()
	grant, ok := b.grants[refreshToken]
	acc := b.accounts[grant.userID]
	if !ok || acc == nil {
		b.lock.Unlock()
		if held := c.storage.Current(); held != nil && held.RefreshToken == refreshToken {
			if err := c.storage.Clear(ctx); err != nil {
				log.Err(err).Msg("Memory client: failed to clear session")
			}
			c.Emit(identity.EventSignedOut, nil)
		}
		return nil, &apperrors.AuthError{Op: OpRefresh, Status: 400, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Not Found", Err: apperrors.ErrNoSession}
	}
	delete(b.grants, refreshToken)
	s, err := b.issueLocked(acc, grant.sessionID)
	b.lock.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.storage.Replace(ctx, s); err != nil {
		log.Err(err).Msg("Memory client: failed to store refreshed session")
	}
	c.Emit(identity.EventTokenRefreshed, s)
	return s.Clone(), nil
}

// ResetPasswordForEmail records the request. Unknown emails are accepted
// silently so the call cannot be used to probe for accounts.
func (c *Client) ResetPasswordForEmail(_ context.Context, email string) error {
	if err := c.backend.takeFailure(OpResetPassword); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &apperrors.AuthError{Op: OpResetPassword, Status: 400, Code: "validation_failed", Message: "email is required"}
	}
	c.backend.lock.Lock()
	defer c.backend.lock.Unlock()
	c.backend.resets = append(c.backend.resets, email)
	return nil
}

func (c *Client) OnAuthStateChange(handler identity.Handler) func() {
	return c.Subscribe(handler)
}

func (c *Client) Tenants() tenants.Repo {
	return &tenantRepo{client: c}
}

func (c *Client) Profiles() tenants.ProfileRepo {
	return &profileRepo{client: c}
}

// caller resolves the identity behind the held session for row-level checks.
// A missing or invalid session is the anonymous caller.
func (c *Client) caller() *caller {
	s := c.storage.Current()
	if s == nil {
		return &caller{}
	}
	b := c.backend
	b.lock.RLock()
	defer b.lock.RUnlock()
	acc, _, err := b.verifyLocked(s.AccessToken)
	if err != nil {
		return &caller{}
	}
	return b.callerLocked(acc.user.ID)
}

// dropIfUser ends the held session when it belongs to userID.
func (c *Client) dropIfUser(userID string, event identity.Event) {
	s := c.storage.Current()
	if s == nil || s.User == nil || s.User.ID != userID {
		return
	}
	if err := c.storage.Clear(context.Background()); err != nil {
		log.Err(err).Msg("Memory client: failed to clear session")
	}
	c.Emit(event, nil)
}

func notFound(op string) error {
	return errors.Wrap(apperrors.ErrNotFound, op)
}
