// Package gotrue talks to a hosted GoTrue auth API and the PostgREST data API
// in front of the same project.
package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/internal/config"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	opSignIn        = "signIn"
	opSignUp        = "signUp"
	opSignOut       = "signOut"
	opGetUser       = "getUser"
	opRefresh       = "refresh"
	opResetPassword = "resetPassword"

	jwksPath = authPath + "/.well-known/jwks.json"
)

var _ identity.Client = (*Client)(nil)

// Client is the HTTP implementation of identity.Client.
type Client struct {
	identity.Notifier
	baseURL string
	anonKey string
	http    *http.Client
	storage *identity.SessionStorage
	keySet  oidc.KeySet
	nowTime func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the http client (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithDurableStore persists remembered sessions to store.
func WithDurableStore(store storage.Store) Option {
	return func(c *Client) {
		c.storage = identity.NewSessionStorage(store)
	}
}

// WithKeySet verifies access token signatures against keySet.
func WithKeySet(keySet oidc.KeySet) Option {
	return func(c *Client) {
		c.keySet = keySet
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New builds a client for cfg. When cfg asks for JWKS verification, access
// tokens are checked against the project's published keys.
func New(cfg config.BackendConfig, options ...Option) (*Client, error) {
	if err := config.ValidateBackend(cfg); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: cfg.GetBackendURL(),
		anonKey: cfg.GetBackendAnonKey(),
		http:    &http.Client{Timeout: cfg.GetRequestTimeout()},
		storage: identity.NewSessionStorage(nil),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	if cfg.GetVerifyJWKS() && c.keySet == nil {
		ctx := oidc.ClientContext(context.Background(), c.http)
		c.keySet = oidc.NewRemoteKeySet(ctx, c.baseURL+jwksPath)
	}
	return c, nil
}

// Factory adapts New to identity.Provider.
func Factory(options ...Option) identity.Factory {
	return func(cfg config.BackendConfig) (identity.Client, error) {
		return New(cfg, options...)
	}
}

// acceptSession normalizes s, verifies it when a key set is configured and
// makes it the held session.
func (c *Client) acceptSession(ctx context.Context, op string, s *sessions.Session, persist *bool) error {
	s.Normalize(c.nowTime())
	if c.keySet != nil {
		if _, err := c.keySet.VerifySignature(ctx, s.AccessToken); err != nil {
			return &apperrors.AuthError{Op: op, Code: "invalid_jwt", Message: "access token signature rejected", Err: err}
		}
	}
	var err error
	if persist == nil {
		err = c.storage.Replace(ctx, s)
	} else {
		err = c.storage.Save(ctx, s, *persist)
	}
	if err != nil {
		log.Err(err).Str("op", op).Msg("GoTrue client: failed to store session")
	}
	return nil
}

func (c *Client) bearer(token string) http.Header {
	if token == "" {
		token = c.anonKey
	}
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (c *Client) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.AuthResponse, error) {
	s := &sessions.Session{}
	err := c.do(ctx, c.http, request{
		op:     opSignIn,
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": creds.Email, "password": creds.Password},
		header: c.bearer(""),
	}, s)
	if err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, &apperrors.AuthError{Op: opSignIn, Message: "no session in response", Err: apperrors.ErrMissingSession}
	}
	if err := c.acceptSession(ctx, opSignIn, s, &creds.Persist); err != nil {
		return nil, err
	}
	c.Emit(identity.EventSignedIn, s)
	return &identity.AuthResponse{User: s.User.Clone(), Session: s.Clone()}, nil
}

// SignUp creates the identity. With email confirmation enabled the backend
// answers with the bare user and no session.
func (c *Client) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.AuthResponse, error) {
	var raw json.RawMessage
	err := c.do(ctx, c.http, request{
		op:     opSignUp,
		method: http.MethodPost,
		path:   authPath + "/signup",
		body: map[string]any{
			"email":    params.Email,
			"password": params.Password,
			"data":     params.Data,
		},
		header: c.bearer(""),
	}, &raw)
	if err != nil {
		return nil, err
	}

	s := &sessions.Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, &apperrors.TransportError{Op: opSignUp, Err: errors.Wrap(err, "decode session")}
	}
	if s.AccessToken == "" {
		u := &sessions.User{}
		if err := json.Unmarshal(raw, u); err != nil {
			return nil, &apperrors.TransportError{Op: opSignUp, Err: errors.Wrap(err, "decode user")}
		}
		if u.ID == "" {
			return nil, &apperrors.AuthError{Op: opSignUp, Message: "no user in response", Err: apperrors.ErrMissingUser}
		}
		return &identity.AuthResponse{User: u}, nil
	}

	persist := true
	if err := c.acceptSession(ctx, opSignUp, s, &persist); err != nil {
		return nil, err
	}
	c.Emit(identity.EventSignedIn, s)
	return &identity.AuthResponse{User: s.User.Clone(), Session: s.Clone()}, nil
}

// SignOut revokes per scope and drops the local session. A session the
// backend no longer knows is still dropped locally.
func (c *Client) SignOut(ctx context.Context, scope identity.SignOutScope) error {
	s, err := c.storage.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	err = c.do(ctx, c.http, request{
		op:     opSignOut,
		method: http.MethodPost,
		path:   authPath + "/logout",
		query:  url.Values{"scope": {string(scope)}},
		header: c.bearer(s.AccessToken),
	}, nil)
	var ae *apperrors.AuthError
	if err != nil && !(apperrors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusNotFound || ae.Status == http.StatusForbidden)) {
		return err
	}
	if scope == identity.ScopeOthers {
		return nil
	}
	if err := c.storage.Clear(ctx); err != nil {
		log.Err(err).Msg("GoTrue client: failed to clear session")
	}
	c.Emit(identity.EventSignedOut, nil)
	return nil
}

func (c *Client) GetSession(ctx context.Context) (*sessions.Session, error) {
	s, err := c.storage.Load(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.IsExpired(c.nowTime()) {
		return s, nil
	}
	return c.RefreshSession(ctx, s.RefreshToken)
}

func (c *Client) CurrentSession() *sessions.Session {
	return c.storage.Current()
}

func (c *Client) GetUser(ctx context.Context) (*sessions.User, error) {
	s, err := c.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	u := &sessions.User{}
	err = c.do(ctx, c.http, request{
		op:     opGetUser,
		method: http.MethodGet,
		path:   authPath + "/user",
		header: c.bearer(s.AccessToken),
	}, u)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RefreshSession exchanges refreshToken. When the backend rejects the held
// session's token the session is dropped and SIGNED_OUT emitted.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	s := &sessions.Session{}
	err := c.do(ctx, c.http, request{
		op:     opRefresh,
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		header: c.bearer(""),
	}, s)
	if err != nil {
		if apperrors.IsAuthError(err) {
			if held := c.storage.Current(); held != nil && held.RefreshToken == refreshToken {
				if clearErr := c.storage.Clear(ctx); clearErr != nil {
					log.Err(clearErr).Msg("GoTrue client: failed to clear session")
				}
				c.Emit(identity.EventSignedOut, nil)
			}
		}
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, &apperrors.AuthError{Op: opRefresh, Message: "no session in response", Err: apperrors.ErrMissingSession}
	}
	if err := c.acceptSession(ctx, opRefresh, s, nil); err != nil {
		return nil, err
	}
	c.Emit(identity.EventTokenRefreshed, s)
	return s.Clone(), nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, c.http, request{
		op:     opResetPassword,
		method: http.MethodPost,
		path:   authPath + "/recover",
		body:   map[string]string{"email": email},
		header: c.bearer(""),
	}, nil)
}

func (c *Client) OnAuthStateChange(handler identity.Handler) func() {
	return c.Subscribe(handler)
}

func (c *Client) Tenants() tenants.Repo {
	return &tenantRepo{rest: c}
}

func (c *Client) Profiles() tenants.ProfileRepo {
	return &profileRepo{rest: c}
}
