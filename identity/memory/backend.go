// Package memory is an in-process identity/data backend speaking the same
// contract as the hosted one. It enforces the hosted backend's row-level
// tenant rules, so it serves both as the test double and as the console's
// offline mode.
package memory

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/internal/config"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
)

// Operation names accepted by FailNext.
const (
	OpSignIn        = "signIn"
	OpSignUp        = "signUp"
	OpSignOut       = "signOut"
	OpGetSession    = "getSession"
	OpRefresh       = "refresh"
	OpResetPassword = "resetPassword"
	OpTenantCreate  = "tenants.create"
	OpTenantDelete  = "tenants.delete"
	OpTenantList    = "tenants.list"
)

const refreshTokenLength = 32

type account struct {
	user         sessions.User
	passwordHash string
}

type refreshGrant struct {
	userID    string
	sessionID string
}

// Backend holds the server-side state shared by every Client it hands out.
type Backend struct {
	lock     sync.RWMutex
	accounts map[string]*account // by user id
	emails   map[string]string   // email -> user id
	tenants  map[string]*tenants.Tenant
	profiles map[string]*tenants.Profile
	grants   map[string]refreshGrant // refresh token -> grant
	live     map[string]string       // session id -> user id
	clients  []*Client
	failures map[string]error
	resets   []string

	secret              []byte
	accessTokenTTL      time.Duration
	requireConfirmation bool
	nowTime             func() time.Time
}

type Option func(*Backend)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(b *Backend) {
		b.nowTime = nowFunc
	}
}

// WithAccessTokenTTL sets how long issued sessions last.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.accessTokenTTL = ttl
	}
}

// WithSigningSecret sets the HMAC key for access tokens.
func WithSigningSecret(secret []byte) Option {
	return func(b *Backend) {
		b.secret = secret
	}
}

// WithEmailConfirmation makes sign-up return a user without a session.
func WithEmailConfirmation(required bool) Option {
	return func(b *Backend) {
		b.requireConfirmation = required
	}
}

func NewBackend(options ...Option) *Backend {
	b := &Backend{
		accounts:       make(map[string]*account),
		emails:         make(map[string]string),
		tenants:        make(map[string]*tenants.Tenant),
		profiles:       make(map[string]*tenants.Profile),
		grants:         make(map[string]refreshGrant),
		live:           make(map[string]string),
		failures:       make(map[string]error),
		secret:         []byte(uuid.New().String()),
		accessTokenTTL: time.Hour,
		nowTime:        time.Now,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Factory adapts the backend to identity.Provider. Sessions of the built
// clients persist to durable (which may be nil).
func (b *Backend) Factory(durable storage.Store) identity.Factory {
	return func(config.BackendConfig) (identity.Client, error) {
		return b.NewClient(durable), nil
	}
}

// FailNext makes the next call of op fail with err.
func (b *Backend) FailNext(op string, err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failures[op] = err
}

func (b *Backend) takeFailure(op string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	err, ok := b.failures[op]
	if !ok {
		return nil
	}
	delete(b.failures, op)
	return err
}

// SeedUser creates a confirmed user directly. A tenant_id in userMeta also
// creates the profile row, with the role from userMeta (member by default).
func (b *Backend) SeedUser(email, password string, userMeta, appMeta map[string]any) (*sessions.User, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.createAccountLocked(email, password, userMeta, appMeta)
}

func (b *Backend) createAccountLocked(email, password string, userMeta, appMeta map[string]any) (*sessions.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := b.emails[email]; exists {
		return nil, &apperrors.AuthError{Op: OpSignUp, Status: 422, Code: "user_already_exists", Message: "User already registered", Err: apperrors.ErrEmailTaken}
	}
	if len(password) < minPasswordLength {
		return nil, &apperrors.AuthError{Op: OpSignUp, Status: 422, Code: "weak_password", Message: "Password should be at least 6 characters", Err: apperrors.ErrWeakPassword}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[memory.Backend] hashPassword")
	}
	if appMeta == nil {
		appMeta = map[string]any{}
	}
	if _, ok := appMeta["provider"]; !ok {
		appMeta["provider"] = "email"
	}
	if userMeta == nil {
		userMeta = map[string]any{}
	}
	u := sessions.User{
		ID:           uuid.New().String(),
		Email:        email,
		UserMetadata: userMeta,
		AppMetadata:  appMeta,
		CreatedAt:    b.nowTime().UTC(),
	}
	b.accounts[u.ID] = &account{user: u, passwordHash: hash}
	b.emails[email] = u.ID

	if tenantID := u.TenantID(); tenantID != "" {
		role := tenants.Role(u.Role())
		if role == "" {
			role = tenants.RoleMember
		}
		now := b.nowTime().UTC()
		b.profiles[u.ID] = &tenants.Profile{
			ID:          u.ID,
			TenantID:    tenantID,
			DisplayName: u.Nickname(),
			AvatarURL:   u.Avatar(),
			Role:        role,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return u.Clone(), nil
}

// SetAppMetadata replaces a user's app metadata, as a backend admin would.
// Already issued tokens keep the old claims until refreshed.
func (b *Backend) SetAppMetadata(userID string, appMeta map[string]any) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	acc, ok := b.accounts[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	acc.user.AppMetadata = appMeta
	return nil
}

// SeedTenant inserts a tenant row directly.
func (b *Backend) SeedTenant(name string) *tenants.Tenant {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.insertTenantLocked(&tenants.Tenant{Name: name})
}

func (b *Backend) insertTenantLocked(t *tenants.Tenant) *tenants.Tenant {
	row := *t
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	now := b.nowTime().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	b.tenants[row.ID] = &row
	out := row
	return &out
}

// HasTenant reports whether a tenant row exists, bypassing row-level rules.
func (b *Backend) HasTenant(tenantID string) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	_, ok := b.tenants[tenantID]
	return ok
}

// TenantCount counts tenant rows, bypassing row-level rules.
func (b *Backend) TenantCount() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.tenants)
}

// PasswordResets lists the emails a reset was requested for.
func (b *Backend) PasswordResets() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]string{}, b.resets...)
}

// DeleteUser removes a user and ends all of its sessions. Clients holding one
// of them observe USER_DELETED.
func (b *Backend) DeleteUser(userID string) {
	b.lock.Lock()
	acc, ok := b.accounts[userID]
	if ok {
		delete(b.emails, acc.user.Email)
		delete(b.accounts, userID)
		delete(b.profiles, userID)
	}
	b.revokeUserLocked(userID, "")
	clients := append([]*Client{}, b.clients...)
	b.lock.Unlock()

	for _, c := range clients {
		c.dropIfUser(userID, identity.EventUserDeleted)
	}
}

// RevokeSessions ends every session of userID, as a sign-out elsewhere would.
// Clients holding one of them observe SIGNED_OUT.
func (b *Backend) RevokeSessions(userID string) {
	b.lock.Lock()
	b.revokeUserLocked(userID, "")
	clients := append([]*Client{}, b.clients...)
	b.lock.Unlock()

	for _, c := range clients {
		c.dropIfUser(userID, identity.EventSignedOut)
	}
}

func (b *Backend) revokeUserLocked(userID, keepSessionID string) {
	for sid, uid := range b.live {
		if uid == userID && sid != keepSessionID {
			delete(b.live, sid)
		}
	}
	for token, g := range b.grants {
		if g.userID == userID && g.sessionID != keepSessionID {
			delete(b.grants, token)
		}
	}
}

func (b *Backend) revokeSessionLocked(sessionID string) {
	delete(b.live, sessionID)
	for token, g := range b.grants {
		if g.sessionID == sessionID {
			delete(b.grants, token)
		}
	}
}

type accessClaims = sessions.AccessClaims

// issueLocked opens (or, for a refresh, continues) sessionID for acc.
func (b *Backend) issueLocked(acc *account, sessionID string) (*sessions.Session, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	now := b.nowTime()
	exp := now.Add(b.accessTokenTTL)
	claims := &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.user.ID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
		Email:        acc.user.Email,
		Role:         "authenticated",
		SessionID:    sessionID,
		UserMetadata: acc.user.UserMetadata,
		AppMetadata:  acc.user.AppMetadata,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return nil, errors.Wrap(err, "[memory.Backend] sign access token")
	}

	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, errors.Wrap(err, "[memory.Backend] generate refresh token")
	}
	refresh := hex.EncodeToString(tokenBytes)

	b.live[sessionID] = acc.user.ID
	b.grants[refresh] = refreshGrant{userID: acc.user.ID, sessionID: sessionID}

	return &sessions.Session{
		AccessToken:  signed,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.accessTokenTTL / time.Second),
		ExpiresAt:    exp.Unix(),
		RefreshToken: refresh,
		User:         acc.user.Clone(),
	}, nil
}

// verifyLocked checks an access token's signature, expiry and that its session
// is still live, returning the account behind it.
func (b *Backend) verifyLocked(raw string) (*account, string, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.nowTime))
	if err != nil {
		return nil, "", &apperrors.AuthError{Op: "getUser", Status: 401, Code: "bad_jwt", Message: "invalid JWT", Err: err}
	}
	if _, ok := b.live[claims.SessionID]; !ok {
		return nil, "", &apperrors.AuthError{Op: "getUser", Status: 403, Code: "session_not_found", Message: "Session from session_id claim in JWT does not exist", Err: apperrors.ErrNoSession}
	}
	acc, ok := b.accounts[claims.Subject]
	if !ok {
		return nil, "", &apperrors.AuthError{Op: "getUser", Status: 403, Code: "user_not_found", Message: "User from sub claim in JWT does not exist", Err: apperrors.ErrNotFound}
	}
	return acc, claims.SessionID, nil
}

func (b *Backend) register(c *Client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.clients = append(b.clients, c)
}
