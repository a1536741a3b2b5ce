// Package postgres reads and writes the tenants and profiles tables directly,
// running every statement under the caller's JWT claims so the database's
// row-level policies apply exactly as they do behind the data API.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-tenant-console/identity"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
)

const (
	roleAuthenticated = "authenticated"
	roleAnon          = "anon"

	insufficientPrivilege = "42501"
)

// ClaimsFunc returns the claims of the current caller, or nil when anonymous.
type ClaimsFunc func() *sessions.AccessClaims

// Connect opens a pool on url and checks it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Connect] pgxpool.New")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[postgres.Connect] ping")
	}
	return pool, nil
}

type Option func(*db)

// WithoutRoleSwitch keeps the connection's own role instead of switching to
// anon/authenticated. Claims are still set. Useful against a database that
// lacks those roles.
func WithoutRoleSwitch() Option {
	return func(d *db) {
		d.switchRole = false
	}
}

type db struct {
	pool       *pgxpool.Pool
	claims     ClaimsFunc
	switchRole bool
}

func newDB(pool *pgxpool.Pool, claims ClaimsFunc, options ...Option) *db {
	d := &db{pool: pool, claims: claims, switchRole: true}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// ClaimsJSON renders c the way the data API hands claims to the database.
func ClaimsJSON(c *sessions.AccessClaims) (role string, claims string, err error) {
	if c == nil {
		return roleAnon, `{"role":"anon"}`, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", "", errors.Wrap(err, "[postgres.ClaimsJSON] marshal")
	}
	return roleAuthenticated, string(b), nil
}

// run executes fn in a transaction scoped to the caller's claims.
func (d *db) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var c *sessions.AccessClaims
	if d.claims != nil {
		c = d.claims()
	}
	role, claims, err := ClaimsJSON(c)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "select set_config('request.jwt.claims', $1, true)", claims); err != nil {
			return errors.Wrap(err, "[postgres.db.run] set claims")
		}
		if d.switchRole {
			if _, err := tx.Exec(ctx, "set local role "+pgx.Identifier{role}.Sanitize()); err != nil {
				return errors.Wrap(err, "[postgres.db.run] set role")
			}
		}
		return fn(tx)
	})
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(apperrors.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilege {
		return &apperrors.AuthError{Op: op, Status: 403, Code: pgErr.Code, Message: pgErr.Message, Err: apperrors.ErrUnauthorized}
	}
	return errors.Wrap(err, op)
}

// SessionClaims reads the caller's claims from the session c holds.
func SessionClaims(c identity.Client) ClaimsFunc {
	return func() *sessions.AccessClaims {
		s := c.CurrentSession()
		if s == nil {
			return nil
		}
		claims, err := sessions.DecodeAccessToken(s.AccessToken)
		if err != nil {
			return nil
		}
		return claims
	}
}

// client serves table access from the database while delegating auth.
type client struct {
	identity.Client
	tenants  *TenantRepo
	profiles *ProfileRepo
}

// WithDirectData wraps c so its Tenants and Profiles go straight to pool under
// c's session claims.
func WithDirectData(c identity.Client, pool *pgxpool.Pool, options ...Option) identity.Client {
	claims := SessionClaims(c)
	return &client{
		Client:   c,
		tenants:  NewTenantRepo(pool, claims, options...),
		profiles: NewProfileRepo(pool, claims, options...),
	}
}

func (c *client) Tenants() tenants.Repo { return c.tenants }

func (c *client) Profiles() tenants.ProfileRepo { return c.profiles }
