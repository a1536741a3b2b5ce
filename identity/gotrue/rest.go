package gotrue

import (
	"context"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var preferRepresentation = http.Header{"Prefer": []string{"return=representation"}}

// restClient returns an http client that authenticates data requests as the
// held session, or as the anonymous role when signed out.
func (c *Client) restClient(ctx context.Context) *http.Client {
	token := c.storage.Current().Token()
	if token == nil {
		token = &oauth2.Token{AccessToken: c.anonKey, TokenType: "Bearer"}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	hc.Timeout = c.http.Timeout
	return hc
}

func eq(column, value string) url.Values {
	return url.Values{column: {"eq." + value}, "select": {"*"}}
}

type tenantRepo struct {
	rest *Client
}

type tenantInsert struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Domain  string `json:"domain,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

func (r *tenantRepo) Create(ctx context.Context, t *tenants.Tenant) (*tenants.Tenant, error) {
	if t == nil {
		return nil, errors.New("[gotrue.tenantRepo.Create] tenant is required")
	}
	var rows []*tenants.Tenant
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "tenants.create",
		method: http.MethodPost,
		path:   restPath + "/tenants",
		body:   tenantInsert{ID: t.ID, Name: t.Name, Domain: t.Domain, LogoURL: t.LogoURL},
		header: preferRepresentation,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(apperrors.ErrInternal, "[gotrue.tenantRepo.Create] no row returned")
	}
	return rows[0], nil
}

func (r *tenantRepo) Get(ctx context.Context, tenantID string) (*tenants.Tenant, error) {
	var rows []*tenants.Tenant
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "tenants.get",
		method: http.MethodGet,
		path:   restPath + "/tenants",
		query:  eq("id", tenantID),
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "[gotrue.tenantRepo.Get] %s", tenantID)
	}
	return rows[0], nil
}

func (r *tenantRepo) List(ctx context.Context) ([]*tenants.Tenant, error) {
	rows := make([]*tenants.Tenant, 0)
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "tenants.list",
		method: http.MethodGet,
		path:   restPath + "/tenants",
		query:  url.Values{"select": {"*"}, "order": {"name.asc"}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenantID string, update tenants.TenantUpdate) (*tenants.Tenant, error) {
	var rows []*tenants.Tenant
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "tenants.update",
		method: http.MethodPatch,
		path:   restPath + "/tenants",
		query:  eq("id", tenantID),
		body:   update,
		header: preferRepresentation,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "[gotrue.tenantRepo.Update] %s", tenantID)
	}
	return rows[0], nil
}

func (r *tenantRepo) Delete(ctx context.Context, tenantID string) error {
	return r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "tenants.delete",
		method: http.MethodDelete,
		path:   restPath + "/tenants",
		query:  url.Values{"id": {"eq." + tenantID}},
	}, nil)
}

type profileRepo struct {
	rest *Client
}

func (r *profileRepo) Get(ctx context.Context, userID string) (*tenants.Profile, error) {
	var rows []*tenants.Profile
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "profiles.get",
		method: http.MethodGet,
		path:   restPath + "/profiles",
		query:  eq("id", userID),
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(apperrors.ErrProfileNotFound, "[gotrue.profileRepo.Get] %s", userID)
	}
	return rows[0], nil
}

func (r *profileRepo) ListByTenant(ctx context.Context, tenantID string) ([]*tenants.Profile, error) {
	rows := make([]*tenants.Profile, 0)
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "profiles.list",
		method: http.MethodGet,
		path:   restPath + "/profiles",
		query:  eq("tenant_id", tenantID),
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *profileRepo) Update(ctx context.Context, userID string, update tenants.ProfileUpdate) (*tenants.Profile, error) {
	var rows []*tenants.Profile
	err := r.rest.do(ctx, r.rest.restClient(ctx), request{
		op:     "profiles.update",
		method: http.MethodPatch,
		path:   restPath + "/profiles",
		query:  eq("id", userID),
		body:   update,
		header: preferRepresentation,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(apperrors.ErrProfileNotFound, "[gotrue.profileRepo.Update] %s", userID)
	}
	return rows[0], nil
}
