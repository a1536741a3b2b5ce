package auth

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
)

// TenantContext is derived from the identity and the tenant store; it is never
// stored.
type TenantContext struct {
	CurrentTenant   tenants.Tenant `json:"current_tenant"`
	CurrentUserRole tenants.Role   `json:"current_user_role"`
	IsSuperAdmin    bool           `json:"is_super_admin"`
	IsLoading       bool           `json:"is_loading"`
	Error           string         `json:"error,omitempty"`
}

func (o *Orchestrator) TenantContext() TenantContext {
	state := o.Snapshot()
	tc := TenantContext{
		CurrentTenant: o.deps.Tenants.CurrentTenant(),
		IsLoading:     state.IsLoading,
	}
	if state.Error != nil {
		tc.Error = state.Error.Error()
	}
	if state.User == nil {
		return tc
	}
	tc.CurrentUserRole = tenants.Role(state.User.Role())
	tc.IsSuperAdmin = tc.CurrentUserRole == tenants.RoleSuperAdmin
	for _, r := range state.User.Roles() {
		if tenants.Role(r) == tenants.RoleSuperAdmin {
			tc.IsSuperAdmin = true
		}
	}
	return tc
}

// SetCurrentTenant selects tenantID if it is a known tenant.
func (o *Orchestrator) SetCurrentTenant(ctx context.Context, tenantID string) bool {
	return o.deps.Tenants.SetCurrentTenant(ctx, tenantID)
}

// Tenants returns the tenants known to the tenant store.
func (o *Orchestrator) Tenants() []tenants.Tenant {
	return o.deps.Tenants.Tenants()
}

// SyncTenants reloads the tenants visible to the current identity.
func (o *Orchestrator) SyncTenants(ctx context.Context) ([]tenants.Tenant, error) {
	client, err := o.deps.Identity.Client()
	if err != nil {
		return o.deps.Tenants.Tenants(), err
	}
	return o.deps.Tenants.FetchTenants(ctx, client.Tenants())
}

// TenantService answers tenant questions through the current client.
func (o *Orchestrator) TenantService() *tenants.Service {
	return o.tenantSvc
}

func (o *Orchestrator) tenantBackend(context.Context) (tenants.Backend, error) {
	c, err := o.deps.Identity.Client()
	if err != nil {
		return nil, errors.Wrap(err, "[auth.Orchestrator.tenantBackend]")
	}
	return c, nil
}
