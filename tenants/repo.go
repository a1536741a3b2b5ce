package tenants

import "context"

// Repo is the tenants table as seen by the calling identity. Implementations
// apply the backend's row-level rules; a row the caller may not see is
// reported as not found.
type Repo interface {
	Create(ctx context.Context, tenant *Tenant) (*Tenant, error)
	Get(ctx context.Context, tenantID string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Update(ctx context.Context, tenantID string, update TenantUpdate) (*Tenant, error)
	Delete(ctx context.Context, tenantID string) error
}

// ProfileRepo is the profiles table as seen by the calling identity.
type ProfileRepo interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Profile, error)
	Update(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
}
