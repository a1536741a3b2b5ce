package tenants

import "time"

const (
	DefaultTenantID   = "default"
	DefaultTenantName = "Default Tenant"
)

// Role is a user's role inside their tenant.
type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin" // can read and write every tenant
	RoleViewer     Role = "viewer"
)

// Tenant is an isolated customer namespace. All tenant-scoped rows are
// filtered by tenant id on the backend.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultTenant is the fallback selection when nothing else is known.
func DefaultTenant() Tenant {
	return Tenant{ID: DefaultTenantID, Name: DefaultTenantName}
}

// Profile is the per-user row in the profiles table.
type Profile struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// TenantUpdate carries the tenant columns to change; nil fields are left alone.
type TenantUpdate struct {
	Name    *string `json:"name,omitempty"`
	Domain  *string `json:"domain,omitempty"`
	LogoURL *string `json:"logo_url,omitempty"`
}

// ProfileUpdate carries the profile columns to change; nil fields are left alone.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Role        *Role   `json:"role,omitempty"`
}

// Apply copies the set fields of u onto t.
func (u TenantUpdate) Apply(t *Tenant) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Domain != nil {
		t.Domain = *u.Domain
	}
	if u.LogoURL != nil {
		t.LogoURL = *u.LogoURL
	}
}

// Apply copies the set fields of u onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
}
