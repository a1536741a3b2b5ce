package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

// caller is the identity a table request runs as.
type caller struct {
	userID   string
	tenantID string
	role     tenants.Role
}

func (c *caller) anonymous() bool { return c.userID == "" }

func (c *caller) superAdmin() bool { return c.role == tenants.RoleSuperAdmin }

func (c *caller) admin() bool { return c.role == tenants.RoleAdmin || c.superAdmin() }

func (b *Backend) callerLocked(userID string) *caller {
	c := &caller{userID: userID}
	if p, ok := b.profiles[userID]; ok {
		c.tenantID = p.TenantID
		c.role = p.Role
	}
	return c
}

func (b *Backend) tenantHasProfilesLocked(tenantID string) bool {
	for _, p := range b.profiles {
		if p.TenantID == tenantID {
			return true
		}
	}
	return false
}

// canSeeTenant: members see their own tenant, super admins see all.
func (c *caller) canSeeTenant(tenantID string) bool {
	return c.superAdmin() || (!c.anonymous() && c.tenantID == tenantID)
}

type tenantRepo struct {
	client *Client
}

// Create is open to everyone so a tenant can be set up before its first
// user signs up.
func (r *tenantRepo) Create(_ context.Context, t *tenants.Tenant) (*tenants.Tenant, error) {
	b := r.client.backend
	if err := b.takeFailure(OpTenantCreate); err != nil {
		return nil, err
	}
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return nil, &apperrors.AuthError{Op: OpTenantCreate, Status: 400, Code: "23502", Message: "null value in column \"name\" violates not-null constraint"}
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	row := *t
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if _, exists := b.tenants[row.ID]; exists {
		return nil, &apperrors.AuthError{Op: OpTenantCreate, Status: 409, Code: "23505", Message: "duplicate key value violates unique constraint \"tenants_pkey\""}
	}
	return b.insertTenantLocked(&row), nil
}

func (r *tenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	who := r.client.caller()
	b := r.client.backend
	b.lock.RLock()
	defer b.lock.RUnlock()
	t, ok := b.tenants[tenantID]
	if !ok || !who.canSeeTenant(tenantID) {
		return nil, notFound("[memory.tenantRepo.Get]")
	}
	out := *t
	return &out, nil
}

func (r *tenantRepo) List(_ context.Context) ([]*tenants.Tenant, error) {
	b := r.client.backend
	if err := b.takeFailure(OpTenantList); err != nil {
		return nil, err
	}
	who := r.client.caller()
	b.lock.RLock()
	defer b.lock.RUnlock()
	list := make([]*tenants.Tenant, 0)
	for id, t := range b.tenants {
		if who.canSeeTenant(id) {
			out := *t
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Update is limited to admins of the tenant and super admins.
func (r *tenantRepo) Update(_ context.Context, tenantID string, update tenants.TenantUpdate) (*tenants.Tenant, error) {
	who := r.client.caller()
	b := r.client.backend
	b.lock.Lock()
	defer b.lock.Unlock()
	t, ok := b.tenants[tenantID]
	if !ok || !who.canSeeTenant(tenantID) {
		return nil, notFound("[memory.tenantRepo.Update]")
	}
	if !who.admin() {
		return nil, apperrors.Wrapf(apperrors.ErrUnauthorizedTenant, "[memory.tenantRepo.Update] role %q", who.role)
	}
	update.Apply(t)
	t.UpdatedAt = b.nowTime().UTC()
	out := *t
	return &out, nil
}

// Delete is allowed to super admins, and to anyone for a tenant nobody
// belongs to yet (undoing a half-finished registration).
func (r *tenantRepo) Delete(_ context.Context, tenantID string) error {
	b := r.client.backend
	if err := b.takeFailure(OpTenantDelete); err != nil {
		return err
	}
	who := r.client.caller()
	b.lock.Lock()
	defer b.lock.Unlock()
	if _, ok := b.tenants[tenantID]; !ok {
		return nil
	}
	if !who.superAdmin() && b.tenantHasProfilesLocked(tenantID) {
		return apperrors.Wrapf(apperrors.ErrUnauthorizedTenant, "[memory.tenantRepo.Delete] tenant %s has members", tenantID)
	}
	delete(b.tenants, tenantID)
	return nil
}

type profileRepo struct {
	client *Client
}

func (c *caller) canSeeProfile(p *tenants.Profile) bool {
	if c.anonymous() {
		return false
	}
	return c.superAdmin() || p.ID == c.userID || p.TenantID == c.tenantID
}

func (r *profileRepo) Get(_ context.Context, userID string) (*tenants.Profile, error) {
	who := r.client.caller()
	b := r.client.backend
	b.lock.RLock()
	defer b.lock.RUnlock()
	p, ok := b.profiles[userID]
	if !ok || !who.canSeeProfile(p) {
		return nil, apperrors.Wrapf(apperrors.ErrProfileNotFound, "[memory.profileRepo.Get] %s", userID)
	}
	out := *p
	return &out, nil
}

func (r *profileRepo) ListByTenant(_ context.Context, tenantID string) ([]*tenants.Profile, error) {
	who := r.client.caller()
	b := r.client.backend
	b.lock.RLock()
	defer b.lock.RUnlock()
	list := make([]*tenants.Profile, 0)
	for _, p := range b.profiles {
		if p.TenantID == tenantID && who.canSeeProfile(p) {
			out := *p
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Update lets users edit their own profile, and admins edit profiles in their
// tenant. Changing a role always needs an admin.
func (r *profileRepo) Update(_ context.Context, userID string, update tenants.ProfileUpdate) (*tenants.Profile, error) {
	who := r.client.caller()
	b := r.client.backend
	b.lock.Lock()
	defer b.lock.Unlock()
	p, ok := b.profiles[userID]
	if !ok || !who.canSeeProfile(p) {
		return nil, apperrors.Wrapf(apperrors.ErrProfileNotFound, "[memory.profileRepo.Update] %s", userID)
	}
	self := p.ID == who.userID
	if (!self && !who.admin()) || (update.Role != nil && !who.admin()) {
		return nil, apperrors.Wrapf(apperrors.ErrUnauthorized, "[memory.profileRepo.Update] role %q", who.role)
	}
	update.Apply(p)
	p.UpdatedAt = b.nowTime().UTC()
	out := *p
	return &out, nil
}
