package tenants

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the slice of the remote client the tenant helpers need.
type Backend interface {
	GetUser(ctx context.Context) (*sessions.User, error)
	Tenants() Repo
	Profiles() ProfileRepo
}

// BackendFunc returns the current backend handle. It is called on every
// operation so a replaced handle is picked up immediately.
type BackendFunc func(ctx context.Context) (Backend, error)

// Service answers tenant questions about the signed-in identity by reading
// the profiles and tenants tables.
type Service struct {
	backend BackendFunc
}

func NewService(backend BackendFunc) (*Service, error) {
	if backend == nil {
		return nil, errors.New("[tenants.NewService] backend is required")
	}
	return &Service{backend: backend}, nil
}

// profile returns the signed-in user's profile, or nil when nobody is signed in.
func (s *Service) profile(ctx context.Context) (*Profile, Backend, error) {
	b, err := s.backend(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[tenants.Service] backend")
	}
	user, err := b.GetUser(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[tenants.Service] GetUser")
	}
	if user == nil {
		return nil, b, nil
	}
	p, err := b.Profiles().Get(ctx, user.ID)
	if err != nil {
		return nil, b, errors.Wrap(err, "[tenants.Service] profiles.Get")
	}
	return p, b, nil
}

// CurrentTenantID returns the tenant of the signed-in user's profile, or ""
// when nobody is signed in.
func (s *Service) CurrentTenantID(ctx context.Context) (string, error) {
	p, _, err := s.profile(ctx)
	if err != nil || p == nil {
		return "", err
	}
	return p.TenantID, nil
}

// CurrentTenant returns the signed-in user's tenant row, or nil when nobody is
// signed in or the profile has no tenant.
func (s *Service) CurrentTenant(ctx context.Context) (*Tenant, error) {
	p, b, err := s.profile(ctx)
	if err != nil || p == nil || p.TenantID == "" {
		return nil, err
	}
	t, err := b.Tenants().Get(ctx, p.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.Service.CurrentTenant] tenants.Get")
	}
	return t, nil
}

// CurrentUserRole returns the profile role, or "" when nobody is signed in.
func (s *Service) CurrentUserRole(ctx context.Context) (Role, error) {
	p, _, err := s.profile(ctx)
	if err != nil || p == nil {
		return "", err
	}
	return p.Role, nil
}

func (s *Service) IsSuperAdmin(ctx context.Context) (bool, error) {
	role, err := s.CurrentUserRole(ctx)
	if err != nil {
		return false, err
	}
	return role == RoleSuperAdmin, nil
}

func (s *Service) CreateTenant(ctx context.Context, name string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("[tenants.Service.CreateTenant] name is required")
	}
	b, err := s.backend(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.Service.CreateTenant] backend")
	}
	t, err := b.Tenants().Create(ctx, &Tenant{Name: name})
	if err != nil {
		log.Err(err).Str("name", name).Msg("Error creating tenant")
		return nil, errors.Wrap(err, "[tenants.Service.CreateTenant] tenants.Create")
	}
	return t, nil
}

func (s *Service) UpdateTenant(ctx context.Context, tenantID string, update TenantUpdate) (*Tenant, error) {
	b, err := s.backend(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.Service.UpdateTenant] backend")
	}
	t, err := b.Tenants().Update(ctx, tenantID, update)
	if err != nil {
		log.Err(err).Str("tenant_id", tenantID).Msg("Error updating tenant")
		return nil, errors.Wrap(err, "[tenants.Service.UpdateTenant] tenants.Update")
	}
	return t, nil
}

// TenantUsers lists the profiles of tenantID visible to the caller.
func (s *Service) TenantUsers(ctx context.Context, tenantID string) ([]*Profile, error) {
	b, err := s.backend(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.Service.TenantUsers] backend")
	}
	profiles, err := b.Profiles().ListByTenant(ctx, tenantID)
	if err != nil {
		log.Err(err).Str("tenant_id", tenantID).Msg("Error fetching tenant users")
		return nil, errors.Wrap(err, "[tenants.Service.TenantUsers] profiles.ListByTenant")
	}
	return profiles, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	b, err := s.backend(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.Service.UpdateUserProfile] backend")
	}
	p, err := b.Profiles().Update(ctx, userID, update)
	if err != nil {
		log.Err(err).Str("user_id", userID).Msg("Error updating user profile")
		return nil, errors.Wrap(err, "[tenants.Service.UpdateUserProfile] profiles.Update")
	}
	return p, nil
}
