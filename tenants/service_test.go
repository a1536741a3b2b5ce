package tenants_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/tenants"
	tenantrepofakes "github.com/jrsteele09/go-tenant-console/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	user     *sessions.User
	tenants  *tenantrepofakes.FakeTenantRepo
	profiles *tenantrepofakes.FakeProfileRepo
}

func (f *fakeBackend) GetUser(context.Context) (*sessions.User, error) { return f.user, nil }
func (f *fakeBackend) Tenants() tenants.Repo                          { return f.tenants }
func (f *fakeBackend) Profiles() tenants.ProfileRepo                  { return f.profiles }

func setupService(t *testing.T) (*fakeBackend, *tenants.Service) {
	t.Helper()
	b := &fakeBackend{
		tenants:  tenantrepofakes.NewFakeTenantRepo(),
		profiles: tenantrepofakes.NewFakeProfileRepo(),
	}
	svc, err := tenants.NewService(func(context.Context) (tenants.Backend, error) { return b, nil })
	require.NoError(t, err)
	return b, svc
}

func TestService_SignedOut(t *testing.T) {
	ctx := context.Background()
	_, svc := setupService(t)

	id, err := svc.CurrentTenantID(ctx)
	require.NoError(t, err)
	require.Empty(t, id)

	tenant, err := svc.CurrentTenant(ctx)
	require.NoError(t, err)
	require.Nil(t, tenant)

	super, err := svc.IsSuperAdmin(ctx)
	require.NoError(t, err)
	require.False(t, super)
}

func TestService_SignedIn(t *testing.T) {
	ctx := context.Background()
	b, svc := setupService(t)

	created, err := svc.CreateTenant(ctx, "  Acme  ")
	require.NoError(t, err)
	require.Equal(t, "Acme", created.Name)

	b.user = &sessions.User{ID: "u-1", Email: "a@x.com"}
	b.profiles.Upsert(&tenants.Profile{ID: "u-1", TenantID: created.ID, Role: tenants.RoleSuperAdmin})
	b.profiles.Upsert(&tenants.Profile{ID: "u-2", TenantID: created.ID, Role: tenants.RoleMember})
	b.profiles.Upsert(&tenants.Profile{ID: "u-3", TenantID: "other", Role: tenants.RoleMember})

	id, err := svc.CurrentTenantID(ctx)
	require.NoError(t, err)
	require.Equal(t, created.ID, id)

	current, err := svc.CurrentTenant(ctx)
	require.NoError(t, err)
	require.Equal(t, "Acme", current.Name)

	role, err := svc.CurrentUserRole(ctx)
	require.NoError(t, err)
	require.Equal(t, tenants.RoleSuperAdmin, role)

	super, err := svc.IsSuperAdmin(ctx)
	require.NoError(t, err)
	require.True(t, super)

	users, err := svc.TenantUsers(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)

	renamed := "Acme Corp"
	updated, err := svc.UpdateTenant(ctx, created.ID, tenants.TenantUpdate{Name: &renamed})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", updated.Name)

	nick := "Zed"
	profile, err := svc.UpdateUserProfile(ctx, "u-2", tenants.ProfileUpdate{DisplayName: &nick})
	require.NoError(t, err)
	require.Equal(t, "Zed", profile.DisplayName)
	require.Equal(t, tenants.RoleMember, profile.Role)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	b, svc := setupService(t)

	_, err := svc.CreateTenant(ctx, " ")
	require.Error(t, err)

	_, err = svc.UpdateTenant(ctx, "missing", tenants.TenantUpdate{})
	require.Error(t, err)

	b.user = &sessions.User{ID: "no-profile"}
	_, err = svc.CurrentTenantID(ctx)
	require.Error(t, err)

	_, err = tenants.NewService(nil)
	require.Error(t, err)
}
