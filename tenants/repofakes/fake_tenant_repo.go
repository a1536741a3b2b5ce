package tenantrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

// FakeTenantRepo is an unrestricted in-memory tenants table. The *Err fields
// make the matching call fail, for exercising error paths.
type FakeTenantRepo struct {
	tenants map[string]*tenants.Tenant
	lock    sync.RWMutex

	CreateErr error
	DeleteErr error
	ListErr   error

	Deleted []string
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants: make(map[string]*tenants.Tenant),
	}
}

func (tr *FakeTenantRepo) Create(_ context.Context, tenantData *tenants.Tenant) (*tenants.Tenant, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.CreateErr != nil {
		return nil, tr.CreateErr
	}
	t := *tenantData
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	tr.tenants[t.ID] = &t
	out := t
	return &out, nil
}

func (tr *FakeTenantRepo) Delete(_ context.Context, tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.DeleteErr != nil {
		return tr.DeleteErr
	}
	delete(tr.tenants, tenantID)
	tr.Deleted = append(tr.Deleted, tenantID)
	return nil
}

func (tr *FakeTenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, apperrors.ErrTenantNotFound
	}
	out := *t
	return &out, nil
}

func (tr *FakeTenantRepo) List(_ context.Context) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	if tr.ListErr != nil {
		return nil, tr.ListErr
	}

	list := make([]*tenants.Tenant, 0, len(tr.tenants))
	for _, t := range tr.tenants {
		out := *t
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (tr *FakeTenantRepo) Update(_ context.Context, tenantID string, update tenants.TenantUpdate) (*tenants.Tenant, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, apperrors.ErrTenantNotFound
	}
	update.Apply(t)
	t.UpdatedAt = time.Now().UTC()
	out := *t
	return &out, nil
}

// Has reports whether tenantID is stored.
func (tr *FakeTenantRepo) Has(tenantID string) bool {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	_, ok := tr.tenants[tenantID]
	return ok
}
