package tenantrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

var _ tenants.ProfileRepo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]*tenants.Profile
	lock     sync.RWMutex
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]*tenants.Profile),
	}
}

// Upsert seeds a profile row.
func (pr *FakeProfileRepo) Upsert(p *tenants.Profile) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	out := *p
	pr.profiles[p.ID] = &out
}

func (pr *FakeProfileRepo) Get(_ context.Context, userID string) (*tenants.Profile, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	p, ok := pr.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (pr *FakeProfileRepo) ListByTenant(_ context.Context, tenantID string) ([]*tenants.Profile, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	list := make([]*tenants.Profile, 0)
	for _, p := range pr.profiles {
		if p.TenantID == tenantID {
			out := *p
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (pr *FakeProfileRepo) Update(_ context.Context, userID string, update tenants.ProfileUpdate) (*tenants.Profile, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	p, ok := pr.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	update.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	out := *p
	return &out, nil
}
